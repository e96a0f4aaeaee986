package ops

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/capture/internal/applog"
	"github.com/hpungsan/capture/internal/capture"
	"github.com/hpungsan/capture/internal/errors"
	"github.com/hpungsan/capture/internal/storage"
)

var testTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

const testStamp = "2025-03-14_092653"

// fakePrefs is an in-memory PrefStore, LocationStore and TagStore.
type fakePrefs struct {
	mu          sync.Mutex
	ref         string
	display     string
	tags        map[string]bool
	locationErr error
	tagsErr     error
	tagCalls    int
}

func newFakePrefs(ref string) *fakePrefs {
	return &fakePrefs{ref: ref, tags: make(map[string]bool)}
}

func (f *fakePrefs) Location(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ref, f.locationErr
}

func (f *fakePrefs) LocationDisplay(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.display == "" {
		return "Not set, choose a folder", nil
	}
	return f.display, nil
}

func (f *fakePrefs) SetLocation(_ context.Context, ref, display string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ref, f.display = ref, display
	return nil
}

func (f *fakePrefs) AddTags(_ context.Context, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagCalls++
	if f.tagsErr != nil {
		return f.tagsErr
	}
	for _, t := range tags {
		f.tags[t] = true
	}
	return nil
}

func (f *fakePrefs) AllTags(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.tags))
	for t := range f.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// fakeRoot records written files in memory. Names in failCreate cannot be
// created; names in failWrite are created but every write fails.
type fakeRoot struct {
	mu         sync.Mutex
	files      map[string]*bytes.Buffer
	order      []string
	failCreate map[string]bool
	failWrite  map[string]bool
}

func newFakeRoot() *fakeRoot {
	return &fakeRoot{
		files:      make(map[string]*bytes.Buffer),
		failCreate: make(map[string]bool),
		failWrite:  make(map[string]bool),
	}
}

func (r *fakeRoot) Ref() string { return "file:///fake" }

func (r *fakeRoot) CreateFile(_, name string) (io.WriteCloser, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate[name] {
		return nil, "", fmt.Errorf("create refused: %s", name)
	}
	buf := &bytes.Buffer{}
	r.files[name] = buf
	r.order = append(r.order, name)
	return &fakeFile{buf: buf, fail: r.failWrite[name]}, name, nil
}

func (r *fakeRoot) content(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.files[name]
	if !ok {
		return "", false
	}
	return buf.String(), true
}

type fakeFile struct {
	buf  *bytes.Buffer
	fail bool
}

func (f *fakeFile) Write(p []byte) (int, error) {
	if f.fail {
		return 0, fmt.Errorf("disk full")
	}
	return f.buf.Write(p)
}

func (f *fakeFile) Close() error { return nil }

// fakeResolver returns root, or err when set.
type fakeResolver struct {
	root storage.Root
	err  error
	refs []string
}

func (r *fakeResolver) Resolve(ref string) (storage.Root, error) {
	r.refs = append(r.refs, ref)
	if ref == "" {
		return nil, errors.NewNotConfigured()
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.root, nil
}

// fakeProvider serves fixed bytes per locator; missing locators fail to open.
type fakeProvider struct {
	data  map[string]string
	panic bool
}

func (p *fakeProvider) OpenRead(_ context.Context, locator string) (io.ReadCloser, error) {
	if p.panic {
		panic("provider exploded")
	}
	d, ok := p.data[locator]
	if !ok {
		return nil, fmt.Errorf("permission denied: %s", locator)
	}
	return io.NopCloser(strings.NewReader(d)), nil
}

func (p *fakeProvider) MimeTypeOf(string) capture.Optional[string] {
	return capture.None[string]()
}

type pipelineFixture struct {
	pipeline *Pipeline
	prefs    *fakePrefs
	root     *fakeRoot
	resolver *fakeResolver
	provider *fakeProvider
	log      *applog.Log
}

func newFixture() *pipelineFixture {
	root := newFakeRoot()
	f := &pipelineFixture{
		prefs:    newFakePrefs("file:///fake"),
		root:     root,
		resolver: &fakeResolver{root: root},
		provider: &fakeProvider{data: make(map[string]string)},
		log:      applog.New(100),
	}
	f.pipeline = NewPipeline(f.prefs, f.resolver, f.provider, f.log)
	f.pipeline.SetClock(func() time.Time { return testTime })
	return f
}

func pngAttachment(locator, name string) capture.Attachment {
	return capture.Attachment{
		Locator:     locator,
		MimeType:    capture.Some("image/png"),
		DisplayName: capture.Some(name),
	}
}

// hasLog reports whether any entry at level contains substr.
func hasLog(log *applog.Log, level applog.Level, substr string) bool {
	for _, e := range log.Snapshot() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
