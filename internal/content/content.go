package content

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"

	"github.com/hpungsan/capture/internal/capture"
)

// Provider opens attachment content by locator. A locator must stay valid for
// the duration of one save.
type Provider interface {
	OpenRead(ctx context.Context, locator string) (io.ReadCloser, error)
	MimeTypeOf(locator string) capture.Optional[string]
}

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

// Files serves file:// URIs and bare paths.
type Files struct {
	fs afero.Fs
}

// NewFiles creates a file provider over fs.
func NewFiles(fs afero.Fs) *Files {
	return &Files{fs: fs}
}

func (f *Files) path(locator string) (string, error) {
	if !strings.Contains(locator, "://") {
		if locator == "" {
			return "", fmt.Errorf("empty locator")
		}
		return locator, nil
	}
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("invalid locator: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported locator scheme %q", u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

// OpenRead implements Provider.
func (f *Files) OpenRead(ctx context.Context, locator string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := f.path(locator)
	if err != nil {
		return nil, err
	}
	info, err := f.fs.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", p)
	}
	return f.fs.Open(p)
}

// MimeTypeOf guesses the MIME type from the extension, then from the first
// bytes of content. Unknown content is reported as absent.
func (f *Files) MimeTypeOf(locator string) capture.Optional[string] {
	p, err := f.path(locator)
	if err != nil {
		return capture.None[string]()
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(p))); t != "" {
		return capture.Some(t)
	}

	file, err := f.fs.Open(p)
	if err != nil {
		return capture.None[string]()
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(file, head)
	if n == 0 {
		return capture.None[string]()
	}
	t := http.DetectContentType(head[:n])
	if t == "application/octet-stream" {
		return capture.None[string]()
	}
	return capture.Some(t)
}

// DisplayName derives an attachment display name from a locator: the base
// name without its extension, since the extension is re-derived from MIME.
func (f *Files) DisplayName(locator string) capture.Optional[string] {
	p, err := f.path(locator)
	if err != nil {
		return capture.None[string]()
	}
	base := filepath.Base(p)
	return capture.OptionalString(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Attachment builds an Attachment for a local file.
func (f *Files) Attachment(locator string) capture.Attachment {
	return capture.Attachment{
		Locator:     locator,
		MimeType:    f.MimeTypeOf(locator),
		DisplayName: f.DisplayName(locator),
	}
}

// InlineScheme prefixes locators served by Inline.
const InlineScheme = "mem:"

type inlineItem struct {
	data     []byte
	mimeType capture.Optional[string]
}

// Inline holds attachment bytes in memory, e.g. for uploaded files.
type Inline struct {
	mu    sync.RWMutex
	items map[string]inlineItem
}

// NewInline creates an empty in-memory provider.
func NewInline() *Inline {
	return &Inline{items: make(map[string]inlineItem)}
}

// Put stores data and returns its locator.
func (in *Inline) Put(data []byte, mimeType capture.Optional[string]) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	locator := InlineScheme + id.String()

	in.mu.Lock()
	in.items[locator] = inlineItem{data: data, mimeType: mimeType}
	in.mu.Unlock()
	return locator
}

// Release drops stored content.
func (in *Inline) Release(locator string) {
	in.mu.Lock()
	delete(in.items, locator)
	in.mu.Unlock()
}

// OpenRead implements Provider.
func (in *Inline) OpenRead(_ context.Context, locator string) (io.ReadCloser, error) {
	in.mu.RLock()
	item, ok := in.items[locator]
	in.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no inline content for %s", locator)
	}
	return io.NopCloser(bytes.NewReader(item.data)), nil
}

// MimeTypeOf implements Provider.
func (in *Inline) MimeTypeOf(locator string) capture.Optional[string] {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.items[locator].mimeType
}

// Mux routes inline locators to an Inline provider and everything else to a
// fallback provider.
type Mux struct {
	Inline   *Inline
	Fallback Provider
}

func (m *Mux) route(locator string) Provider {
	if m.Inline != nil && strings.HasPrefix(locator, InlineScheme) {
		return m.Inline
	}
	return m.Fallback
}

// OpenRead implements Provider.
func (m *Mux) OpenRead(ctx context.Context, locator string) (io.ReadCloser, error) {
	p := m.route(locator)
	if p == nil {
		return nil, fmt.Errorf("no provider for %s", locator)
	}
	return p.OpenRead(ctx, locator)
}

// MimeTypeOf implements Provider.
func (m *Mux) MimeTypeOf(locator string) capture.Optional[string] {
	p := m.route(locator)
	if p == nil {
		return capture.None[string]()
	}
	return p.MimeTypeOf(locator)
}
