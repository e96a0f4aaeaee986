package storage

import (
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"

	"github.com/hpungsan/capture/internal/errors"
)

// MaxNameAttempts bounds collision disambiguation in CreateFile.
const MaxNameAttempts = 100

// Root is a writable directory handle produced by a resolver.
type Root interface {
	// Ref returns the location reference the root was resolved from.
	Ref() string

	// CreateFile creates a new file and returns a writer plus the final name,
	// which differs from name when name was already taken.
	CreateFile(mimeType, name string) (io.WriteCloser, string, error)
}

// Resolver turns location references into writable directories.
type Resolver struct {
	fs afero.Fs
}

// NewResolver creates a resolver over fs. Pass afero.NewOsFs() in production.
func NewResolver(fs afero.Fs) *Resolver {
	return &Resolver{fs: fs}
}

// RefForPath builds the location reference for a local directory.
func RefForPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// PathForRef extracts the local directory from a file:// reference.
func PathForRef(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid location reference: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("remote location host %q not supported", u.Host)
	}
	if u.Path == "" {
		return "", fmt.Errorf("location reference has no path")
	}
	return filepath.FromSlash(u.Path), nil
}

// Resolve validates ref and returns a writable directory. It fails with
// NOT_CONFIGURED for an empty ref, UNREACHABLE when the directory is gone and
// NOT_WRITABLE when a probe file cannot be created. There is no retry.
func (r *Resolver) Resolve(ref string) (Root, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, errors.NewNotConfigured()
	}

	path, err := PathForRef(ref)
	if err != nil {
		return nil, errors.NewUnreachable(ref, err)
	}

	info, err := r.fs.Stat(path)
	if err != nil {
		return nil, errors.NewUnreachable(ref, err)
	}
	if !info.IsDir() {
		return nil, errors.NewUnreachable(ref, fmt.Errorf("%s is not a directory", path))
	}

	if err := r.probeWritable(path); err != nil {
		return nil, errors.NewNotWritable(ref, err)
	}

	return &Dir{fs: r.fs, path: path, ref: ref}, nil
}

// probeWritable creates and removes a uniquely named hidden file.
func (r *Resolver) probeWritable(dir string) error {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return err
	}
	probe := filepath.Join(dir, ".capture-probe-"+id.String())
	f, err := r.fs.OpenFile(probe, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	f.Close()
	return r.fs.Remove(probe)
}

// Dir is a resolved local directory.
type Dir struct {
	fs   afero.Fs
	path string
	ref  string
}

// Ref implements Root.
func (d *Dir) Ref() string {
	return d.ref
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// CreateFile implements Root. Files are created exclusively; an existing name
// is never overwritten. On collision "-1", "-2", ... is inserted before the
// extension. mimeType is advisory: plain directories do not store it.
func (d *Dir) CreateFile(mimeType, name string) (io.WriteCloser, string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil, "", fmt.Errorf("invalid file name %q", name)
	}

	candidate := name
	for attempt := 1; attempt <= MaxNameAttempts; attempt++ {
		f, err := d.fs.OpenFile(filepath.Join(d.path, candidate), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			return f, candidate, nil
		}
		if !stderrors.Is(err, os.ErrExist) {
			return nil, "", err
		}
		candidate = withSuffix(name, attempt)
	}
	return nil, "", fmt.Errorf("no free name for %s (mime=%s) after %d attempts", name, mimeType, MaxNameAttempts)
}

// withSuffix inserts "-n" before the extension of name.
func withSuffix(name string, n int) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
}
