package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/hpungsan/capture/internal/errors"
)

func memResolver(t *testing.T, dirs ...string) (*Resolver, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, d := range dirs {
		if err := fs.MkdirAll(d, 0755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
	}
	return NewResolver(fs), fs
}

func TestRefForPath_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	ref, err := RefForPath(tmpDir)
	if err != nil {
		t.Fatalf("RefForPath failed: %v", err)
	}
	if !strings.HasPrefix(ref, "file://") {
		t.Errorf("ref = %q, want file:// prefix", ref)
	}

	path, err := PathForRef(ref)
	if err != nil {
		t.Fatalf("PathForRef failed: %v", err)
	}
	if path != tmpDir {
		t.Errorf("PathForRef = %q, want %q", path, tmpDir)
	}
}

func TestPathForRef_Rejects(t *testing.T) {
	for _, ref := range []string{"content://tree/1", "file://server/share", "file://", "%zz"} {
		if _, err := PathForRef(ref); err == nil {
			t.Errorf("PathForRef(%q) expected error", ref)
		}
	}
}

func TestResolve_NotConfigured(t *testing.T) {
	r, _ := memResolver(t)

	for _, ref := range []string{"", "   "} {
		_, err := r.Resolve(ref)
		if !errors.Is(err, errors.ErrNotConfigured) {
			t.Errorf("Resolve(%q) err = %v, want NOT_CONFIGURED", ref, err)
		}
	}
}

func TestResolve_Unreachable(t *testing.T) {
	r, fs := memResolver(t, "/notes")
	if err := afero.WriteFile(fs, "/notes/file.txt", []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	tests := []string{
		"file:///missing",
		"file:///notes/file.txt",
		"content://com.android/tree/primary",
	}
	for _, ref := range tests {
		_, err := r.Resolve(ref)
		if !errors.Is(err, errors.ErrUnreachable) {
			t.Errorf("Resolve(%q) err = %v, want UNREACHABLE", ref, err)
		}
	}
}

func TestResolve_NotWritable(t *testing.T) {
	base := afero.NewMemMapFs()
	if err := base.MkdirAll("/notes", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	r := NewResolver(afero.NewReadOnlyFs(base))

	_, err := r.Resolve("file:///notes")
	if !errors.Is(err, errors.ErrNotWritable) {
		t.Fatalf("Resolve err = %v, want NOT_WRITABLE", err)
	}
}

func TestResolve_OKLeavesNoProbe(t *testing.T) {
	r, fs := memResolver(t, "/notes")

	root, err := r.Resolve("file:///notes")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if root.Ref() != "file:///notes" {
		t.Errorf("Ref() = %q", root.Ref())
	}

	entries, err := afero.ReadDir(fs, "/notes")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries[0].Name())
	}
}

func TestResolve_OsFs(t *testing.T) {
	tmpDir := t.TempDir()
	ref, err := RefForPath(tmpDir)
	if err != nil {
		t.Fatalf("RefForPath failed: %v", err)
	}

	root, err := NewResolver(afero.NewOsFs()).Resolve(ref)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	w, name, err := root.CreateFile("text/plain", "hello.txt")
	if err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	if _, err := io.WriteString(w, "hi"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	w.Close()

	data, err := os.ReadFile(filepath.Join(tmpDir, name))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hi" {
		t.Errorf("content = %q, want %q", data, "hi")
	}
}

func TestCreateFile_CollisionSuffix(t *testing.T) {
	r, fs := memResolver(t, "/notes")
	root, err := r.Resolve("file:///notes")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	var names []string
	for i := 0; i < 3; i++ {
		w, name, err := root.CreateFile("text/markdown", "2025-01-01_000000_note.md")
		if err != nil {
			t.Fatalf("CreateFile #%d failed: %v", i, err)
		}
		io.WriteString(w, name)
		w.Close()
		names = append(names, name)
	}

	want := []string{
		"2025-01-01_000000_note.md",
		"2025-01-01_000000_note-1.md",
		"2025-01-01_000000_note-2.md",
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	data, _ := afero.ReadFile(fs, "/notes/2025-01-01_000000_note.md")
	if string(data) != "2025-01-01_000000_note.md" {
		t.Errorf("first file overwritten: %q", data)
	}
}

func TestCreateFile_RejectsPathNames(t *testing.T) {
	r, _ := memResolver(t, "/notes")
	root, err := r.Resolve("file:///notes")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	for _, name := range []string{"", "..", "a/b.txt", "../x.txt"} {
		if _, _, err := root.CreateFile("text/plain", name); err == nil {
			t.Errorf("CreateFile(%q) expected error", name)
		}
	}
}

func TestWithSuffix(t *testing.T) {
	if got := withSuffix("a.png", 2); got != "a-2.png" {
		t.Errorf("withSuffix = %q", got)
	}
	if got := withSuffix("noext", 1); got != "noext-1" {
		t.Errorf("withSuffix = %q", got)
	}
}
