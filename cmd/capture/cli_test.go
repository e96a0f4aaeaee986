package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/capture/internal/applog"
	"github.com/hpungsan/capture/internal/config"
	"github.com/hpungsan/capture/internal/db"
)

// setupRuntime creates a runtime over a temporary database.
func setupRuntime(t *testing.T) *runtime {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return newRuntime(database, config.DefaultConfig(), applog.NewCharmSinkWriter(io.Discard, "error"))
}

// runCLI runs the app with the given args and stdin, returning stdout and stderr.
func runCLI(t *testing.T, rt *runtime, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newCLIApp(rt)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"capture"}, args...))
	return stdout.String(), stderr.String(), err
}

func exitMessage(t *testing.T, err error) string {
	t.Helper()
	exitErr, ok := err.(cli.ExitCoder)
	if !ok {
		t.Fatalf("expected cli.ExitCoder, got %T: %v", err, err)
	}
	return exitErr.Error()
}

// TestParseTags tests the parseTags helper function.
func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single tag", "foo", []string{"foo"}},
		{"multiple tags", "foo,bar,baz", []string{"foo", "bar", "baz"}},
		{"tags with spaces", " foo , bar , baz ", []string{"foo", "bar", "baz"}},
		{"empty tags filtered", "foo,,bar,", []string{"foo", "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseTags(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("expected %d tags, got %d", len(tt.expected), len(result))
				return
			}
			for i, tag := range result {
				if tag != tt.expected[i] {
					t.Errorf("expected tag[%d]=%q, got %q", i, tt.expected[i], tag)
				}
			}
		})
	}
}

func TestCollectTags(t *testing.T) {
	got := collectTags([]string{"a,b", "c"})
	if strings.Join(got, ",") != "a,b,c" {
		t.Errorf("collectTags = %v, want [a b c]", got)
	}
}

func TestCLISave_NotConfigured(t *testing.T) {
	rt := setupRuntime(t)

	_, _, err := runCLI(t, rt, "", "save", "--text", "hello")
	if err == nil {
		t.Fatal("expected error without a location")
	}
	if msg := exitMessage(t, err); !strings.Contains(msg, "[NOT_CONFIGURED]") {
		t.Errorf("message = %q", msg)
	}
}

func TestCLILocationAndSave(t *testing.T) {
	rt := setupRuntime(t)
	inbox := t.TempDir()

	out, _, err := runCLI(t, rt, "", "location", "set", inbox)
	if err != nil {
		t.Fatalf("location set failed: %v", err)
	}
	var loc map[string]any
	if err := json.Unmarshal([]byte(out), &loc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if loc["display"] != inbox || loc["configured"] != true {
		t.Errorf("location = %v", loc)
	}

	src := filepath.Join(t.TempDir(), "scan.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.7"), 0644); err != nil {
		t.Fatal(err)
	}

	out, stderr, err := runCLI(t, rt, "piped body\n",
		"save", "--tag", "Work,receipts", "--tag", "work", "--attach", src, "--source", "share", "--log")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if result["message"] != "Saved 2 files" {
		t.Errorf("message = %v", result["message"])
	}
	files := result["files"].([]any)
	if !strings.HasSuffix(files[0].(string), "_scan.pdf") {
		t.Errorf("files = %v", files)
	}

	note, err := os.ReadFile(filepath.Join(inbox, files[1].(string)))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"tags: [work, receipts]", "source: share", "piped body\n\n"} {
		if !strings.Contains(string(note), want) {
			t.Errorf("note missing %q:\n%s", want, note)
		}
	}

	if !strings.Contains(stderr, "[Save]  Starting save") {
		t.Errorf("--log should print the diagnostic log, got:\n%s", stderr)
	}

	out, _, err = runCLI(t, rt, "", "tags", "--prefix", "re")
	if err != nil {
		t.Fatalf("tags failed: %v", err)
	}
	if !strings.Contains(out, `"receipts"`) || strings.Contains(out, `"work"`) {
		t.Errorf("tags output = %s", out)
	}
}

func TestCLILocationSet_Invalid(t *testing.T) {
	rt := setupRuntime(t)

	_, _, err := runCLI(t, rt, "", "location", "set", filepath.Join(t.TempDir(), "missing"))
	if msg := exitMessage(t, err); !strings.Contains(msg, "[UNREACHABLE]") {
		t.Errorf("message = %q", msg)
	}

	_, _, err = runCLI(t, rt, "", "location", "set")
	if msg := exitMessage(t, err); !strings.Contains(msg, "[INVALID_REQUEST]") {
		t.Errorf("message = %q", msg)
	}
}

func TestCLILocationShow_Default(t *testing.T) {
	rt := setupRuntime(t)

	out, _, err := runCLI(t, rt, "", "location")
	if err != nil {
		t.Fatalf("location failed: %v", err)
	}
	if !strings.Contains(out, `"configured": false`) {
		t.Errorf("output = %s", out)
	}
}

func TestCLISave_InvalidSource(t *testing.T) {
	rt := setupRuntime(t)

	_, _, err := runCLI(t, rt, "", "save", "--text", "x", "--source", "carrier-pigeon")
	if msg := exitMessage(t, err); !strings.Contains(msg, "[INVALID_REQUEST]") {
		t.Errorf("message = %q", msg)
	}
}

func TestCLIPreview(t *testing.T) {
	out, _, err := runCLI(t, nil, "", "preview", "--text", "Draft", "--tag", "a,b", "--attach", "/nowhere/photo.png")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	for _, want := range []string{"tags: [a, b]", "source: direct", "Draft\n\n", "_photo.png]]"} {
		if !strings.Contains(out, want) {
			t.Errorf("preview missing %q:\n%s", want, out)
		}
	}
}

func TestCLIPreview_HTML(t *testing.T) {
	out, _, err := runCLI(t, nil, "**bold**", "preview", "--html")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("html = %s", out)
	}
}

func TestCLIVersion(t *testing.T) {
	out, _, err := runCLI(t, nil, "", "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("version output = %q", out)
	}
}
