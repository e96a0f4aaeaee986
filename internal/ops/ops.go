package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/hpungsan/capture/internal/applog"
	"github.com/hpungsan/capture/internal/content"
	"github.com/hpungsan/capture/internal/errors"
	"github.com/hpungsan/capture/internal/storage"
)

// saveTag is the diagnostic log category for the persistence pipeline.
const saveTag = "Save"

// octetStream is the MIME type requested for attachments without one.
const octetStream = "application/octet-stream"

// noteMimeType is the MIME type requested for the sidecar note.
const noteMimeType = "text/markdown"

// PrefStore is the subset of the preference store the pipeline needs.
type PrefStore interface {
	Location(ctx context.Context) (string, error)
	AddTags(ctx context.Context, tags []string) error
}

// RootResolver turns a location reference into a writable directory.
type RootResolver interface {
	Resolve(ref string) (storage.Root, error)
}

// Pipeline persists captures under the configured storage root.
type Pipeline struct {
	prefs    PrefStore
	resolver RootResolver
	content  content.Provider
	log      *applog.Log
	now      func() time.Time
}

// NewPipeline creates a pipeline. All dependencies are required.
func NewPipeline(prefs PrefStore, resolver RootResolver, provider content.Provider, log *applog.Log) *Pipeline {
	return &Pipeline{
		prefs:    prefs,
		resolver: resolver,
		content:  provider,
		log:      log,
		now:      time.Now,
	}
}

// SetClock overrides the time source used for filenames and the captured field.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// SaveResult is the outcome of one save. Exactly one of success or failure:
// OK with a summary, or a failure Kind with a user-facing Message.
type SaveResult struct {
	OK      bool             `json:"ok"`
	Kind    errors.ErrorCode `json:"kind,omitempty"`
	Message string           `json:"message"`

	// Files lists every file written, attachments first and then the note.
	// On failure it still lists attachments already on disk.
	Files []string `json:"files"`
}

// Err converts a failed result into a CaptureError. It returns nil on success.
func (r SaveResult) Err() error {
	if r.OK {
		return nil
	}
	return &errors.CaptureError{
		Code:    r.Kind,
		Status:  statusFor(r.Kind),
		Message: r.Message,
		Details: map[string]any{"files": r.Files},
	}
}

func success(files []string) SaveResult {
	return SaveResult{OK: true, Message: Summary(len(files)), Files: files}
}

func failure(kind errors.ErrorCode, message string, files []string) SaveResult {
	if files == nil {
		files = []string{}
	}
	return SaveResult{Kind: kind, Message: message, Files: files}
}

// Summary returns "Saved 1 file" or "Saved N files".
func Summary(n int) string {
	return fmt.Sprintf("Saved %d %s", n, fileWord(n))
}

func statusFor(kind errors.ErrorCode) int {
	switch kind {
	case errors.ErrNotConfigured:
		return 412
	case errors.ErrUnreachable:
		return 404
	case errors.ErrNotWritable:
		return 403
	case errors.ErrInvalidRequest:
		return 400
	default:
		return 500
	}
}
