package ops

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/hpungsan/capture/internal/capture"
	"github.com/hpungsan/capture/internal/errors"
	"github.com/hpungsan/capture/internal/storage"
)

// Save writes the capture's attachments and sidecar note under the configured
// storage root. Attachments are written one at a time in input order; one that
// fails is skipped. A note failure aborts the save. Save never panics and never
// returns a raw error: every outcome is a SaveResult.
//
// ctx carries values to the preference store and content provider but not
// its cancellation: a started save runs to completion.
func (p *Pipeline) Save(ctx context.Context, c capture.Capture) (result SaveResult) {
	ctx = context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			p.log.Error(saveTag, err, "Save failed with panic")
			result = failure(errors.ErrInternal, "Save failed: "+err.Error(), nil)
		}
	}()

	p.log.Info(saveTag, "Starting save: source=%s, textLen=%d, attachments=%d, tags=%v",
		c.Source.Label(), len(c.Text), len(c.Attachments), c.Tags)

	ref, err := p.prefs.Location(ctx)
	if err != nil {
		p.log.Error(saveTag, err, "Failed to read save location")
		return failure(errors.ErrInternal, "Save failed: "+err.Error(), nil)
	}

	root, err := p.resolver.Resolve(ref)
	if err != nil {
		return p.rootFailure(ref, err)
	}
	p.log.Debug(saveTag, "Save location resolved: %s", root.Ref())

	now := p.now()
	saved := make([]string, 0, len(c.Attachments))
	for i, a := range c.Attachments {
		if name, ok := p.saveAttachment(ctx, root, now, i, len(c.Attachments), a); ok {
			saved = append(saved, name)
		}
	}

	files := append([]string{}, saved...)

	if c.HasText() || len(saved) > 0 {
		noteName, err := p.writeNote(root, c, saved, now)
		if err != nil {
			var cErr *errors.CaptureError
			msg := "Failed to write note file."
			if stderrors.As(err, &cErr) {
				msg = cErr.Message
			}
			return failure(errors.ErrNoteFailed, msg, files)
		}
		files = append(files, noteName)
	} else {
		p.log.Info(saveTag, "Nothing to save: text is blank and no attachments were written")
	}

	if len(c.Tags) > 0 {
		if err := p.prefs.AddTags(ctx, c.Tags); err != nil {
			p.log.Error(saveTag, err, "Failed to persist tags %v", c.Tags)
		}
	}

	res := success(files)
	p.log.Info(saveTag, "Save complete: %d %s: %v", len(files), fileWord(len(files)), files)
	return res
}

// SaveAsync runs Save on its own goroutine. The returned channel receives
// exactly one result and is then closed.
func (p *Pipeline) SaveAsync(ctx context.Context, c capture.Capture) <-chan SaveResult {
	ch := make(chan SaveResult, 1)
	go func() {
		defer close(ch)
		ch <- p.Save(ctx, c)
	}()
	return ch
}

func (p *Pipeline) rootFailure(ref string, err error) SaveResult {
	var cErr *errors.CaptureError
	if !stderrors.As(err, &cErr) {
		p.log.Error(saveTag, err, "Unexpected error resolving save location %q", ref)
		return failure(errors.ErrInternal, "Save failed: "+err.Error(), nil)
	}

	switch cErr.Code {
	case errors.ErrNotConfigured:
		p.log.Error(saveTag, nil, "No save location configured")
	case errors.ErrUnreachable:
		p.log.Error(saveTag, cErr.Err, "Save location unreachable: %s", ref)
	case errors.ErrNotWritable:
		p.log.Error(saveTag, cErr.Err, "Cannot write to save location: %s", ref)
	default:
		p.log.Error(saveTag, err, "Failed to resolve save location: %s", ref)
	}
	return failure(cErr.Code, cErr.Message, nil)
}

// saveAttachment writes one attachment and returns its final filename.
// Any failure is logged and reported as ok=false. A file created before a
// failure is left in place.
func (p *Pipeline) saveAttachment(ctx context.Context, root storage.Root, now time.Time, index, total int, a capture.Attachment) (string, bool) {
	name := capture.AttachmentFilename(now, a)
	mimeType := a.MimeType.OrElse(octetStream)

	p.log.Debug(saveTag, "Saving attachment %d/%d: %s (mime=%s, locator=%s)",
		index+1, total, name, mimeType, a.Locator)

	w, finalName, err := root.CreateFile(mimeType, name)
	if err != nil {
		p.log.Error(saveTag, errors.NewItemFailed(name, "create", err), "createFile failed for: %s (mime=%s)", name, mimeType)
		return "", false
	}
	if finalName != name {
		p.log.Debug(saveTag, "Name %s taken, using %s", name, finalName)
	}

	r, err := p.content.OpenRead(ctx, a.Locator)
	if err != nil {
		w.Close()
		p.log.Error(saveTag, errors.NewItemFailed(finalName, "open", err), "openRead failed for: %s (target %s left empty)", a.Locator, finalName)
		return "", false
	}
	defer r.Close()

	n, err := io.Copy(w, r)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		p.log.Error(saveTag, errors.NewItemFailed(finalName, "copy", err), "Copy failed for: %s after %d bytes", finalName, n)
		return "", false
	}

	p.log.Debug(saveTag, "Wrote %d bytes to %s", n, finalName)
	return finalName, true
}

// writeNote renders and writes the sidecar note, returning its final name.
func (p *Pipeline) writeNote(root storage.Root, c capture.Capture, saved []string, now time.Time) (string, error) {
	name := capture.NoteFilename(now)
	p.log.Debug(saveTag, "Creating note file: %s", name)

	w, finalName, err := root.CreateFile(noteMimeType, name)
	if err != nil {
		p.log.Error(saveTag, err, "createFile failed for note: %s", name)
		return "", errors.NewNoteFailed(name, "create", err)
	}

	body := capture.RenderNote(c, saved, now)
	_, err = io.WriteString(w, body)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		p.log.Error(saveTag, err, "Write failed for note: %s", finalName)
		return "", errors.NewNoteFailed(finalName, "write", err)
	}

	p.log.Debug(saveTag, "Note written: %d chars to %s", len(body), finalName)
	return finalName, nil
}

func fileWord(n int) string {
	if n == 1 {
		return "file"
	}
	return "files"
}
