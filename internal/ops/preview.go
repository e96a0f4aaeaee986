package ops

import (
	"bytes"
	"html"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/capture/internal/capture"
	"github.com/hpungsan/capture/internal/errors"
)

// PreviewInput contains parameters for the Preview operation.
type PreviewInput struct {
	Capture capture.Capture
	Files   []string  // attachment names to list; defaults to names derived from the capture
	At      time.Time // default: now
	HTML    bool
}

// PreviewOutput is the note that a save would write.
type PreviewOutput struct {
	NoteName string   `json:"note_name"`
	Files    []string `json:"files"`
	Markdown string   `json:"markdown"`
	HTML     string   `json:"html,omitempty"`
}

// Preview renders the sidecar note without touching storage. When Files is
// nil, every attachment is assumed to be written under its default name.
func Preview(input PreviewInput) (*PreviewOutput, error) {
	at := input.At
	if at.IsZero() {
		at = time.Now()
	}

	files := input.Files
	if files == nil {
		files = make([]string, 0, len(input.Capture.Attachments))
		for _, a := range input.Capture.Attachments {
			files = append(files, capture.AttachmentFilename(at, a))
		}
	}

	out := &PreviewOutput{
		NoteName: capture.NoteFilename(at),
		Files:    files,
		Markdown: capture.RenderNote(input.Capture, files, at),
	}

	if input.HTML {
		rendered, err := renderHTML(out.Markdown)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out.HTML = rendered
	}

	return out, nil
}

// renderHTML shows the front matter verbatim and converts the body with goldmark.
func renderHTML(note string) (string, error) {
	front, body, err := capture.SplitNote(note)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("<pre class=\"front-matter\">")
	buf.WriteString(html.EscapeString(front))
	buf.WriteString("</pre>\n")

	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
