package capture

import (
	"fmt"
	"strings"
)

// Optional holds a value that may be absent. The zero value is absent.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Present reports whether a value is held.
func (o Optional[T]) Present() bool {
	return o.ok
}

// OrElse returns the held value, or def when absent.
func (o Optional[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

// OptionalString turns an empty string into None.
func OptionalString(s string) Optional[string] {
	if s == "" {
		return None[string]()
	}
	return Some(s)
}

// Source labels where a capture originated. It is only written to the note.
type Source int

const (
	SourceDirect Source = iota
	SourceShare
	SourceProcessText
)

// Label returns the label written to the note's source line.
func (s Source) Label() string {
	switch s {
	case SourceShare:
		return "share"
	case SourceProcessText:
		return "text-selection"
	default:
		return "direct"
	}
}

func (s Source) String() string {
	return s.Label()
}

// ParseSource parses a source label. Empty input means SourceDirect.
func ParseSource(label string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "direct":
		return SourceDirect, nil
	case "share":
		return SourceShare, nil
	case "text-selection", "process-text", "processtext":
		return SourceProcessText, nil
	default:
		return SourceDirect, fmt.Errorf("unknown source %q (want direct, share or text-selection)", label)
	}
}

// Attachment references externally owned content. The pipeline only ever
// opens a read stream over Locator; it never owns the bytes.
type Attachment struct {
	// Locator is an opaque handle the content provider can open for reading
	Locator string

	// MimeType is the declared MIME type, if known
	MimeType Optional[string]

	// DisplayName is a human-readable name, if known
	DisplayName Optional[string]
}

// Capture is one unit of text, attachments and tags submitted for saving.
// Tags are expected to be normalized already (see NormalizeTags).
type Capture struct {
	Text        string
	Tags        []string
	Attachments []Attachment
	Source      Source
}

// HasText reports whether the capture carries non-blank text.
func (c Capture) HasText() bool {
	return strings.TrimSpace(c.Text) != ""
}
