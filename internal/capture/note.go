package capture

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Timestamp layouts shared by every file of one save.
const (
	FileTimestampLayout     = "2006-01-02_150405"
	CapturedTimestampLayout = "2006-01-02T15:04:05"
)

const (
	noteSuffix      = "_note.md"
	frontMatterLine = "---"
)

// FileTimestamp returns the filename token for t.
func FileTimestamp(t time.Time) string {
	return t.Format(FileTimestampLayout)
}

// NoteFilename returns the sidecar note name for a save stamped with t.
func NoteFilename(t time.Time) string {
	return FileTimestamp(t) + noteSuffix
}

// AttachmentFilename returns {timestamp}_{displayName-or-"file"}.{ext}.
func AttachmentFilename(t time.Time, a Attachment) string {
	name := SanitizeDisplayName(a.DisplayName.OrElse(""))
	return fmt.Sprintf("%s_%s.%s", FileTimestamp(t), name, ExtensionFor(a.MimeType))
}

// IsNoteFilename reports whether name is a sidecar note name.
func IsNoteFilename(name string) bool {
	return strings.HasSuffix(name, noteSuffix)
}

// RenderNote builds the sidecar note for c. files are the attachment names
// actually written, in write order. The output depends only on its inputs.
func RenderNote(c Capture, files []string, at time.Time) string {
	listed := make([]string, 0, len(files))
	for _, name := range files {
		if !IsNoteFilename(name) {
			listed = append(listed, name)
		}
	}

	var b strings.Builder

	b.WriteString(frontMatterLine + "\n")
	if len(c.Tags) > 0 {
		tags := make([]string, len(c.Tags))
		for i, t := range c.Tags {
			tags[i] = yamlScalar(t, true)
		}
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(tags, ", "))
	}
	fmt.Fprintf(&b, "source: %s\n", c.Source.Label())
	fmt.Fprintf(&b, "captured: %s\n", at.Format(CapturedTimestampLayout))
	if len(listed) > 0 {
		b.WriteString("attachments:\n")
		for _, name := range listed {
			fmt.Fprintf(&b, "  - %s\n", yamlScalar(name, false))
		}
	}
	b.WriteString(frontMatterLine + "\n")
	b.WriteString("\n")

	if c.HasText() {
		b.WriteString(c.Text)
		b.WriteString("\n\n")
	}

	for _, name := range listed {
		fmt.Fprintf(&b, "![[%s]]\n", name)
	}

	return b.String()
}

// yamlScalar returns s as a plain YAML scalar when it reads back as the same
// string, and double-quoted otherwise. inFlow marks values inside [ ].
func yamlScalar(s string, inFlow bool) string {
	if needsQuoting(s, inFlow) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuoting(s string, inFlow bool) bool {
	if s == "" || s != strings.TrimSpace(s) {
		return true
	}
	if strings.ContainsRune("-?:,[]{}#&*!|>'\"%@`", rune(s[0])) {
		return true
	}
	if strings.Contains(s, ": ") || strings.Contains(s, " #") || strings.HasSuffix(s, ":") {
		return true
	}
	if inFlow && strings.ContainsAny(s, ",[]{}") {
		return true
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return true
		}
	}
	switch strings.ToLower(s) {
	case "~", "null", "true", "false", "yes", "no", "on", "off":
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return false
}

// FrontMatter is the decoded metadata block of a sidecar note.
type FrontMatter struct {
	Tags        []string `yaml:"tags,omitempty"`
	Source      string   `yaml:"source"`
	Captured    string   `yaml:"captured"`
	Attachments []string `yaml:"attachments,omitempty"`
}

// SplitNote separates the front matter block, delimiters included, from the body.
func SplitNote(note string) (front, body string, err error) {
	open := frontMatterLine + "\n"
	if !strings.HasPrefix(note, open) {
		return "", "", fmt.Errorf("invalid frontmatter format")
	}
	end := strings.Index(note[len(open):], "\n"+frontMatterLine+"\n")
	if end < 0 {
		return "", "", fmt.Errorf("invalid frontmatter format")
	}
	cut := len(open) + end + len(frontMatterLine) + 2
	return note[:cut], note[cut:], nil
}

// ParseFrontMatter splits a rendered note into its metadata and trimmed body.
func ParseFrontMatter(note string) (FrontMatter, string, error) {
	var fm FrontMatter

	front, body, err := SplitNote(note)
	if err != nil {
		return fm, "", err
	}

	inner := front[len(frontMatterLine)+1 : len(front)-len(frontMatterLine)-1]
	if err := yaml.Unmarshal([]byte(inner), &fm); err != nil {
		return fm, "", fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	return fm, strings.TrimSpace(body), nil
}
