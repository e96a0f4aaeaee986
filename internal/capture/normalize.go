package capture

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims, lowercases and collapses internal whitespace.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// NormalizeTags normalizes each tag, drops empty ones and removes duplicates,
// keeping the first occurrence.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = Normalize(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// MaxDisplayNameBytes bounds the display name part of an attachment filename
// so that timestamp, collision suffix and extension still fit in a 255-byte name.
const MaxDisplayNameBytes = 200

// SanitizeDisplayName makes a display name safe to embed in a filename.
// Path separators and ".." become dashes, control characters are dropped and
// the result is cut to MaxDisplayNameBytes on a rune boundary.
// An empty result falls back to "file".
func SanitizeDisplayName(s string) string {
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, "..", "-")

	var result strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			result.WriteRune(r)
		}
	}
	s = result.String()

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "- ")
	s = strings.TrimRight(truncateBytes(s, MaxDisplayNameBytes), "- ")

	if s == "" {
		s = "file"
	}
	return s
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
