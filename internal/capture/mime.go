package capture

import "strings"

// ExtensionFor maps a MIME type to a lowercase file extension without a dot.
// Rules are checked in order and the first match wins; anything unknown is "bin".
func ExtensionFor(mimeType Optional[string]) string {
	m, ok := mimeType.Get()
	if !ok {
		return "bin"
	}
	switch {
	case strings.HasPrefix(m, "image/png"):
		return "png"
	case strings.HasPrefix(m, "image/jpeg"), strings.HasPrefix(m, "image/jpg"):
		return "jpg"
	case strings.HasPrefix(m, "image/webp"):
		return "webp"
	case strings.HasPrefix(m, "image/gif"):
		return "gif"
	case strings.HasPrefix(m, "image/"):
		return "img"
	case m == "application/pdf":
		return "pdf"
	case strings.Contains(m, "text/plain"):
		return "txt"
	case strings.Contains(m, "text/html"):
		return "html"
	default:
		return "bin"
	}
}
