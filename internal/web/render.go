package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"html/template"
	"net/http"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"github.com/hpungsan/capture/internal/errors"
)

// previewPage wraps a rendered note in a minimal standalone document.
var previewPage = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<main class="note">
{{.Body}}
</main>
</body>
</html>
`))

// PreviewPageData is the template data for the preview page.
type PreviewPageData struct {
	Title string
	Body  template.HTML
}

// Renderer writes responses and reports rendering failures to the logger.
type Renderer struct {
	logger *charmlog.Logger
}

// NewRenderer creates a Renderer.
func NewRenderer(logger *charmlog.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// renderPreview renders the preview page with HTTP 200 status.
func (r *Renderer) renderPreview(w http.ResponseWriter, data PreviewPageData) {
	var buf bytes.Buffer
	if err := previewPage.Execute(&buf, data); err != nil {
		r.logger.Error("template execution error", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation: JSON when
// the client accepts it, plain text otherwise.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var cErr *errors.CaptureError
	if !stderrors.As(err, &cErr) {
		cErr = errors.NewInternal(err)
	}

	status := cErr.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		r.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "code", cErr.Code, "err", err)
	}

	if wantsJSON(req) {
		errorObj := map[string]any{
			"code":    string(cErr.Code),
			"message": cErr.Message,
			"status":  status,
		}
		if cErr.Code != errors.ErrInternal && cErr.Details != nil {
			errorObj["details"] = cErr.Details
		}
		renderJSON(w, status, map[string]any{"error": errorObj})
		return
	}

	http.Error(w, cErr.Message, status)
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderText writes a plain text response.
func renderText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}
