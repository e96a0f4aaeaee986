package web

import (
	"context"
	stderrors "errors"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/hpungsan/capture/internal/applog"
	"github.com/hpungsan/capture/internal/capture"
	"github.com/hpungsan/capture/internal/config"
	"github.com/hpungsan/capture/internal/content"
	"github.com/hpungsan/capture/internal/errors"
	"github.com/hpungsan/capture/internal/ops"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in memory
// before spilling to temporary files.
const multipartMemory = 8 << 20

// PrefStore is the preference store the handlers read and write.
type PrefStore interface {
	ops.LocationStore
	ops.TagStore
}

// Deps are the collaborators shared by every handler. Inline must be the
// inline provider the pipeline reads uploads from.
type Deps struct {
	Pipeline *ops.Pipeline
	Prefs    PrefStore
	Resolver ops.RootResolver
	Inline   *content.Inline
	Log      *applog.Log
}

// Handlers contains HTTP route handlers.
type Handlers struct {
	deps     Deps
	cfg      *config.Config
	renderer *Renderer
}

// HandleSave handles POST /captures: a multipart form with text, tags,
// source and any number of "file" parts.
func (h *Handlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.cfg.MaxUploadBytes()
	if r.ContentLength > maxBytes {
		h.renderer.renderError(w, r, errors.NewFileTooLarge(maxBytes, r.ContentLength))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.renderer.renderError(w, r, errors.NewFileTooLarge(maxBytes, r.ContentLength))
			return
		}
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid multipart form: "+err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	var locators []string
	release := func() {
		for _, l := range locators {
			h.deps.Inline.Release(l)
		}
	}

	attachments := make([]capture.Attachment, 0, len(r.MultipartForm.File["file"]))
	for _, fh := range r.MultipartForm.File["file"] {
		a, err := h.stage(fh)
		if err != nil {
			release()
			h.renderer.renderError(w, r, errors.NewInvalidRequest("failed to read upload "+fh.Filename+": "+err.Error()))
			return
		}
		locators = append(locators, a.Locator)
		attachments = append(attachments, a)
	}

	c, err := ops.BuildCapture(ops.CaptureInput{
		Text:        r.FormValue("text"),
		Tags:        formTags(r),
		Source:      r.FormValue("source"),
		Attachments: attachments,
	})
	if err != nil {
		release()
		h.renderer.renderError(w, r, err)
		return
	}

	// The save outlives a disconnected client; uploads are released once it finishes.
	done := h.deps.Pipeline.SaveAsync(context.WithoutCancel(r.Context()), c)
	select {
	case result := <-done:
		release()
		if !result.OK {
			h.renderer.renderError(w, r, result.Err())
			return
		}
		renderJSON(w, http.StatusCreated, result)
	case <-r.Context().Done():
		go func() {
			<-done
			release()
		}()
	}
}

// stage copies one uploaded part into the inline provider.
func (h *Handlers) stage(fh *multipart.FileHeader) (capture.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return capture.Attachment{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return capture.Attachment{}, err
	}

	mimeType := capture.OptionalString(fh.Header.Get("Content-Type"))
	if mimeType.OrElse("") == "application/octet-stream" {
		mimeType = capture.None[string]()
	}

	base := filepath.Base(fh.Filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return capture.Attachment{
		Locator:     h.deps.Inline.Put(data, mimeType),
		MimeType:    mimeType,
		DisplayName: capture.OptionalString(name),
	}, nil
}

// HandlePreview handles POST /preview: renders the note a save would write as
// an HTML page, or as JSON when the client asks for it.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form: "+err.Error()))
		return
	}

	c, err := ops.BuildCapture(ops.CaptureInput{
		Text:   r.FormValue("text"),
		Tags:   formTags(r),
		Source: r.FormValue("source"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	files := r.Form["files"]
	if files == nil {
		files = []string{}
	}

	result, err := ops.Preview(ops.PreviewInput{Capture: c, Files: files, HTML: true})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPreview(w, PreviewPageData{
		Title: result.NoteName,
		Body:  template.HTML(result.HTML),
	})
}

// HandleTags handles GET /tags, optionally filtered by ?prefix=.
func (h *Handlers) HandleTags(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Tags(r.Context(), h.deps.Prefs)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		result.Tags = ops.SuggestTags(result.Tags, nil, capture.Normalize(prefix))
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleLocation handles GET /location.
func (h *Handlers) HandleLocation(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Location(r.Context(), h.deps.Prefs)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleSetLocation handles PUT /location with a "dir" form value.
func (h *Handlers) HandleSetLocation(w http.ResponseWriter, r *http.Request) {
	result, err := ops.SetLocation(r.Context(), h.deps.Prefs, h.deps.Resolver, h.deps.Log, ops.SetLocationInput{
		Dir: r.FormValue("dir"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleLogs handles GET /logs: plain text, or JSON when requested.
func (h *Handlers) HandleLogs(w http.ResponseWriter, r *http.Request) {
	result := ops.Logs(h.deps.Log)
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	renderText(w, http.StatusOK, result.Text)
}

// HandleClearLogs handles DELETE /logs.
func (h *Handlers) HandleClearLogs(w http.ResponseWriter, r *http.Request) {
	ops.ClearLogs(h.deps.Log)
	w.WriteHeader(http.StatusNoContent)
}

// formTags collects tags from repeated "tags" fields, each of which may be
// comma separated.
func formTags(r *http.Request) []string {
	var tags []string
	for _, v := range r.Form["tags"] {
		tags = append(tags, strings.Split(v, ",")...)
	}
	return tags
}
