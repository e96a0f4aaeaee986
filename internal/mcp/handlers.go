package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/capture/internal/applog"
	"github.com/hpungsan/capture/internal/capture"
	"github.com/hpungsan/capture/internal/content"
	"github.com/hpungsan/capture/internal/errors"
	"github.com/hpungsan/capture/internal/ops"
)

// PrefStore is the preference store the tools read and write.
type PrefStore interface {
	ops.LocationStore
	ops.TagStore
}

// Deps are the collaborators shared by every tool.
type Deps struct {
	Pipeline *ops.Pipeline
	Prefs    PrefStore
	Resolver ops.RootResolver
	Files    *content.Files
	Log      *applog.Log
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	deps Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{deps: deps}
}

// AttachmentRequest is one local file to copy.
type AttachmentRequest struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type,omitempty"`
	Name     string `json:"name,omitempty"`
}

// SaveRequest represents the arguments for capture_save.
type SaveRequest struct {
	Text        string              `json:"text,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Source      string              `json:"source,omitempty"`
	Attachments []AttachmentRequest `json:"attachments,omitempty"`
}

// PreviewRequest represents the arguments for capture_preview.
type PreviewRequest struct {
	Text   string   `json:"text,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Source string   `json:"source,omitempty"`
	Files  []string `json:"files,omitempty"`
	HTML   bool     `json:"html,omitempty"`
}

// TagsRequest represents the arguments for capture_tags.
type TagsRequest struct {
	Prefix  string   `json:"prefix,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// LocationRequest represents the arguments for capture_location.
type LocationRequest struct {
	Dir string `json:"dir,omitempty"`
}

// LogsRequest represents the arguments for capture_logs.
type LogsRequest struct {
	Clear bool `json:"clear,omitempty"`
}

// HandleSave handles the capture_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	attachments := make([]capture.Attachment, 0, len(input.Attachments))
	for _, a := range input.Attachments {
		if a.Path == "" {
			return errorResult(errors.NewInvalidRequest("attachment path is required")), nil
		}
		att := h.deps.Files.Attachment(a.Path)
		if a.MimeType != "" {
			att.MimeType = capture.Some(a.MimeType)
		}
		if a.Name != "" {
			att.DisplayName = capture.Some(a.Name)
		}
		attachments = append(attachments, att)
	}

	c, err := ops.BuildCapture(ops.CaptureInput{
		Text:        input.Text,
		Tags:        input.Tags,
		Source:      input.Source,
		Attachments: attachments,
	})
	if err != nil {
		return errorResult(err), nil
	}

	result := h.deps.Pipeline.Save(ctx, c)
	if !result.OK {
		return errorResult(result.Err()), nil
	}
	return successResult(result)
}

// HandlePreview handles the capture_preview tool call.
func (h *Handlers) HandlePreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PreviewRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	c, err := ops.BuildCapture(ops.CaptureInput{
		Text:   input.Text,
		Tags:   input.Tags,
		Source: input.Source,
	})
	if err != nil {
		return errorResult(err), nil
	}

	files := input.Files
	if files == nil {
		files = []string{}
	}

	result, err := ops.Preview(ops.PreviewInput{Capture: c, Files: files, HTML: input.HTML})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTags handles the capture_tags tool call.
func (h *Handlers) HandleTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Tags(ctx, h.deps.Prefs)
	if err != nil {
		return errorResult(err), nil
	}

	if input.Prefix != "" || len(input.Exclude) > 0 {
		prefix := capture.Normalize(input.Prefix)
		result.Tags = ops.SuggestTags(result.Tags, capture.NormalizeTags(input.Exclude), prefix)
	}
	return successResult(result)
}

// HandleLocation handles the capture_location tool call.
func (h *Handlers) HandleLocation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LocationRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var result *ops.LocationOutput
	if input.Dir != "" {
		result, err = ops.SetLocation(ctx, h.deps.Prefs, h.deps.Resolver, h.deps.Log, ops.SetLocationInput{Dir: input.Dir})
	} else {
		result, err = ops.Location(ctx, h.deps.Prefs)
	}
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleLogs handles the capture_logs tool call.
func (h *Handlers) HandleLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LogsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result := ops.Logs(h.deps.Log)
	if input.Clear {
		ops.ClearLogs(h.deps.Log)
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var cErr *errors.CaptureError
	if stderrors.As(err, &cErr) {
		errorObj := map[string]any{
			"code":    cErr.Code,
			"message": cErr.Message,
			"status":  cErr.Status,
		}
		if cErr.Code != errors.ErrInternal && cErr.Details != nil {
			errorObj["details"] = cErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	body, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(body)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
