package mcp

import "github.com/mark3labs/mcp-go/mcp"

var saveToolDef = mcp.NewTool("capture_save",
	mcp.WithDescription("Save text, tags and local files into the configured capture folder. "+
		"Each file is copied as {timestamp}_{name}.{ext} and a Markdown note with YAML front matter "+
		"embeds them. Returns the files written, or an error kind such as NOT_CONFIGURED."),
	mcp.WithString("text",
		mcp.Description("Note body, written verbatim"),
	),
	mcp.WithArray("tags",
		mcp.Description("Tags for the note front matter; trimmed, lowercased and deduplicated"),
		mcp.WithStringItems(),
	),
	mcp.WithString("source",
		mcp.Description("Where the capture came from"),
		mcp.Enum("direct", "share", "text-selection"),
	),
	mcp.WithArray("attachments",
		mcp.Description("Local files to copy, in order"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":      map[string]any{"type": "string", "description": "File path or file:// URI"},
				"mime_type": map[string]any{"type": "string", "description": "Override the detected MIME type"},
				"name":      map[string]any{"type": "string", "description": "Override the display name used in the filename"},
			},
			"required": []string{"path"},
		}),
	),
)

var previewToolDef = mcp.NewTool("capture_preview",
	mcp.WithDescription("Render the note a save would write, without touching the capture folder."),
	mcp.WithString("text",
		mcp.Description("Note body"),
	),
	mcp.WithArray("tags",
		mcp.Description("Tags for the note front matter"),
		mcp.WithStringItems(),
	),
	mcp.WithString("source",
		mcp.Description("Where the capture came from"),
		mcp.Enum("direct", "share", "text-selection"),
	),
	mcp.WithArray("files",
		mcp.Description("Attachment filenames to list and embed"),
		mcp.WithStringItems(),
	),
	mcp.WithBoolean("html",
		mcp.Description("Also render the note as HTML"),
	),
)

var tagsToolDef = mcp.NewTool("capture_tags",
	mcp.WithDescription("List tags used in earlier captures, optionally filtered by prefix."),
	mcp.WithString("prefix",
		mcp.Description("Only return tags starting with this prefix"),
	),
	mcp.WithArray("exclude",
		mcp.Description("Tags already chosen, omitted from the result"),
		mcp.WithStringItems(),
	),
)

var locationToolDef = mcp.NewTool("capture_location",
	mcp.WithDescription("Show the capture folder, or set it when dir is given. "+
		"A new folder must exist and be writable."),
	mcp.WithString("dir",
		mcp.Description("Local directory to save captures into"),
	),
)

var logsToolDef = mcp.NewTool("capture_logs",
	mcp.WithDescription("Return the in-memory diagnostic log, oldest entry first."),
	mcp.WithBoolean("clear",
		mcp.Description("Clear the log after reading it"),
	),
)
