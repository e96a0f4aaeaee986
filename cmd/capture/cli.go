package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/capture/internal/capture"
	"github.com/hpungsan/capture/internal/content"
	"github.com/hpungsan/capture/internal/errors"
	"github.com/hpungsan/capture/internal/mcp"
	"github.com/hpungsan/capture/internal/ops"
	"github.com/hpungsan/capture/internal/web"
)

// newCLIApp creates the CLI application with all commands.
// rt may be nil when only help or version output is needed.
func newCLIApp(rt *runtime) *cli.App {
	app := &cli.App{
		Name:    "capture",
		Usage:   "Save notes and files into a folder of your choice",
		Version: Version,
		Commands: []*cli.Command{
			saveCmd(rt),
			previewCmd(),
			locationCmd(rt),
			tagsCmd(rt),
			serveCmd(rt),
			mcpCmd(rt),
		},
		// Paths may contain commas; tags are split by parseTags instead.
		DisableSliceFlagSeparator: true,
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// captureFlags are shared by save and preview.
func captureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Note text (default: read from stdin when piped)"},
		&cli.StringSliceFlag{Name: "tag", Usage: "Tag, repeatable or comma-separated"},
		&cli.StringSliceFlag{Name: "attach", Aliases: []string{"a"}, Usage: "File to attach, repeatable"},
		&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Value: "direct", Usage: "Source: direct|share|text-selection"},
	}
}

// saveCmd creates the save command.
func saveCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Save text and attachments into the capture folder",
		Flags: append(captureFlags(),
			&cli.BoolFlag{Name: "log", Usage: "Print the diagnostic log to stderr afterwards"},
		),
		Action: func(c *cli.Context) error {
			text, err := readText(c)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			attachments := make([]capture.Attachment, 0, len(c.StringSlice("attach")))
			for _, path := range c.StringSlice("attach") {
				attachments = append(attachments, rt.files.Attachment(path))
			}

			in, err := ops.BuildCapture(ops.CaptureInput{
				Text:        text,
				Tags:        collectTags(c.StringSlice("tag")),
				Source:      c.String("source"),
				Attachments: attachments,
			})
			if err != nil {
				return outputError(err)
			}

			result := rt.pipeline.Save(c.Context, in)

			if c.Bool("log") {
				fmt.Fprintln(c.App.ErrWriter, rt.log.RenderAll())
			}
			if !result.OK {
				return outputError(result.Err())
			}
			return outputJSON(c, result)
		},
	}
}

// previewCmd creates the preview command. It needs no storage.
func previewCmd() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Print the note a save would write, without writing anything",
		Flags: append(captureFlags(),
			&cli.BoolFlag{Name: "html", Usage: "Render the note as HTML"},
		),
		Action: func(c *cli.Context) error {
			text, err := readText(c)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			attachments := make([]capture.Attachment, 0, len(c.StringSlice("attach")))
			for _, path := range c.StringSlice("attach") {
				attachments = append(attachments, previewAttachment(path))
			}

			in, err := ops.BuildCapture(ops.CaptureInput{
				Text:        text,
				Tags:        collectTags(c.StringSlice("tag")),
				Source:      c.String("source"),
				Attachments: attachments,
			})
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Preview(ops.PreviewInput{Capture: in, HTML: c.Bool("html")})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("html") {
				_, err = io.WriteString(c.App.Writer, output.HTML)
			} else {
				_, err = io.WriteString(c.App.Writer, output.Markdown)
			}
			return err
		},
	}
}

// locationCmd creates the location command with set and show subcommands.
func locationCmd(rt *runtime) *cli.Command {
	show := func(c *cli.Context) error {
		output, err := ops.Location(c.Context, rt.prefs)
		if err != nil {
			return outputError(err)
		}
		return outputJSON(c, output)
	}

	return &cli.Command{
		Name:   "location",
		Usage:  "Show or set the capture folder",
		Action: show,
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the capture folder",
				Action: show,
			},
			{
				Name:      "set",
				Usage:     "Choose the capture folder (must exist and be writable)",
				ArgsUsage: "<dir>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(errors.NewInvalidRequest("exactly one directory is required"))
					}
					output, err := ops.SetLocation(c.Context, rt.prefs, rt.resolver, rt.log, ops.SetLocationInput{
						Dir: c.Args().First(),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
		},
	}
}

// tagsCmd creates the tags command.
func tagsCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "List tags used in earlier captures",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prefix", Aliases: []string{"p"}, Usage: "Only tags starting with this prefix"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Tags(c.Context, rt.prefs)
			if err != nil {
				return outputError(err)
			}
			if prefix := c.String("prefix"); prefix != "" {
				output.Tags = ops.SuggestTags(output.Tags, nil, capture.Normalize(prefix))
			}
			return outputJSON(c, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local HTTP capture endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Interface to listen on (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (default from config)"},
		},
		Action: func(c *cli.Context) error {
			cfg := *rt.cfg
			if c.IsSet("bind") {
				cfg.WebBind = c.String("bind")
			}
			if c.IsSet("port") {
				cfg.WebPort = c.Int("port")
			}
			if cfg.WebPort <= 0 || cfg.WebPort > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port %d", cfg.WebPort)))
			}

			srv := web.NewServer(rt.webDeps(), &cfg, rt.sink.Logger())
			return web.Run(srv, rt.sink.Logger())
		},
	}
}

// mcpCmd creates the mcp command, equivalent to running with piped stdin and no arguments.
func mcpCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server over stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(rt.mcpDeps(), rt.cfg, Version)
		},
	}
}

// Helper functions

// outputJSON marshals result to the app's stdout as JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var cErr *errors.CaptureError
	if stderrors.As(err, &cErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// readText returns --text, or stdin when it is piped and --text is absent.
func readText(c *cli.Context) (string, error) {
	if c.IsSet("text") {
		return c.String("text"), nil
	}
	if f, ok := c.App.Reader.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// previewAttachment describes a local file the way a save would.
func previewAttachment(path string) capture.Attachment {
	return content.NewFiles(afero.NewOsFs()).Attachment(path)
}

// collectTags splits every value on commas.
func collectTags(values []string) []string {
	var tags []string
	for _, v := range values {
		tags = append(tags, parseTags(v)...)
	}
	return tags
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
