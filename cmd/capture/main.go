package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/hpungsan/capture/internal/applog"
	"github.com/hpungsan/capture/internal/config"
	"github.com/hpungsan/capture/internal/content"
	"github.com/hpungsan/capture/internal/db"
	"github.com/hpungsan/capture/internal/mcp"
	"github.com/hpungsan/capture/internal/ops"
	"github.com/hpungsan/capture/internal/storage"
	"github.com/hpungsan/capture/internal/web"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"save": true, "preview": true, "location": true, "tags": true,
	"serve": true, "mcp": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___ __ _ _ __ | |_ _   _ _ __ ___
  / __/ _' | '_ \| __| | | | '__/ _ \
 | (_| (_| | |_) | |_| |_| | | |  __/
  \___\__,_| .__/ \__|\__,_|_|  \___|
           |_|

  Save notes and files into a folder of your choice

  Usage: capture <command> [options]
         capture --help

  MCP server mode requires piped input.`)
}

// runtime holds the long-lived collaborators shared by every surface.
type runtime struct {
	cfg      *config.Config
	prefs    *db.Prefs
	resolver *storage.Resolver
	files    *content.Files
	inline   *content.Inline
	log      *applog.Log
	sink     *applog.CharmSink
	pipeline *ops.Pipeline
}

func newRuntime(database *sql.DB, cfg *config.Config, sink *applog.CharmSink) *runtime {
	fs := afero.NewOsFs()
	rt := &runtime{
		cfg:      cfg,
		prefs:    db.NewPrefs(database),
		resolver: storage.NewResolver(fs),
		files:    content.NewFiles(fs),
		inline:   content.NewInline(),
		sink:     sink,
	}
	rt.log = applog.New(cfg.LogCapacity, applog.WithSink(sink))
	provider := &content.Mux{Inline: rt.inline, Fallback: rt.files}
	rt.pipeline = ops.NewPipeline(rt.prefs, rt.resolver, provider, rt.log)
	return rt
}

func (rt *runtime) mcpDeps() mcp.Deps {
	return mcp.Deps{
		Pipeline: rt.pipeline,
		Prefs:    rt.prefs,
		Resolver: rt.resolver,
		Files:    rt.files,
		Log:      rt.log,
	}
}

func (rt *runtime) webDeps() web.Deps {
	return web.Deps{
		Pipeline: rt.pipeline,
		Prefs:    rt.prefs,
		Resolver: rt.resolver,
		Inline:   rt.inline,
		Log:      rt.log,
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	// A missing .env is fine; it only supplies CAPTURE_HOME and friends.
	_ = godotenv.Load()

	baseDir, err := config.Home()
	if err != nil {
		fail("could not determine home directory: %v", err)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fail("failed to initialize database: %v", err)
	}
	defer database.Close()

	wd, err := os.Getwd()
	if err != nil {
		fail("could not determine working directory: %v", err)
	}
	cfg, err := config.LoadWithRepo(baseDir, wd)
	if err != nil {
		fail("failed to load config: %v", err)
	}
	db.ConfigurePool(database, cfg)

	sink := applog.NewCharmSink(applog.SinkOptions{
		File:       cfg.ResolveLogFile(baseDir),
		Level:      cfg.LogLevel,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	defer sink.Close()

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		sink.Logger().Warn("unknown tools in disabled_tools", "tools", unknown)
	}

	rt := newRuntime(database, cfg, sink)

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(rt)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'capture --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(rt.mcpDeps(), cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
