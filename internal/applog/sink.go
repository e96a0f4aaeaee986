package applog

import (
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SinkOptions configures the external log sink.
type SinkOptions struct {
	// File is a log file path; empty writes to stderr
	File string

	// Level is the minimum forwarded level: "debug", "info" or "error"
	Level string

	// MaxSizeMB is the size at which File is rotated
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept
	MaxBackups int
}

// CharmSink forwards entries to a charmbracelet logger. Each entry is logged
// with the prefix "capture/<tag>".
type CharmSink struct {
	logger *charmlog.Logger
	closer io.Closer
}

// NewCharmSink builds a sink writing to stderr or to a rotating file.
func NewCharmSink(opts SinkOptions) *CharmSink {
	var w io.Writer = os.Stderr
	var closer io.Closer
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		w = lj
		closer = lj
	}

	logger := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "capture",
		Level:           parseLevel(opts.Level),
	})
	if opts.File != "" {
		logger.SetFormatter(charmlog.LogfmtFormatter)
	}

	return &CharmSink{logger: logger, closer: closer}
}

// NewCharmSinkWriter builds a sink around an existing writer.
func NewCharmSinkWriter(w io.Writer, level string) *CharmSink {
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		Prefix: "capture",
		Level:  parseLevel(level),
	})
	return &CharmSink{logger: logger}
}

// Logger exposes the underlying logger for process-level messages.
func (s *CharmSink) Logger() *charmlog.Logger {
	return s.logger
}

// Write implements Sink.
func (s *CharmSink) Write(e Entry) error {
	l := s.logger.WithPrefix("capture/" + e.Tag)
	var kv []any
	if e.Err != nil {
		kv = append(kv, "err", e.Err)
	}
	switch e.Level {
	case LevelDebug:
		l.Debug(e.Message, kv...)
	case LevelInfo:
		l.Info(e.Message, kv...)
	default:
		l.Error(e.Message, kv...)
	}
	return nil
}

// Close releases the rotating file, if any.
func (s *CharmSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func parseLevel(s string) charmlog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return charmlog.DebugLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}
