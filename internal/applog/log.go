package applog

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is the number of entries kept when no capacity is configured.
const DefaultCapacity = 500

// Level is the severity of an entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Entry is one immutable log record.
type Entry struct {
	Time    time.Time
	Level   Level
	Tag     string
	Message string
	Err     error
}

// Format renders the entry as "HH:MM:SS.mmm  LEVEL  [tag]  message", followed by
// an indented line with the error category and description when Err is set.
func (e Entry) Format() string {
	var b strings.Builder
	b.WriteString(e.Time.Format("15:04:05.000"))
	b.WriteString("  ")
	fmt.Fprintf(&b, "%-5s", e.Level.String())
	b.WriteString("  [")
	b.WriteString(e.Tag)
	b.WriteString("]  ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString("\n    ")
		b.WriteString(ErrorCategory(e.Err))
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// ErrorCategory names the concrete type of err, e.g. "PathError".
func ErrorCategory(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

// Sink receives every recorded entry. Implementations must not block for long;
// failures are ignored.
type Sink interface {
	Write(e Entry) error
}

// Log is a bounded, append-only ring of entries safe for concurrent use.
// When full, the oldest entry is evicted.
type Log struct {
	mu       sync.Mutex
	buf      []Entry
	start    int
	count    int
	sink     Sink
	now      func() time.Time
	capacity int
}

// Option configures a Log.
type Option func(*Log)

// WithSink forwards every entry to s.
func WithSink(s Sink) Option {
	return func(l *Log) { l.sink = s }
}

// WithClock overrides the entry timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// New creates a Log holding at most capacity entries.
// A non-positive capacity uses DefaultCapacity.
func New(capacity int, opts ...Option) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Log{
		buf:      make([]Entry, capacity),
		capacity: capacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Capacity returns the maximum number of retained entries.
func (l *Log) Capacity() int {
	return l.capacity
}

// Record appends an entry and forwards it to the sink.
func (l *Log) Record(level Level, tag, message string, err error) {
	e := Entry{
		Time:    l.now(),
		Level:   level,
		Tag:     tag,
		Message: message,
		Err:     err,
	}

	l.mu.Lock()
	idx := (l.start + l.count) % l.capacity
	l.buf[idx] = e
	if l.count < l.capacity {
		l.count++
	} else {
		l.start = (l.start + 1) % l.capacity
	}
	l.mu.Unlock()

	l.forward(e)
}

func (l *Log) forward(e Entry) {
	if l.sink == nil {
		return
	}
	defer func() { _ = recover() }()
	_ = l.sink.Write(e)
}

// Debug records a debug entry.
func (l *Log) Debug(tag, format string, args ...any) {
	l.Record(LevelDebug, tag, fmt.Sprintf(format, args...), nil)
}

// Info records an info entry.
func (l *Log) Info(tag, format string, args ...any) {
	l.Record(LevelInfo, tag, fmt.Sprintf(format, args...), nil)
}

// Error records an error entry with an optional cause.
func (l *Log) Error(tag string, err error, format string, args ...any) {
	l.Record(LevelError, tag, fmt.Sprintf(format, args...), err)
}

// Snapshot returns a copy of the current entries, oldest first.
func (l *Log) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, l.count)
	for i := 0; i < l.count; i++ {
		out[i] = l.buf[(l.start+i)%l.capacity]
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Clear discards all entries.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	clear(l.buf)
	l.start = 0
	l.count = 0
}

// RenderAll formats every current entry, one per line, oldest first.
func (l *Log) RenderAll() string {
	return Render(l.Snapshot())
}

// Render formats entries one per line in the order given.
func Render(entries []Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Format()
	}
	return strings.Join(lines, "\n")
}
