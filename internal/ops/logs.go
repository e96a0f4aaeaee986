package ops

import "github.com/hpungsan/capture/internal/applog"

// LogsOutput is the rendered diagnostic log.
type LogsOutput struct {
	Count    int    `json:"count"`
	Capacity int    `json:"capacity"`
	Text     string `json:"text"`
}

// Logs renders every retained diagnostic log entry, oldest first.
func Logs(log *applog.Log) *LogsOutput {
	entries := log.Snapshot()
	return &LogsOutput{Count: len(entries), Capacity: log.Capacity(), Text: applog.Render(entries)}
}

// ClearLogs discards all diagnostic log entries.
func ClearLogs(log *applog.Log) {
	log.Clear()
}
