// Package logging provides the structured logger used across deployctl.
package logging

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Logger is the structured logging interface shared by all components.
type Logger interface {
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
}

// JSONLogger writes structured JSON log entries to an io.Writer, one per line.
type JSONLogger struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

// NewJSONLogger creates a JSONLogger writing to w. Debug entries are only
// emitted when verbose is true.
func NewJSONLogger(w io.Writer, verbose bool) *JSONLogger {
	return &JSONLogger{w: w, verbose: verbose}
}

func (l *JSONLogger) Info(msg string, fields map[string]any)  { l.log("info", msg, fields) }
func (l *JSONLogger) Warn(msg string, fields map[string]any)  { l.log("warn", msg, fields) }
func (l *JSONLogger) Error(msg string, fields map[string]any) { l.log("error", msg, fields) }

func (l *JSONLogger) Debug(msg string, fields map[string]any) {
	if !l.verbose {
		return
	}
	l.log("debug", msg, fields)
}

func (l *JSONLogger) log(level, msg string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+3)
	entry["time"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = level
	entry["msg"] = msg
	for k, v := range fields {
		entry[k] = v
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	data, _ := json.Marshal(entry)
	data = append(data, '\n')
	l.w.Write(data) //nolint:errcheck
}

// Tagged wraps l so that base is merged into the fields of every entry.
// deployctl uses it to stamp the run identity (run_id, service, environment)
// on each line a pipeline run emits.
func Tagged(l Logger, base map[string]any) Logger {
	if len(base) == 0 {
		return l
	}
	return &taggedLogger{next: l, base: base}
}

type taggedLogger struct {
	next Logger
	base map[string]any
}

func (t *taggedLogger) merge(fields map[string]any) map[string]any {
	merged := make(map[string]any, len(t.base)+len(fields))
	for k, v := range t.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

func (t *taggedLogger) Info(msg string, fields map[string]any)  { t.next.Info(msg, t.merge(fields)) }
func (t *taggedLogger) Warn(msg string, fields map[string]any)  { t.next.Warn(msg, t.merge(fields)) }
func (t *taggedLogger) Error(msg string, fields map[string]any) { t.next.Error(msg, t.merge(fields)) }
func (t *taggedLogger) Debug(msg string, fields map[string]any) { t.next.Debug(msg, t.merge(fields)) }

// Nop returns a logger that discards everything. Handy in tests.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Info(string, map[string]any)  {}
func (nopLogger) Warn(string, map[string]any)  {}
func (nopLogger) Error(string, map[string]any) {}
func (nopLogger) Debug(string, map[string]any) {}
