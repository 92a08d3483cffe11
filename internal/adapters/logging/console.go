// Package logging provides logger adapters for the ports.Logger
// interface.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/stagehand-dev/stagehand/internal/ports"
)

// ConsoleLogger logs structured messages to the console.
type ConsoleLogger struct {
	mu          sync.Mutex
	out         io.Writer
	level       ports.Level
	fields      []ports.Field
	jsonFormat  bool
	includeTime bool
}

// ConsoleLoggerOption configures the console logger.
type ConsoleLoggerOption func(*ConsoleLogger)

// WithOutput sets the output writer (default: os.Stderr).
func WithOutput(w io.Writer) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.out = w
	}
}

// WithLevel sets the minimum log level (default: Info).
func WithLevel(level ports.Level) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.level = level
	}
}

// WithJSONFormat enables JSON output format.
func WithJSONFormat(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.jsonFormat = enabled
	}
}

// WithTimestamp includes timestamps in log entries.
func WithTimestamp(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.includeTime = enabled
	}
}

// NewConsoleLogger creates a new console logger.
func NewConsoleLogger(opts ...ConsoleLoggerOption) *ConsoleLogger {
	l := &ConsoleLogger{
		out:         os.Stderr,
		level:       ports.LevelInfo,
		includeTime: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Debug logs a debug message.
func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelDebug, msg, fields)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelInfo, msg, fields)
}

// Warn logs a warning message.
func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelWarn, msg, fields)
}

// Error logs an error message.
func (l *ConsoleLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelError, msg, fields)
}

// With returns a new logger that includes the given fields in every
// entry.
func (l *ConsoleLogger) With(fields ...ports.Field) ports.Logger {
	newFields := make([]ports.Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	return &ConsoleLogger{
		out:         l.out,
		level:       l.level,
		fields:      newFields,
		jsonFormat:  l.jsonFormat,
		includeTime: l.includeTime,
	}
}

func (l *ConsoleLogger) log(_ context.Context, level ports.Level, msg string, fields []ports.Field) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	allFields := make([]ports.Field, len(l.fields)+len(fields))
	copy(allFields, l.fields)
	copy(allFields[len(l.fields):], fields)

	if l.jsonFormat {
		l.writeJSON(level, msg, allFields)
		return
	}
	l.writeText(level, msg, allFields)
}

func (l *ConsoleLogger) writeJSON(level ports.Level, msg string, fields []ports.Field) {
	entry := make(map[string]interface{}, len(fields)+3)
	if l.includeTime {
		entry["time"] = time.Now().UTC().Format(time.RFC3339)
	}
	entry["level"] = level.String()
	entry["msg"] = msg
	for _, f := range fields {
		entry[f.Key] = f.Value
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(l.out, string(data))
}

func (l *ConsoleLogger) writeText(level ports.Level, msg string, fields []ports.Field) {
	var b strings.Builder
	if l.includeTime {
		b.WriteString(time.Now().Format("15:04:05"))
		b.WriteByte(' ')
	}
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	_, _ = fmt.Fprintln(l.out, b.String())
}

// Ensure ConsoleLogger implements ports.Logger.
var _ ports.Logger = (*ConsoleLogger)(nil)
