// Package logging provides a small leveled logger with optional JSON output
// and per-component fields.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents log level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return DEBUG
	case "warn", "WARN":
		return WARN
	case "error", "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger writes leveled, optionally JSON-formatted log lines
type Logger struct {
	mu         sync.Mutex
	level      Level
	jsonFormat bool
	output     io.Writer
	component  string
	fields     map[string]interface{}
}

// New creates a logger writing to stdout
func New(level Level, jsonFormat bool) *Logger {
	return &Logger{
		level:      level,
		jsonFormat: jsonFormat,
		output:     os.Stdout,
		fields:     make(map[string]interface{}),
	}
}

// WithComponent returns a copy of the logger tagged with a component name
func (l *Logger) WithComponent(name string) *Logger {
	clone := l.clone()
	clone.component = name
	return clone
}

// WithField returns a copy of the logger carrying an extra field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	clone := l.clone()
	clone.fields[key] = value
	return clone
}

func (l *Logger) clone() *Logger {
	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{
		level:      l.level,
		jsonFormat: l.jsonFormat,
		output:     l.output,
		component:  l.component,
		fields:     fields,
	}
}

// SetOutput redirects log output; used by tests
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.jsonFormat {
		entry := map[string]interface{}{
			"time":    now.Format(time.RFC3339),
			"level":   level.String(),
			"message": msg,
		}
		if l.component != "" {
			entry["component"] = l.component
		}
		for k, v := range l.fields {
			entry[k] = v
		}
		data, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(l.output, "%s [%s] %s\n", now.Format(time.RFC3339), level, msg)
			return
		}
		fmt.Fprintln(l.output, string(data))
		return
	}

	prefix := ""
	if l.component != "" {
		prefix = "[" + l.component + "] "
	}
	suffix := ""
	for k, v := range l.fields {
		suffix += fmt.Sprintf(" %s=%v", k, v)
	}
	fmt.Fprintf(l.output, "%s [%s] %s%s%s\n", now.Format(time.RFC3339), level, prefix, msg, suffix)
}

// Debug logs at DEBUG level
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info logs at INFO level
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs at WARN level
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs at ERROR level
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}
