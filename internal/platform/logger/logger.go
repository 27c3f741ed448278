// Package logger provides structured logging for the game server.
// Every state change worth auditing (spawns, closes, catches, game over)
// should be traceable through this.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger provides structured logging with context.
type Logger struct {
	entry *logrus.Entry
}

// Options controls the underlying logrus instance.
type Options struct {
	Level  string    // "debug", "info", "warn", "error"
	Format string    // "text" or "json"
	Output io.Writer // defaults to os.Stdout
}

// NewLogger creates a new logger instance with text output at info level.
func NewLogger() *Logger {
	return New(Options{})
}

// New creates a logger from explicit options. Unknown levels fall back to info.
func New(opts Options) *Logger {
	base := logrus.New()
	if opts.Output != nil {
		base.SetOutput(opts.Output)
	} else {
		base.SetOutput(os.Stdout)
	}

	if strings.EqualFold(opts.Format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	return &Logger{entry: logrus.NewEntry(base)}
}

// Discard returns a logger that drops everything. Used by tests and the
// headless simulator.
func Discard() *Logger {
	return New(Options{Output: io.Discard, Level: "panic"})
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// Debug logs diagnostic messages.
func (l *Logger) Debug(msg string) {
	l.entry.Debug(msg)
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.entry.Info(msg)
}

// Infof logs a formatted informational message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.entry.Warn(msg)
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.entry.Error(msg)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Event logs a specific simulation event at debug level; events fire many
// times per second during play.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.entry.WithFields(logrus.Fields{
		"event": eventType,
		"actor": actorID,
	}).Debug(details)
}
