// Package logging builds the structured loggers used across the backend.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func New(w io.Writer, level, format string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Formatter:       parseFormatter(format),
	})
}

// FromEnv reads NEXUSVC_LOG_LEVEL and NEXUSVC_LOG_FORMAT and logs to stderr.
func FromEnv() *log.Logger {
	return New(os.Stderr, os.Getenv("NEXUSVC_LOG_LEVEL"), os.Getenv("NEXUSVC_LOG_FORMAT"))
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// ParseLevel maps a level name to a log.Level.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func parseFormatter(s string) log.Formatter {
	switch strings.ToLower(s) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// Op logs the start of an operation and returns a function that logs its
// completion with the elapsed time.
//
//	done := logging.Op(logger, "push", "branch", name)
//	defer done(err)
func Op(logger *log.Logger, op string, keyvals ...any) func(error) {
	start := time.Now()
	logger.Debug(op+" started", keyvals...)
	return func(err error) {
		kv := append([]any{"elapsed", time.Since(start).Round(time.Millisecond)}, keyvals...)
		if err != nil {
			logger.Warn(op+" failed", append(kv, "err", err)...)
			return
		}
		logger.Debug(op+" done", kv...)
	}
}
