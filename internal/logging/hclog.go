// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package logging

import (
	"context"
	"io"
	"log"
	"log/slog"

	"github.com/hashicorp/go-hclog"
)

// HCLogAdapter adapts an slog.Logger to hclog.Logger so go-plugin's own
// logging lands in the host log stream.
type HCLogAdapter struct {
	logger  *slog.Logger
	name    string
	implied []any
}

// NewHCLogAdapter wraps logger. A nil logger means slog.Default().
func NewHCLogAdapter(logger *slog.Logger, name string) hclog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &HCLogAdapter{logger: logger.With("logger", name), name: name}
}

func toSlogLevel(level hclog.Level) slog.Level {
	switch level {
	case hclog.Trace, hclog.Debug:
		return slog.LevelDebug
	case hclog.Info:
		return slog.LevelInfo
	case hclog.Warn:
		return slog.LevelWarn
	case hclog.Error:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Log implements hclog.Logger.
func (h *HCLogAdapter) Log(level hclog.Level, msg string, args ...any) {
	if level == hclog.Off || level == hclog.NoLevel {
		return
	}
	h.logger.Log(context.Background(), toSlogLevel(level), msg, args...)
}

// Trace logs at debug level; slog has no trace level.
func (h *HCLogAdapter) Trace(msg string, args ...any) { h.Log(hclog.Trace, msg, args...) }

// Debug logs at debug level.
func (h *HCLogAdapter) Debug(msg string, args ...any) { h.Log(hclog.Debug, msg, args...) }

// Info logs at info level.
func (h *HCLogAdapter) Info(msg string, args ...any) { h.Log(hclog.Info, msg, args...) }

// Warn logs at warn level.
func (h *HCLogAdapter) Warn(msg string, args ...any) { h.Log(hclog.Warn, msg, args...) }

// Error logs at error level.
func (h *HCLogAdapter) Error(msg string, args ...any) { h.Log(hclog.Error, msg, args...) }

func (h *HCLogAdapter) enabled(level hclog.Level) bool {
	return h.logger.Enabled(context.Background(), toSlogLevel(level))
}

// IsTrace reports whether debug logging is enabled.
func (h *HCLogAdapter) IsTrace() bool { return h.enabled(hclog.Trace) }

// IsDebug reports whether debug logging is enabled.
func (h *HCLogAdapter) IsDebug() bool { return h.enabled(hclog.Debug) }

// IsInfo reports whether info logging is enabled.
func (h *HCLogAdapter) IsInfo() bool { return h.enabled(hclog.Info) }

// IsWarn reports whether warn logging is enabled.
func (h *HCLogAdapter) IsWarn() bool { return h.enabled(hclog.Warn) }

// IsError reports whether error logging is enabled.
func (h *HCLogAdapter) IsError() bool { return h.enabled(hclog.Error) }

// ImpliedArgs returns the key/value pairs added with With.
func (h *HCLogAdapter) ImpliedArgs() []any { return h.implied }

// With returns a logger that adds args to every record.
func (h *HCLogAdapter) With(args ...any) hclog.Logger {
	return &HCLogAdapter{
		logger:  h.logger.With(args...),
		name:    h.name,
		implied: append(append([]any(nil), h.implied...), args...),
	}
}

// Name returns the logger name.
func (h *HCLogAdapter) Name() string { return h.name }

// Named returns a sub-logger named name under this one.
func (h *HCLogAdapter) Named(name string) hclog.Logger {
	full := name
	if h.name != "" {
		full = h.name + "." + name
	}
	return &HCLogAdapter{logger: h.logger.With("logger", full), name: full, implied: h.implied}
}

// ResetNamed returns a logger named name, dropping parent names.
func (h *HCLogAdapter) ResetNamed(name string) hclog.Logger {
	return &HCLogAdapter{logger: h.logger.With("logger", name), name: name, implied: h.implied}
}

// SetLevel is a no-op; the slog handler owns the level.
func (h *HCLogAdapter) SetLevel(hclog.Level) {}

// GetLevel derives the level from the slog handler.
func (h *HCLogAdapter) GetLevel() hclog.Level {
	for _, l := range []hclog.Level{hclog.Debug, hclog.Info, hclog.Warn, hclog.Error} {
		if h.enabled(l) {
			return l
		}
	}
	return hclog.Off
}

// StandardLogger returns a standard library logger writing through h.
func (h *HCLogAdapter) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(h.StandardWriter(opts), "", 0)
}

// StandardWriter returns a writer that logs each write at info level.
func (h *HCLogAdapter) StandardWriter(*hclog.StandardLoggerOptions) io.Writer {
	return slogWriter{h}
}

type slogWriter struct{ h *HCLogAdapter }

func (w slogWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.h.Info(msg)
	return len(p), nil
}
