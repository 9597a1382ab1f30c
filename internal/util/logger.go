// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package util

import (
	"io"
	"log/slog"
	"os"
)

// DebugEnvVar enables debug logging when set to any non-empty value.
const DebugEnvVar = "TDEPLOY_DEBUG"

// Logger is the process-wide logger. It discards everything until InitLogger runs.
var Logger = slog.New(slog.DiscardHandler)

// InitLogger initializes the global logger.
// Debug output is enabled by the debug argument or by TDEPLOY_DEBUG.
func InitLogger(debug bool) {
	Logger = NewLogger(os.Stderr, debug || os.Getenv(DebugEnvVar) != "")
}

// NewLogger returns a text logger without time and level attributes, which
// keeps CLI output readable.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey) {
				return slog.Attr{}
			}
			return a
		},
	})

	return slog.New(handler)
}

// Debug logs a debug message (only shown when debug logging is enabled)
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
