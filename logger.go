// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ddraw

import (
	"context"
	"log/slog"
	"os"

	"github.com/gogpu/ddraw/internal/dlog"
)

// SetLogger configures the logger for ddraw and all its sub-packages.
// By default, ddraw produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by ddraw:
//   - [slog.LevelDebug]: internal diagnostics (probe results, pitches, format choices)
//   - [slog.LevelInfo]: lifecycle events (backend selected, display mode set)
//   - [slog.LevelWarn]: non-fatal issues (blit flags not honored, teardown errors)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	ddraw.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	ddraw.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	dlog.SetLogger(l)
}

// Logger returns the current logger used by ddraw.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return dlog.Logger()
}

// enableDebugLogging installs a debug text logger on stderr unless debug
// output is already enabled.
func enableDebugLogging() {
	if Logger().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
}
