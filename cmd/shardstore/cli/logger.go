// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/term"
)

// NewLogger creates the structured logger for command operations.
// Format "text" and "json" select a handler directly. Format "auto"
// uses slog.TextHandler when w is a terminal and slog.JSONHandler
// otherwise (CI, scripts, redirected stderr).
//
// Callers scope the logger with command-specific context via With():
//
//	logger = logger.With("command", "import", "split", split)
func NewLogger(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	options := &slog.HandlerOptions{Level: level}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, options)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, options)), nil
	case "auto", "":
		if isTerminal(w) {
			return slog.New(slog.NewTextHandler(w, options)), nil
		}
		return slog.New(slog.NewJSONHandler(w, options)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want auto, text, or json)", format)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(file.Fd()))
}
