// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates the structured logger handed to command Run
// functions. When stderr is a terminal it uses slog.TextHandler for
// human-readable output; when stderr is piped or redirected (scripts,
// CI, systemd units) it uses slog.JSONHandler so the lines stay
// machine-parseable.
//
// Verbose lowers the level to Debug, which includes per-notification
// watcher decisions such as debounce drops.
func NewCommandLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
