// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Watcher drives the handler from filesystem events on one directory.
type Watcher struct {
	directory string
	handler   *Handler
	logger    *slog.Logger
}

func NewWatcher(directory string, handler *Handler, logger *slog.Logger) *Watcher {
	return &Watcher{directory: directory, handler: handler, logger: logger}
}

// Run watches the directory until the context is cancelled. Files
// already present are swept through the handler first: their creation
// events fired before this process started and will not be
// redelivered. The sweep happens after the watch is installed so a
// file arriving in between is seen either way.
func (w *Watcher) Run(ctx context.Context) error {
	names, cleanup, err := watchDirectory(w.directory)
	if err != nil {
		return fmt.Errorf("watching %s: %w", w.directory, err)
	}
	defer cleanup()

	w.sweep()

	w.logger.Info("watching inbox", "directory", w.directory)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopping")
			return nil
		case name, ok := <-names:
			if !ok {
				return errors.New("inotify event stream closed unexpectedly")
			}
			w.handler.HandleFile(filepath.Join(w.directory, name))
		}
	}
}

// sweep runs every file already in the directory through the handler.
// Admission checks and ledger idempotency make re-seeing old files
// harmless.
func (w *Watcher) sweep() {
	entries, err := os.ReadDir(w.directory)
	if err != nil {
		w.logger.Warn("cannot sweep inbox", "directory", w.directory, "error", err)
		return
	}

	swept := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.handler.HandleFile(filepath.Join(w.directory, entry.Name()))
		swept++
	}
	if swept > 0 {
		w.logger.Info("startup sweep complete", "files", swept)
	}
}
