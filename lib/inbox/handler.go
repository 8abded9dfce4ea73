// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package inbox watches the vault's drop directory and turns new files
// into pending tasks. The watcher reports raw filesystem events; the
// handler applies the admission policy: debounce duplicate events,
// filter by extension, enforce the size ceiling, probe readability,
// and retry transient creation failures a fixed number of times.
package inbox

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/intray-io/intray/lib/clock"
	"github.com/intray-io/intray/lib/errlog"
	"github.com/intray-io/intray/lib/task"
	"github.com/intray-io/intray/lib/vault"
)

// TaskCreator builds a task from a source file. It reports false with
// a nil error when the filename was already processed and nothing was
// done.
type TaskCreator interface {
	CreateFromFile(path string) (*task.Task, bool, error)
}

// Handler applies the admission policy to one file event at a time.
// It is not safe for concurrent use: the watcher delivers events from
// a single goroutine, and the debounce map relies on that.
type Handler struct {
	creator TaskCreator
	errors  *errlog.Recorder
	config  vault.Config
	clk     clock.Clock
	logger  *slog.Logger

	// lastEvent records when each path was last admitted past the
	// debounce check. Dropped duplicates do not refresh the stamp, so
	// a steady stream of events cannot starve a file forever.
	lastEvent map[string]time.Time
}

func NewHandler(creator TaskCreator, errors *errlog.Recorder, config vault.Config, clk clock.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		creator:   creator,
		errors:    errors,
		config:    config,
		clk:       clk,
		logger:    logger,
		lastEvent: make(map[string]time.Time),
	}
}

// HandleFile runs one file through the admission policy and reports
// what became of it. Every outcome is logged; the rejected outcomes
// also leave an error record.
func (h *Handler) HandleFile(path string) Disposition {
	filename := filepath.Base(path)

	now := h.clk.Now()
	if last, seen := h.lastEvent[path]; seen && now.Sub(last) < h.config.DebounceWindow {
		h.logger.Debug("debounced duplicate event", "file", filename)
		return DispositionDebounced
	}
	h.lastEvent[path] = now

	// The file may have been deleted between the event and now.
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		h.logger.Warn("file no longer exists", "file", filename)
		return DispositionSkipped
	}
	if err != nil {
		h.logger.Warn("cannot inspect file", "file", filename, "error", err)
		return DispositionFailed
	}
	if info.IsDir() {
		h.logger.Debug("ignoring directory", "file", filename)
		return DispositionSkipped
	}

	extension := strings.ToLower(filepath.Ext(path))
	if !h.config.ExtensionAllowed(extension) {
		h.logger.Info("skipping unsupported file type", "file", filename)
		return DispositionSkipped
	}

	if info.Size() > h.config.MaxFileBytes {
		h.logger.Warn("file too large", "file", filename,
			"size_bytes", info.Size(), "limit_bytes", h.config.MaxFileBytes)
		h.record(fmt.Sprintf("File too large to process: %s", path), errlog.TypeFileTooLarge,
			fmt.Errorf("file exceeds %d byte size limit: %s", h.config.MaxFileBytes, filename))
		return DispositionRejected
	}

	if disposition, ok := h.probeReadable(path); !ok {
		return disposition
	}

	return h.createWithRetry(path)
}

// probeReadable attempts a one-byte read. An empty file reads as EOF
// and passes. A permission failure is permanent and leaves an error
// record; any other failure aborts without one.
func (h *Handler) probeReadable(path string) (Disposition, bool) {
	filename := filepath.Base(path)

	file, err := os.Open(path)
	if err == nil {
		probe := make([]byte, 1)
		_, err = file.Read(probe)
		file.Close()
		if err == nil || errors.Is(err, io.EOF) {
			return 0, true
		}
	}

	if errors.Is(err, fs.ErrPermission) {
		h.logger.Error("permission denied reading file", "file", filename)
		h.recordPermissionFailure(path)
		return DispositionRejected, false
	}
	h.logger.Warn("file not readable", "file", filename, "error", err)
	return DispositionFailed, false
}

// createWithRetry invokes the task creator up to the configured number
// of attempts, sleeping between them. Missing-file and permission
// failures abort immediately; only other failures are retried.
func (h *Handler) createWithRetry(path string) Disposition {
	filename := filepath.Base(path)
	attempts := h.config.RetryAttempts

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		h.logger.Info("new file detected", "file", filename,
			"attempt", attempt, "attempts", attempts)

		created, ok, err := h.creator.CreateFromFile(path)
		if err == nil {
			if !ok {
				return DispositionAlreadyProcessed
			}
			h.logger.Info("task created", "task", created.ID, "file", filename)
			return DispositionCreated
		}
		if errors.Is(err, fs.ErrNotExist) {
			h.logger.Error("file disappeared during processing", "file", filename)
			return DispositionSkipped
		}
		if errors.Is(err, fs.ErrPermission) {
			h.logger.Error("permission error creating task", "file", filename, "error", err)
			h.recordPermissionFailure(path)
			return DispositionRejected
		}

		lastErr = err
		h.logger.Error("error creating task", "file", filename,
			"attempt", attempt, "error", err)
		if attempt < attempts {
			h.logger.Info("retrying task creation", "file", filename, "delay", h.config.RetryDelay)
			h.clk.Sleep(h.config.RetryDelay)
		}
	}

	h.record(fmt.Sprintf("Failed to create task from file after %d attempts: %s", attempts, path),
		errlog.TypeRetryExhausted, lastErr)
	return DispositionFailed
}

func (h *Handler) recordPermissionFailure(path string) {
	h.record(fmt.Sprintf("Permission denied: %s", path), errlog.TypePermissionDenied,
		fmt.Errorf("cannot read file: %s", filepath.Base(path)))
}

// record writes an error record; a failure to do so is logged and
// otherwise swallowed, since the triggering failure already decided
// the disposition.
func (h *Handler) record(context, errorType string, cause error) {
	if _, err := h.errors.Write(context, errorType, cause); err != nil {
		h.logger.Error("cannot write error record", "context", context, "error", err)
	}
}
