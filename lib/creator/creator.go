// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package creator turns an inbox file into a pending task record. It
// owns the idempotency contract: a filename the ledger has seen is a
// silent no-op, so duplicate filesystem notifications and re-drops of
// the same file never produce duplicate tasks.
package creator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/intray-io/intray/lib/clock"
	"github.com/intray-io/intray/lib/content"
	"github.com/intray-io/intray/lib/filehash"
	"github.com/intray-io/intray/lib/ledger"
	"github.com/intray-io/intray/lib/task"
)

// Creator builds tasks from source files and records them in the
// ledger.
type Creator struct {
	store  *task.Store
	ledger *ledger.Ledger
	clk    clock.Clock
	logger *slog.Logger
}

func New(store *task.Store, ldg *ledger.Ledger, clk clock.Clock, logger *slog.Logger) *Creator {
	return &Creator{store: store, ledger: ldg, clk: clk, logger: logger}
}

// CreateFromFile inspects path, extracts its content, persists a
// pending task record, and records the filename in the ledger. The
// second return is false when the filename was already processed and
// nothing was done.
//
// Errors keep their causes wrapped so callers can separate permanent
// failures (missing file, permission) from transient ones.
func (c *Creator) CreateFromFile(path string) (*task.Task, bool, error) {
	filename := filepath.Base(path)

	processed, err := c.ledger.IsProcessed(filename)
	if err != nil {
		return nil, false, fmt.Errorf("checking ledger: %w", err)
	}
	if processed {
		c.logger.Info("file already processed", "file", filename)
		return nil, false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, false, fmt.Errorf("inspecting %s: %w", filename, err)
	}
	digest, err := filehash.HashFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("hashing %s: %w", filename, err)
	}
	extraction, err := content.Extract(path)
	if err != nil {
		return nil, false, err
	}

	now := c.clk.Now().UTC()
	source := task.SourceFile{
		Name:         filename,
		Extension:    strings.ToLower(filepath.Ext(filename)),
		SizeBytes:    info.Size(),
		MIME:         extraction.MIME,
		Checksum:     filehash.FormatDigest(digest),
		DiscoveredAt: now,
	}
	created := task.New(source, extraction.Text, now)

	if _, err := c.store.WritePending(created); err != nil {
		return nil, false, fmt.Errorf("writing task record: %w", err)
	}
	if err := c.ledger.Record(filename, created.ID); err != nil {
		// The task record was written but the ledger was not. Callers
		// see a failure and may retry, which creates a fresh record
		// for the same source.
		return nil, false, fmt.Errorf("recording %s in ledger: %w", filename, err)
	}

	c.logger.Info("created task", "task", created.ID, "file", filename)
	return created, true, nil
}
