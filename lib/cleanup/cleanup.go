// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package cleanup removes ingested source files from the inbox once
// their task records are safely in the completed store.
//
// Deletion requires three independent proofs: the ledger has an entry
// for the filename, the entry's task record exists in the completed
// store, and the record's stored checksum matches the bytes still
// sitting in the inbox. A file that was edited after ingestion fails
// the checksum and is left alone; whatever is in it now was never
// processed.
package cleanup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/intray-io/intray/lib/filehash"
	"github.com/intray-io/intray/lib/ledger"
	"github.com/intray-io/intray/lib/task"
	"github.com/intray-io/intray/lib/vault"
)

// Candidate is one inbox file that is safe to delete, with the task
// record that proves it.
type Candidate struct {
	// Path is the inbox file's location.
	Path string

	// Filename is its base name, the ledger dedup key.
	Filename string

	// TaskID is the completed record covering this file.
	TaskID string
}

// FailedDeletion records one file that could not be removed.
type FailedDeletion struct {
	Filename string
	Reason   string
}

// Summary is the outcome of one Delete run.
type Summary struct {
	// Deleted lists the filenames removed from the inbox.
	Deleted []string

	// Failed lists the files that could not be removed.
	Failed []FailedDeletion
}

// Cleaner plans and executes inbox garbage collection.
type Cleaner struct {
	layout vault.Layout
	store  *task.Store
	ledger *ledger.Ledger
	logger *slog.Logger
}

// New returns a Cleaner over the vault at layout.
func New(layout vault.Layout, ldg *ledger.Ledger, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		layout: layout,
		store:  task.NewStore(layout),
		ledger: ldg,
		logger: logger,
	}
}

// Plan scans the inbox and returns the files that pass all three
// proofs. Files that fail a proof are logged and skipped, never
// errors: a half-processed inbox is a normal state.
func (c *Cleaner) Plan() ([]Candidate, error) {
	snapshot, err := c.ledger.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("cleanup: reading ledger: %w", err)
	}
	taskByFilename := make(map[string]string, len(snapshot.ProcessedFiles))
	for _, entry := range snapshot.ProcessedFiles {
		taskByFilename[entry.Filename] = entry.TaskID
	}

	entries, err := os.ReadDir(c.layout.Inbox())
	if err != nil {
		return nil, fmt.Errorf("cleanup: listing inbox: %w", err)
	}

	var candidates []Candidate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == ".gitkeep" {
			continue
		}
		taskID, ok := taskByFilename[name]
		if !ok {
			c.logger.Debug("inbox file not in ledger", "file", name)
			continue
		}
		path := filepath.Join(c.layout.Inbox(), name)
		if !c.verify(path, name, taskID) {
			continue
		}
		candidates = append(candidates, Candidate{Path: path, Filename: name, TaskID: taskID})
		c.logger.Info("found processed file", "file", name, "task", taskID)
	}
	return candidates, nil
}

// verify checks that the completed record for taskID exists and that
// its stored checksum matches the inbox file.
func (c *Cleaner) verify(path, name, taskID string) bool {
	record, err := c.store.Load(c.store.CompletedPath(taskID))
	if err != nil {
		c.logger.Warn("file processed but task not in completed store",
			"file", name, "task", taskID, "error", err)
		return false
	}
	if record.Source.Checksum == "" {
		c.logger.Warn("task record carries no checksum, leaving source in place",
			"file", name, "task", taskID)
		return false
	}
	matches, err := filehash.FileMatches(path, record.Source.Checksum)
	if err != nil {
		c.logger.Warn("verifying inbox file", "file", name, "error", err)
		return false
	}
	if !matches {
		c.logger.Warn("inbox file changed since ingestion, leaving it in place",
			"file", name, "task", taskID)
		return false
	}
	return true
}

// Delete removes the planned files. Failures are reported per file;
// one undeletable file does not stop the rest.
func (c *Cleaner) Delete(candidates []Candidate) Summary {
	var summary Summary
	for _, candidate := range candidates {
		if err := os.Remove(candidate.Path); err != nil {
			c.logger.Error("deleting inbox file", "file", candidate.Filename, "error", err)
			summary.Failed = append(summary.Failed, FailedDeletion{
				Filename: candidate.Filename,
				Reason:   err.Error(),
			})
			continue
		}
		c.logger.Info("deleted", "file", candidate.Filename)
		summary.Deleted = append(summary.Deleted, candidate.Filename)
	}
	return summary
}
