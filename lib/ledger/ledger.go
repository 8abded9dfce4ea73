// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger tracks which inbox files have already produced tasks.
//
// The ledger is the idempotency authority for task creation: at most
// one entry exists per source filename, and a filename with an entry is
// never ingested again, even if its task record was later moved or
// deleted by the user. It also carries informational crash-recovery
// bookkeeping (the pending task IDs and the last scan time) that is
// never treated as authoritative; the task record directories are.
//
// The ledger lives in a single JSON file inside the vault (see
// lib/statefile for the persistence semantics). An unreadable ledger is
// not fatal: it is reset to empty with a warning, because it can be
// rebuilt by re-ingesting, and the worst outcome of losing it is
// duplicate tasks, not lost data.
package ledger

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/intray-io/intray/lib/clock"
	"github.com/intray-io/intray/lib/statefile"
)

// CurrentVersion is the ledger schema version written by this code.
const CurrentVersion = 1

// Entry records one ingested inbox file.
type Entry struct {
	// Filename is the base name of the inbox file. It is the dedup
	// key: one entry per filename.
	Filename string `json:"filename"`

	// ProcessedAt is when the file was ingested (RFC 3339 UTC).
	ProcessedAt time.Time `json:"processed_at"`

	// TaskID is the record created for the file.
	TaskID string `json:"task_id"`
}

// State is the persisted ledger content.
type State struct {
	// Version is the schema version (see CurrentVersion).
	Version int `json:"version"`

	// LastScan is when the watcher last ingested or swept the inbox.
	LastScan time.Time `json:"last_scan"`

	// ProcessedFiles holds one entry per ingested filename.
	ProcessedFiles []Entry `json:"processed_files"`

	// PendingTaskIDs lists tasks created but not yet completed.
	// Informational only.
	PendingTaskIDs []string `json:"pending_task_ids"`
}

// Ledger is the dedup store. All methods follow load-fully,
// mutate-in-memory, atomic-rewrite, serialized by an internal lock:
// the watcher and the processing loop share one Ledger and mutate it
// from separate goroutines. Safe for concurrent use within one
// process; a second process would still race.
type Ledger struct {
	mu     sync.Mutex
	store  *statefile.Store[State]
	clk    clock.Clock
	logger *slog.Logger
}

// Open returns a Ledger over the state file at path. The file need not
// exist yet.
func Open(path string, clk clock.Clock, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  statefile.New[State](path),
		clk:    clk,
		logger: logger,
	}
}

// IsProcessed reports whether filename already has a ledger entry.
func (l *Ledger) IsProcessed(filename string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.load()
	if err != nil {
		return false, err
	}
	for _, entry := range state.ProcessedFiles {
		if entry.Filename == filename {
			return true, nil
		}
	}
	return false, nil
}

// Record adds an entry for filename pointing at taskID, marks the task
// pending, and updates the scan time, in one atomic rewrite. When an
// entry for the filename already exists it is updated in place rather
// than duplicated.
func (l *Ledger) Record(filename, taskID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.mutate(func(state *State) error {
		now := l.clk.Now().UTC()
		state.LastScan = now

		for i := range state.ProcessedFiles {
			if state.ProcessedFiles[i].Filename == filename {
				state.ProcessedFiles[i].ProcessedAt = now
				state.ProcessedFiles[i].TaskID = taskID
				addPending(state, taskID)
				return nil
			}
		}

		state.ProcessedFiles = append(state.ProcessedFiles, Entry{
			Filename:    filename,
			ProcessedAt: now,
			TaskID:      taskID,
		})
		addPending(state, taskID)
		return nil
	})
}

// MarkCompleted removes taskID from the pending list. Idempotent: a
// task that is not pending (already marked, or created before the
// ledger was reset) is a no-op and the file is not rewritten.
func (l *Ledger) MarkCompleted(taskID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.mutate(func(state *State) error {
		for i, id := range state.PendingTaskIDs {
			if id == taskID {
				state.PendingTaskIDs = append(state.PendingTaskIDs[:i], state.PendingTaskIDs[i+1:]...)
				return nil
			}
		}
		return errUnchanged
	})
}

// TouchScanTime records that an inbox scan happened now, without
// ingesting anything.
func (l *Ledger) TouchScanTime() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.mutate(func(state *State) error {
		state.LastScan = l.clk.Now().UTC()
		return nil
	})
}

// Snapshot returns the current ledger state for inspection.
func (l *Ledger) Snapshot() (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// load reads the ledger, tolerating undecodable content by resetting
// to empty with a warning. Losing the ledger risks duplicate tasks;
// refusing to run would lose the whole pipeline.
func (l *Ledger) load() (State, error) {
	state, err := l.store.Load()
	if err != nil {
		var decodeErr *statefile.DecodeError
		if errors.As(err, &decodeErr) {
			l.logger.Warn("ledger is unreadable, starting over empty",
				"path", l.store.Path(),
				"error", decodeErr.Reason)
			return State{Version: CurrentVersion}, nil
		}
		return State{}, err
	}
	if state.Version == 0 {
		state.Version = CurrentVersion
	}
	return state, nil
}

// errUnchanged is returned by a mutate callback to leave the file
// untouched.
var errUnchanged = errors.New("ledger: state unchanged")

// mutate commits fn through the store's load-apply-save cycle,
// tolerating an unreadable ledger by applying fn to a fresh empty
// state instead (see the package comment). Callers hold l.mu.
func (l *Ledger) mutate(fn func(*State) error) error {
	err := l.store.Mutate(func(state *State) error {
		if err := fn(state); err != nil {
			return err
		}
		state.Version = CurrentVersion
		return nil
	})
	if err == nil || errors.Is(err, errUnchanged) {
		return nil
	}

	var decodeErr *statefile.DecodeError
	if !errors.As(err, &decodeErr) {
		return err
	}

	l.logger.Warn("ledger is unreadable, starting over empty",
		"path", l.store.Path(),
		"error", decodeErr.Reason)
	state := State{}
	if err := fn(&state); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	state.Version = CurrentVersion
	return l.store.Save(state)
}

// addPending appends taskID to the pending list if absent.
func addPending(state *State, taskID string) {
	for _, id := range state.PendingTaskIDs {
		if id == taskID {
			return
		}
	}
	state.PendingTaskIDs = append(state.PendingTaskIDs, taskID)
}
