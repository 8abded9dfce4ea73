// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/intray-io/intray/lib/atomicfile"
	"github.com/intray-io/intray/lib/vault"
)

// Store persists task records in the vault. Pending records live in
// Needs_Action/, completed records in Done/, and corrupt records are
// moved to Logs/failed/. All writes are atomic whole-file replacements.
type Store struct {
	layout vault.Layout
}

// NewStore returns a Store over the given vault layout.
func NewStore(layout vault.Layout) *Store {
	return &Store{layout: layout}
}

// PendingPath returns where the record for id lives while pending.
func (s *Store) PendingPath(id string) string {
	return filepath.Join(s.layout.Pending(), id+".md")
}

// CompletedPath returns where the record for id lives once completed.
func (s *Store) CompletedPath(id string) string {
	return filepath.Join(s.layout.Completed(), id+".md")
}

// WritePending writes a new pending record and returns its path.
func (s *Store) WritePending(t *Task) (string, error) {
	data, err := t.Encode()
	if err != nil {
		return "", err
	}
	path := s.PendingPath(t.ID)
	if err := atomicfile.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing task record: %w", err)
	}
	return path, nil
}

// Load reads and decodes the record at path. An unreadable file is
// returned as a plain I/O error; a readable file that does not decode
// or validate is returned as a *CorruptError so callers can quarantine
// it.
func (s *Store) Load(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Decode(data)
	if err != nil {
		return nil, &CorruptError{Path: path, Reason: err}
	}
	return t, nil
}

// SaveInPlace rewrites the record at path with the task's current
// state. Used for in-place status updates (processing, failed).
func (s *Store) SaveInPlace(path string, t *Task) error {
	data, err := t.Encode()
	if err != nil {
		return err
	}
	if err := atomicfile.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("rewriting task record: %w", err)
	}
	return nil
}

// MoveToCompleted relocates a record from Needs_Action to Done and
// returns the destination path. The rename is atomic on a single
// filesystem; a failure leaves the record in place, which callers
// tolerate (the record itself already says completed).
func (s *Store) MoveToCompleted(id string) (string, error) {
	source := s.PendingPath(id)
	destination := s.CompletedPath(id)
	if err := os.Rename(source, destination); err != nil {
		return "", fmt.Errorf("relocating completed task %s: %w", id, err)
	}
	return destination, nil
}

// Quarantine moves a corrupt record out of the lifecycle into
// Logs/failed and returns the destination path. When a file with the
// same name is already quarantined, a numeric suffix is added rather
// than overwriting older evidence.
func (s *Store) Quarantine(path string) (string, error) {
	base := filepath.Base(path)
	destination := filepath.Join(s.layout.Quarantine(), base)
	for suffix := 2; ; suffix++ {
		if _, err := os.Stat(destination); os.IsNotExist(err) {
			break
		}
		extension := filepath.Ext(base)
		stem := strings.TrimSuffix(base, extension)
		destination = filepath.Join(s.layout.Quarantine(), fmt.Sprintf("%s-%d%s", stem, suffix, extension))
	}
	if err := os.Rename(path, destination); err != nil {
		return "", fmt.Errorf("quarantining record %s: %w", path, err)
	}
	return destination, nil
}

// ListPending returns the paths of all pending records, sorted by name.
func (s *Store) ListPending() ([]string, error) {
	return listRecords(s.layout.Pending())
}

// ListCompleted returns the paths of all completed records, sorted by
// name.
func (s *Store) ListCompleted() ([]string, error) {
	return listRecords(s.layout.Completed())
}

// listRecords returns the .md files directly inside directory. A
// missing directory yields an empty list: a user deleting Done/ must
// not break counting.
func listRecords(directory string) ([]string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", directory, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		paths = append(paths, filepath.Join(directory, entry.Name()))
	}
	return paths, nil
}
