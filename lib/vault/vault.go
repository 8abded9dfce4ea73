// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault defines the on-disk layout of an intray vault and the
// vault-scoped configuration.
//
// A vault is a plain directory tree. Every artifact in it is a
// human-readable file: markdown task records, a JSON state ledger, a
// rendered markdown dashboard. Users are expected to open, edit, and
// move these files with ordinary tools; intray must stay correct in the
// face of that.
//
//	<vault>/
//	  Inbox/                 watched drop zone for incoming files
//	  Needs_Action/          pending task records
//	  Done/                  completed task records
//	  Archive/               compressed completed records
//	  Logs/                  durable error records
//	  Logs/failed/           quarantined corrupt task records
//	  Dashboard.md           rendered statistics report
//	  Company_Handbook.md    human-edited processing rules
//	  .intray-state.json     the dedup ledger
//	  intray.yaml            optional configuration
package vault

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	inboxDirName      = "Inbox"
	pendingDirName    = "Needs_Action"
	completedDirName  = "Done"
	archiveDirName    = "Archive"
	logsDirName       = "Logs"
	quarantineDirName = "failed"
	dashboardFileName = "Dashboard.md"
	handbookFileName  = "Company_Handbook.md"
	ledgerFileName    = ".intray-state.json"
	configFileName    = "intray.yaml"
)

// Layout resolves paths inside a vault root. The zero value is not
// usable; construct with NewLayout.
type Layout struct {
	// Root is the absolute path of the vault directory.
	Root string
}

// NewLayout returns a Layout rooted at the given directory. The path is
// cleaned but not checked for existence; call Check before relying on
// it.
func NewLayout(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

// Inbox is the watched drop zone for incoming files.
func (l Layout) Inbox() string { return filepath.Join(l.Root, inboxDirName) }

// Pending holds task records awaiting processing.
func (l Layout) Pending() string { return filepath.Join(l.Root, pendingDirName) }

// Completed holds task records that finished processing.
func (l Layout) Completed() string { return filepath.Join(l.Root, completedDirName) }

// Archive holds compressed completed task records.
func (l Layout) Archive() string { return filepath.Join(l.Root, archiveDirName) }

// Logs holds durable error records.
func (l Layout) Logs() string { return filepath.Join(l.Root, logsDirName) }

// Quarantine holds corrupt task records pulled out of the lifecycle.
func (l Layout) Quarantine() string { return filepath.Join(l.Root, logsDirName, quarantineDirName) }

// Dashboard is the rendered statistics report.
func (l Layout) Dashboard() string { return filepath.Join(l.Root, dashboardFileName) }

// Handbook is the human-edited processing rules document.
func (l Layout) Handbook() string { return filepath.Join(l.Root, handbookFileName) }

// Ledger is the dedup state file.
func (l Layout) Ledger() string { return filepath.Join(l.Root, ledgerFileName) }

// ConfigFile is the optional vault-local configuration file.
func (l Layout) ConfigFile() string { return filepath.Join(l.Root, configFileName) }

// Check verifies that the vault root exists and is a directory. This is
// the one setup failure that is fatal: without a vault there is nothing
// to operate on. Missing subdirectories are not an error here; they are
// repaired by EnsureDirectories.
func (l Layout) Check() error {
	info, err := os.Stat(l.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("vault %s does not exist (run \"intray init\" first): %w", l.Root, err)
		}
		return fmt.Errorf("checking vault %s: %w", l.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path %s is not a directory", l.Root)
	}
	return nil
}

// EnsureDirectories creates every vault subdirectory that does not
// already exist. Idempotent. Used both by "intray init" and at the
// start of long-running operations, so a user deleting Done/ between
// runs does not break the pipeline.
func (l Layout) EnsureDirectories() error {
	directories := []string{
		l.Inbox(),
		l.Pending(),
		l.Completed(),
		l.Archive(),
		l.Logs(),
		l.Quarantine(),
	}
	for _, directory := range directories {
		if err := os.MkdirAll(directory, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", directory, err)
		}
	}
	return nil
}
