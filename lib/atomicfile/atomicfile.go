// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile provides atomic whole-file replacement. Every
// durable artifact in the vault (task records, the state ledger, the
// dashboard) is replaced in full rather than mutated in place, so a
// crash mid-write never leaves a reader with a partial file.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile atomically replaces the file at path with data. The data is
// written to a temporary file in the same directory, fsynced for
// durability, and renamed into place. Readers never see a partial
// write.
//
// The file is created with the given permission bits. The parent
// directory must already exist.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}

	// Write, sync, close — in that order. If any step fails, remove the
	// temporary file and report the first error.
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming file into place: %w", err)
	}

	// Sync the parent directory to ensure the rename is durable. This
	// matters when the machine loses power between rename and the OS
	// flushing directory metadata.
	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}

	return nil
}
