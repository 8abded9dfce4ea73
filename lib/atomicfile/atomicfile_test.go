// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileCreates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	if err := WriteFile(path, []byte("hello\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("content = %q, want %q", data, "hello\n")
	}
}

func TestWriteFileOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	if err := WriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatalf("WriteFile first: %v", err)
	}
	if err := WriteFile(path, []byte("second"), 0644); err != nil {
		t.Fatalf("WriteFile second: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q (second write should overwrite)", data, "second")
	}
}

func TestWriteFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	if err := WriteFile(path, []byte("data"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	// Mask out file type bits, check only permission bits.
	permissions := info.Mode().Perm()
	if permissions != 0600 {
		t.Errorf("permissions = %04o, want 0600", permissions)
	}
}

func TestWriteFileNoTemporaryFileLeftBehind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	if err := WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	temporaryPath := path + ".tmp"
	if _, err := os.Stat(temporaryPath); !os.IsNotExist(err) {
		t.Errorf("temporary file %s still exists after successful write", temporaryPath)
	}
}

func TestWriteFileParentDirectoryMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "subdir", "state.json")

	err := WriteFile(path, []byte("data"), 0644)
	if err == nil {
		t.Fatal("WriteFile to nonexistent parent directory should fail")
	}
}
