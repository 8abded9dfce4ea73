// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package errlog

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/intray-io/intray/lib/clock"
)

func testRecorder(t *testing.T) (*Recorder, string, *clock.FakeClock) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Logs")
	fakeClock := clock.Fake(time.Date(2026, 3, 14, 9, 30, 15, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRecorder(dir, fakeClock, logger), dir, fakeClock
}

func TestWriteRecord(t *testing.T) {
	recorder, dir, _ := testRecorder(t)

	path, err := recorder.Write("creating task for \"report.pdf\"", TypeFileTooLarge,
		errors.New("file is 12582912 bytes, ceiling is 10485760 bytes"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if want := filepath.Join(dir, "error-20260314-093015.md"); path != want {
		t.Errorf("record path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"# Error Log",
		"**Timestamp**: 2026-03-14T09:30:15Z",
		"**Context**: creating task for \"report.pdf\"",
		"**Type**: file_too_large",
		"**Message**: file is 12582912 bytes, ceiling is 10485760 bytes",
		"## Resolution",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("record missing %q:\n%s", want, content)
		}
	}
}

func TestWriteCreatesLogDirectory(t *testing.T) {
	recorder, dir, _ := testRecorder(t)

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("test premise broken: log directory already exists")
	}
	if _, err := recorder.Write("probe", TypeProcessingFailed, errors.New("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("log directory not created: %v", err)
	}
}

func TestSameSecondRecordsDoNotCollide(t *testing.T) {
	recorder, _, _ := testRecorder(t)

	first, err := recorder.Write("first", TypeRetryExhausted, errors.New("a"))
	if err != nil {
		t.Fatalf("Write first: %v", err)
	}
	second, err := recorder.Write("second", TypeRetryExhausted, errors.New("b"))
	if err != nil {
		t.Fatalf("Write second: %v", err)
	}
	if first == second {
		t.Fatalf("both records landed at %q", first)
	}
	if !strings.HasSuffix(second, "-2.md") {
		t.Errorf("second record = %q, want -2 suffix", second)
	}

	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "**Context**: first") {
		t.Error("first record was overwritten by the second")
	}
}

func TestCount(t *testing.T) {
	recorder, dir, fakeClock := testRecorder(t)

	for i := 0; i < 3; i++ {
		if _, err := recorder.Write("boom", TypeProcessingFailed, errors.New("x")); err != nil {
			t.Fatalf("Write: %v", err)
		}
		fakeClock.Advance(time.Second)
	}
	// Neighbors that are not error records must not count.
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ops notes"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "error-history.txt"), []byte("old"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "failed"), 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	count, err := Count(dir)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}

func TestCountMissingDirectory(t *testing.T) {
	count, err := Count(filepath.Join(t.TempDir(), "never-created"))
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("Count = %d, want 0", count)
	}
}

func TestNilCauseStillWritesRecord(t *testing.T) {
	recorder, _, _ := testRecorder(t)

	path, err := recorder.Write("ledger rewrite", TypeProcessingFailed, nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "**Message**: (no detail)") {
		t.Error("nil cause should render a placeholder message")
	}
}
