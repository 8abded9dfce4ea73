// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/intray-io/intray/lib/clock"
)

var testEpoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func testLedger(t *testing.T) (*Ledger, string, *clock.FakeClock) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".intray-state.json")
	fakeClock := clock.Fake(testEpoch)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Open(path, fakeClock, logger), path, fakeClock
}

func TestIsProcessedOnFreshLedger(t *testing.T) {
	ledger, _, _ := testLedger(t)

	processed, err := ledger.IsProcessed("note.txt")
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if processed {
		t.Error("fresh ledger should not report any file as processed")
	}
}

func TestRecordThenIsProcessed(t *testing.T) {
	ledger, _, _ := testLedger(t)

	if err := ledger.Record("note.txt", "task-1"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	processed, err := ledger.IsProcessed("note.txt")
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !processed {
		t.Error("recorded file should report processed")
	}

	other, err := ledger.IsProcessed("other.txt")
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if other {
		t.Error("unrecorded file should not report processed")
	}
}

func TestRecordKeepsOneEntryPerFilename(t *testing.T) {
	ledger, _, _ := testLedger(t)

	if err := ledger.Record("note.txt", "task-1"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := ledger.Record("note.txt", "task-2"); err != nil {
		t.Fatalf("Record second: %v", err)
	}

	state, err := ledger.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(state.ProcessedFiles) != 1 {
		t.Fatalf("ProcessedFiles = %d entries, want 1", len(state.ProcessedFiles))
	}
	if state.ProcessedFiles[0].TaskID != "task-2" {
		t.Errorf("TaskID = %q, want the newer task-2", state.ProcessedFiles[0].TaskID)
	}
}

func TestRecordUpdatesScanTime(t *testing.T) {
	ledger, _, fakeClock := testLedger(t)

	fakeClock.Advance(90 * time.Second)
	if err := ledger.Record("note.txt", "task-1"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	state, err := ledger.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	want := testEpoch.Add(90 * time.Second)
	if !state.LastScan.Equal(want) {
		t.Errorf("LastScan = %v, want %v", state.LastScan, want)
	}
	if !state.ProcessedFiles[0].ProcessedAt.Equal(want) {
		t.Errorf("ProcessedAt = %v, want %v", state.ProcessedFiles[0].ProcessedAt, want)
	}
}

func TestMarkCompleted(t *testing.T) {
	ledger, _, _ := testLedger(t)

	if err := ledger.Record("a.txt", "task-a"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := ledger.Record("b.txt", "task-b"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := ledger.MarkCompleted("task-a"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	state, err := ledger.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(state.PendingTaskIDs) != 1 || state.PendingTaskIDs[0] != "task-b" {
		t.Errorf("PendingTaskIDs = %v, want [task-b]", state.PendingTaskIDs)
	}
	// The processed entry survives completion; dedup must outlive the
	// task lifecycle.
	if len(state.ProcessedFiles) != 2 {
		t.Errorf("ProcessedFiles = %d entries, want 2", len(state.ProcessedFiles))
	}
}

func TestMarkCompletedIdempotent(t *testing.T) {
	ledger, _, _ := testLedger(t)

	if err := ledger.Record("a.txt", "task-a"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := ledger.MarkCompleted("task-a"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := ledger.MarkCompleted("task-a"); err != nil {
		t.Fatalf("MarkCompleted (repeat): %v", err)
	}
	if err := ledger.MarkCompleted("task-never-existed"); err != nil {
		t.Fatalf("MarkCompleted (unknown): %v", err)
	}
}

func TestLedgerSurvivesReopen(t *testing.T) {
	ledger, path, fakeClock := testLedger(t)

	if err := ledger.Record("persist.txt", "task-p"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	reopened := Open(path, fakeClock, slog.New(slog.NewTextHandler(io.Discard, nil)))
	processed, err := reopened.IsProcessed("persist.txt")
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !processed {
		t.Error("ledger entry lost across reopen")
	}
}

func TestUnreadableLedgerResetsToEmpty(t *testing.T) {
	ledger, path, _ := testLedger(t)

	if err := os.WriteFile(path, []byte("}{{corrupted"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	processed, err := ledger.IsProcessed("note.txt")
	if err != nil {
		t.Fatalf("IsProcessed on corrupt ledger: %v", err)
	}
	if processed {
		t.Error("corrupt ledger should read as empty")
	}

	// A mutation rebuilds the file from empty.
	if err := ledger.Record("note.txt", "task-1"); err != nil {
		t.Fatalf("Record on corrupt ledger: %v", err)
	}
	state, err := ledger.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(state.ProcessedFiles) != 1 {
		t.Errorf("ProcessedFiles = %d entries, want 1 after reset", len(state.ProcessedFiles))
	}
	if state.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", state.Version, CurrentVersion)
	}
}

func TestHandEditedLedgerStillLoads(t *testing.T) {
	ledger, path, _ := testLedger(t)

	content := `{
  // trimmed by hand after an incident
  "version": 1,
  "processed_files": [
    {"filename": "kept.txt", "processed_at": "2026-03-14T09:00:00Z", "task_id": "task-k"},
  ],
  "pending_task_ids": ["task-k"],
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	processed, err := ledger.IsProcessed("kept.txt")
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !processed {
		t.Error("hand-edited ledger with comments and trailing commas should load")
	}
}

func TestTouchScanTime(t *testing.T) {
	ledger, _, fakeClock := testLedger(t)

	fakeClock.Advance(5 * time.Minute)
	if err := ledger.TouchScanTime(); err != nil {
		t.Fatalf("TouchScanTime: %v", err)
	}

	state, err := ledger.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !state.LastScan.Equal(testEpoch.Add(5 * time.Minute)) {
		t.Errorf("LastScan = %v", state.LastScan)
	}
	if len(state.ProcessedFiles) != 0 {
		t.Errorf("TouchScanTime must not add entries, got %v", state.ProcessedFiles)
	}
}

func TestConcurrentRecordAndMarkCompleted(t *testing.T) {
	ledger, _, _ := testLedger(t)

	// The watcher records new files while the processing loop marks
	// tasks completed, from separate goroutines over one Ledger. Every
	// Record must survive; a MarkCompleted committing a stale load
	// would silently drop entries added in between.
	const files = 100

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < files; i++ {
			if err := ledger.Record(fmt.Sprintf("file-%d.txt", i), fmt.Sprintf("task-%d", i)); err != nil {
				t.Errorf("Record: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < files; i++ {
			if err := ledger.MarkCompleted(fmt.Sprintf("task-%d", i)); err != nil {
				t.Errorf("MarkCompleted: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	state, err := ledger.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(state.ProcessedFiles) != files {
		t.Errorf("ProcessedFiles = %d entries, want %d", len(state.ProcessedFiles), files)
	}
}
