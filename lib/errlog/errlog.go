// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package errlog persists durable failure records to a vault's log
// directory. Every non-fatal pipeline failure produces exactly one
// record: a small markdown file named error-YYYYMMDD-HHMMSS.md whose
// fields (timestamp, context, type, message) let an operator
// reconstruct what went wrong without access to process logs. The
// report package counts these records to compute the failure column,
// so a record is also how a failure becomes visible on the dashboard.
package errlog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/intray-io/intray/lib/atomicfile"
	"github.com/intray-io/intray/lib/clock"
)

// Record types stamped into the Type field of an error record. Callers
// outside this package pick the constant matching the failure class so
// operators can grep records by type.
const (
	TypeFileTooLarge     = "file_too_large"
	TypePermissionDenied = "permission_denied"
	TypeRetryExhausted   = "retry_exhausted"
	TypeCorruptRecord    = "corrupt_task_record"
	TypeProcessingFailed = "processing_failed"
)

const (
	recordPrefix    = "error-"
	recordExtension = ".md"
	stampLayout     = "20060102-150405"
)

// Recorder writes error records into a single directory, creating the
// directory on first use. The clock is injected so tests control the
// timestamp embedded in filenames.
type Recorder struct {
	dir    string
	clk    clock.Clock
	logger *slog.Logger
}

// NewRecorder returns a Recorder that writes records under dir. The
// logger must be non-nil; every record is paired with one log line.
func NewRecorder(dir string, clk clock.Clock, logger *slog.Logger) *Recorder {
	return &Recorder{dir: dir, clk: clk, logger: logger}
}

// Write renders one error record and returns the path it landed at.
// Records created within the same second get a numeric suffix rather
// than overwriting each other.
func (r *Recorder) Write(context, errorType string, cause error) (string, error) {
	now := r.clk.Now().UTC()
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}

	message := "(no detail)"
	if cause != nil {
		message = cause.Error()
	}

	base := recordPrefix + now.Format(stampLayout)
	path := filepath.Join(r.dir, base+recordExtension)
	for n := 2; ; n++ {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			break
		}
		path = filepath.Join(r.dir, fmt.Sprintf("%s-%d%s", base, n, recordExtension))
	}

	content := renderRecord(now, context, errorType, message)
	if err := atomicfile.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing error record: %w", err)
	}

	r.logger.Error("failure recorded",
		"type", errorType,
		"context", context,
		"message", message,
		"record", path)
	return path, nil
}

func renderRecord(now time.Time, context, errorType, message string) string {
	var b strings.Builder
	b.WriteString("# Error Log\n\n")
	fmt.Fprintf(&b, "**Timestamp**: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Context**: %s\n\n", context)
	b.WriteString("## Error Details\n\n")
	fmt.Fprintf(&b, "**Type**: %s\n", errorType)
	fmt.Fprintf(&b, "**Message**: %s\n\n", message)
	b.WriteString("## Resolution\n\n")
	b.WriteString("Check the error message above and refer to the troubleshooting guide in README.md.\n")
	return b.String()
}

// Count reports how many error records exist under dir. A missing
// directory counts as zero; only files shaped like error records are
// counted, so operator notes dropped alongside them do not inflate the
// failure column.
func Count(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading log directory: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, recordPrefix) && strings.HasSuffix(name, recordExtension) {
			count++
		}
	}
	return count, nil
}
