// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive compresses old completed task records into the
// vault's Archive directory. Each record is stored verbatim as a zstd
// frame named <record>.md.zst, so even a record that no longer parses
// can be archived and restored byte for byte.
package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/intray-io/intray/lib/atomicfile"
	"github.com/intray-io/intray/lib/clock"
	"github.com/intray-io/intray/lib/vault"
)

// suffix marks compressed records in the archive directory.
const suffix = ".zst"

// encoder and decoder are reused across calls; both are safe for
// concurrent use.
var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("archive: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("archive: zstd decoder initialization failed: " + err.Error())
	}
}

// Candidate is one completed record old enough to archive.
type Candidate struct {
	// Path is the record's location in the completed store.
	Path string

	// Name is the record file name, e.g. "task-<uuid>.md".
	Name string

	// Modified is the record's last modification time.
	Modified time.Time

	// SizeBytes is the uncompressed size.
	SizeBytes int64
}

// FailedArchive records one record that could not be archived.
type FailedArchive struct {
	Name   string
	Reason string
}

// Summary is the outcome of one Archive run.
type Summary struct {
	Archived []string
	Failed   []FailedArchive
}

// Archiver plans and executes completed-record archiving.
type Archiver struct {
	layout vault.Layout
	clk    clock.Clock
	logger *slog.Logger
}

// New returns an Archiver over the vault at layout.
func New(layout vault.Layout, clk clock.Clock, logger *slog.Logger) *Archiver {
	return &Archiver{layout: layout, clk: clk, logger: logger}
}

// Plan returns the completed records whose last modification is older
// than the cutoff. Selection is by modification time alone: completion
// rewrites the record, so the mtime tracks when processing finished,
// and a record a user touched since then is kept around longer.
func (a *Archiver) Plan(olderThan time.Duration) ([]Candidate, error) {
	cutoff := a.clk.Now().Add(-olderThan)
	entries, err := os.ReadDir(a.layout.Completed())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive: listing completed store: %w", err)
	}

	var candidates []Candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			a.logger.Warn("stating completed record", "file", entry.Name(), "error", err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		candidates = append(candidates, Candidate{
			Path:      filepath.Join(a.layout.Completed(), entry.Name()),
			Name:      entry.Name(),
			Modified:  info.ModTime(),
			SizeBytes: info.Size(),
		})
	}
	return candidates, nil
}

// Archive compresses each candidate into the archive directory and
// removes the original. Failures are reported per record; one bad
// record does not stop the rest.
func (a *Archiver) Archive(candidates []Candidate) Summary {
	var summary Summary
	for _, candidate := range candidates {
		if err := a.archiveOne(candidate); err != nil {
			a.logger.Error("archiving record", "record", candidate.Name, "error", err)
			summary.Failed = append(summary.Failed, FailedArchive{
				Name:   candidate.Name,
				Reason: err.Error(),
			})
			continue
		}
		a.logger.Info("archived", "record", candidate.Name)
		summary.Archived = append(summary.Archived, candidate.Name)
	}
	return summary
}

func (a *Archiver) archiveOne(candidate Candidate) error {
	data, err := os.ReadFile(candidate.Path)
	if err != nil {
		return fmt.Errorf("reading record: %w", err)
	}
	destination := filepath.Join(a.layout.Archive(), candidate.Name+suffix)
	if _, err := os.Stat(destination); err == nil {
		return fmt.Errorf("archive already holds %s", candidate.Name+suffix)
	}
	compressed := encoder.EncodeAll(data, nil)
	if err := atomicfile.WriteFile(destination, compressed, 0644); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := os.Remove(candidate.Path); err != nil {
		return fmt.Errorf("removing archived record: %w", err)
	}
	return nil
}

// Restore decompresses an archived record back into the completed
// store and removes the archive copy. The name may be given with or
// without the .zst suffix. Returns the restored record's path.
func (a *Archiver) Restore(name string) (string, error) {
	name = strings.TrimSuffix(name, suffix)
	source := filepath.Join(a.layout.Archive(), name+suffix)
	compressed, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("archive: reading %s: %w", name+suffix, err)
	}
	data, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return "", fmt.Errorf("archive: decompressing %s: %w", name, err)
	}
	destination := filepath.Join(a.layout.Completed(), name)
	if _, err := os.Stat(destination); err == nil {
		return "", fmt.Errorf("archive: completed store already holds %s", name)
	}
	if err := atomicfile.WriteFile(destination, data, 0644); err != nil {
		return "", fmt.Errorf("archive: restoring record: %w", err)
	}
	if err := os.Remove(source); err != nil {
		a.logger.Warn("restored but archive copy not removed", "record", name, "error", err)
	}
	return destination, nil
}
