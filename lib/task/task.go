// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task. The only legal moves are
// pending → processing and processing → {completed, failed}. Completed
// and failed are terminal; re-queueing a failed task is an explicit
// user action (edit the record back to pending), never something the
// pipeline does on its own.
type Status string

const (
	// StatusPending marks a task waiting in Needs_Action.
	StatusPending Status = "pending"
	// StatusProcessing marks a task currently being analyzed.
	StatusProcessing Status = "processing"
	// StatusCompleted marks a task whose analysis succeeded.
	StatusCompleted Status = "completed"
	// StatusFailed marks a task whose analysis failed.
	StatusFailed Status = "failed"
)

// transitions maps each status to the statuses it may move to.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  nil,
	StatusFailed:     nil,
}

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Category classifies a task by its source file type. It drives which
// content extractor ran at creation and feeds the dashboard's
// most-common-type statistic.
type Category string

const (
	CategoryTextNote     Category = "text_note"
	CategoryMarkdownNote Category = "markdown_note"
	CategoryPDFDocument  Category = "pdf_document"
	CategoryImage        Category = "image"
)

// CategoryForExtension maps a file extension (with leading dot, any
// case) to its analysis category. Extensions outside the built-in set
// (possible when a vault widens the allow-list) are treated as plain
// text notes.
func CategoryForExtension(extension string) Category {
	switch strings.ToLower(extension) {
	case ".md":
		return CategoryMarkdownNote
	case ".pdf":
		return CategoryPDFDocument
	case ".png", ".jpg", ".jpeg":
		return CategoryImage
	default:
		return CategoryTextNote
	}
}

// SourceFile records the identity of the inbox file a task was created
// from. Captured once at creation; never updated.
type SourceFile struct {
	// Name is the base name of the inbox file. It is the dedup key in
	// the ledger.
	Name string `yaml:"name"`

	// Extension is the lowercase file extension including the dot.
	Extension string `yaml:"extension"`

	// SizeBytes is the file size at ingestion time.
	SizeBytes int64 `yaml:"size_bytes"`

	// MIME is the detected media type, when known.
	MIME string `yaml:"mime,omitempty"`

	// Checksum is the formatted digest of the raw file bytes (see
	// lib/filehash). Cleanup verifies this before deleting the source.
	Checksum string `yaml:"checksum,omitempty"`

	// DiscoveredAt is when the watcher accepted the file (RFC 3339 UTC).
	DiscoveredAt time.Time `yaml:"discovered_at"`
}

// ProcessingInfo records how a completed analysis ran. Only present on
// completed tasks.
type ProcessingInfo struct {
	// Model identifies the summarizer that produced the analysis.
	Model string `yaml:"model"`

	// DurationSeconds is the wall-clock analysis time.
	DurationSeconds float64 `yaml:"duration_seconds"`

	// Tokens is the token count reported by the summarizer, if any.
	Tokens int `yaml:"tokens,omitempty"`
}

// Task is one unit of work in the vault. The persisted record (a
// markdown file with yaml frontmatter) is the single source of truth;
// no component holds a Task across process restarts.
type Task struct {
	// ID is the immutable record identifier ("task-" + UUID). The
	// record file is named <ID>.md.
	ID string `yaml:"id"`

	// Status is the lifecycle state. Mutate only through
	// BeginProcessing, Complete, and Fail so the transition guard
	// holds.
	Status Status `yaml:"status"`

	// Category is the analysis category derived from the source
	// extension at creation.
	Category Category `yaml:"type"`

	// CreatedAt is when the record was created (RFC 3339 UTC).
	CreatedAt time.Time `yaml:"created_at"`

	// Source identifies the inbox file this task came from.
	Source SourceFile `yaml:"original_file"`

	// Processing is set by Complete.
	Processing *ProcessingInfo `yaml:"processing,omitempty"`

	// Error is the failure reason, set by Fail.
	Error string `yaml:"error,omitempty"`

	// Flags are rule-evaluation outcomes, append-only.
	Flags []string `yaml:"flags,omitempty"`

	// OriginalContent is the extracted source text, stored in the
	// record body under "## Original Content". Normalized to have no
	// surrounding whitespace.
	OriginalContent string `yaml:"-"`

	// Analysis is the summarizer output, stored in the record body
	// under "## AI Analysis". Empty until the task completes; the
	// persisted form shows a placeholder instead of an empty section.
	Analysis string `yaml:"-"`
}

// New builds a pending task for a source file. The caller supplies the
// extracted content and the creation time.
func New(source SourceFile, content string, now time.Time) *Task {
	return &Task{
		ID:              "task-" + uuid.NewString(),
		Status:          StatusPending,
		Category:        CategoryForExtension(source.Extension),
		CreatedAt:       now.UTC(),
		Source:          source,
		OriginalContent: strings.TrimSpace(content),
	}
}

// FileName returns the record file name for this task.
func (t *Task) FileName() string { return t.ID + ".md" }

// Validate checks the invariants every readable record must satisfy.
// A record failing Validate is treated as corrupt and quarantined.
func (t *Task) Validate() error {
	if t.ID == "" {
		return errors.New("task: id is required")
	}
	if !strings.HasPrefix(t.ID, "task-") {
		return fmt.Errorf("task: malformed id %q", t.ID)
	}
	switch {
	case t.Status == "":
		return errors.New("task: status is required")
	case !t.Status.Valid():
		return fmt.Errorf("task: unknown status %q", t.Status)
	}
	if t.Source.Name == "" {
		return errors.New("task: original_file.name is required")
	}
	return nil
}

// BeginProcessing moves the task from pending to processing.
func (t *Task) BeginProcessing() error {
	return t.transition(StatusProcessing)
}

// Complete records the analysis result and moves the task from
// processing to completed.
func (t *Task) Complete(analysis string, info ProcessingInfo) error {
	if err := t.transition(StatusCompleted); err != nil {
		return err
	}
	t.Analysis = strings.TrimSpace(analysis)
	t.Processing = &info
	t.Error = ""
	return nil
}

// Fail records the failure reason and moves the task from processing
// to failed.
func (t *Task) Fail(message string) error {
	if err := t.transition(StatusFailed); err != nil {
		return err
	}
	t.Error = message
	return nil
}

func (t *Task) transition(next Status) error {
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("task %s: invalid transition %s -> %s", t.ID, t.Status, next)
	}
	t.Status = next
	return nil
}

// AddFlags appends flags not already present, preserving order.
func (t *Task) AddFlags(flags ...string) {
	for _, flag := range flags {
		present := false
		for _, existing := range t.Flags {
			if existing == flag {
				present = true
				break
			}
		}
		if !present {
			t.Flags = append(t.Flags, flag)
		}
	}
}
