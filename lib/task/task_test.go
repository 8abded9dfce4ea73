// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"strings"
	"testing"
	"time"
)

var testTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func testSource() SourceFile {
	return SourceFile{
		Name:         "meeting-notes.txt",
		Extension:    ".txt",
		SizeBytes:    1234,
		MIME:         "text/plain",
		Checksum:     "blake3:abc123",
		DiscoveredAt: testTime,
	}
}

func TestNewTask(t *testing.T) {
	created := New(testSource(), "  buy milk\n", testTime)

	if !strings.HasPrefix(created.ID, "task-") {
		t.Errorf("ID = %q, want task- prefix", created.ID)
	}
	if created.Status != StatusPending {
		t.Errorf("Status = %q, want pending", created.Status)
	}
	if created.Category != CategoryTextNote {
		t.Errorf("Category = %q, want text_note", created.Category)
	}
	if created.OriginalContent != "buy milk" {
		t.Errorf("OriginalContent = %q, want trimmed content", created.OriginalContent)
	}
	if created.Analysis != "" {
		t.Errorf("Analysis = %q, want empty for a new task", created.Analysis)
	}
}

func TestNewTaskIDsAreUnique(t *testing.T) {
	first := New(testSource(), "a", testTime)
	second := New(testSource(), "a", testTime)
	if first.ID == second.ID {
		t.Fatalf("two tasks share ID %q", first.ID)
	}
}

func TestCategoryForExtension(t *testing.T) {
	cases := []struct {
		extension string
		want      Category
	}{
		{".txt", CategoryTextNote},
		{".md", CategoryMarkdownNote},
		{".MD", CategoryMarkdownNote},
		{".pdf", CategoryPDFDocument},
		{".png", CategoryImage},
		{".jpg", CategoryImage},
		{".jpeg", CategoryImage},
		{".csv", CategoryTextNote},
		{"", CategoryTextNote},
	}
	for _, c := range cases {
		if got := CategoryForExtension(c.extension); got != c.want {
			t.Errorf("CategoryForExtension(%q) = %q, want %q", c.extension, got, c.want)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusPending, false},
		{StatusFailed, StatusProcessing, false},
		{StatusProcessing, StatusPending, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", c.from, c.to, got, c.allowed)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusProcessing.Terminal() {
		t.Error("pending and processing must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Error("completed and failed must be terminal")
	}
	if Status("bogus").Terminal() {
		t.Error("an unknown status must not report terminal")
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	created := New(testSource(), "content", testTime)

	if err := created.BeginProcessing(); err != nil {
		t.Fatalf("BeginProcessing: %v", err)
	}
	if created.Status != StatusProcessing {
		t.Fatalf("Status = %q, want processing", created.Status)
	}

	info := ProcessingInfo{Model: "heuristic-v1", DurationSeconds: 1.5, Tokens: 42}
	if err := created.Complete("summary text", info); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if created.Status != StatusCompleted {
		t.Fatalf("Status = %q, want completed", created.Status)
	}
	if created.Analysis != "summary text" {
		t.Errorf("Analysis = %q", created.Analysis)
	}
	if created.Processing == nil || created.Processing.Model != "heuristic-v1" {
		t.Errorf("Processing = %+v", created.Processing)
	}
}

func TestLifecycleFailure(t *testing.T) {
	created := New(testSource(), "content", testTime)

	if err := created.BeginProcessing(); err != nil {
		t.Fatalf("BeginProcessing: %v", err)
	}
	if err := created.Fail("summarizer unavailable"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if created.Status != StatusFailed {
		t.Fatalf("Status = %q, want failed", created.Status)
	}
	if created.Error != "summarizer unavailable" {
		t.Errorf("Error = %q", created.Error)
	}
}

func TestIllegalTransitionsRejected(t *testing.T) {
	created := New(testSource(), "content", testTime)

	// pending → failed is not a legal move.
	if err := created.Fail("nope"); err == nil {
		t.Fatal("Fail on a pending task should be rejected")
	}
	if created.Status != StatusPending {
		t.Errorf("Status = %q, rejected transition must not mutate", created.Status)
	}

	// Terminal states are final.
	created.Status = StatusCompleted
	if err := created.BeginProcessing(); err == nil {
		t.Fatal("BeginProcessing on a completed task should be rejected")
	}
}

func TestValidate(t *testing.T) {
	valid := New(testSource(), "content", testTime)
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate on a fresh task: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Task)
	}{
		{"missing id", func(x *Task) { x.ID = "" }},
		{"malformed id", func(x *Task) { x.ID = "ticket-123" }},
		{"missing status", func(x *Task) { x.Status = "" }},
		{"unknown status", func(x *Task) { x.Status = "archived" }},
		{"missing source name", func(x *Task) { x.Source.Name = "" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			broken := New(testSource(), "content", testTime)
			c.mutate(broken)
			if err := broken.Validate(); err == nil {
				t.Fatalf("Validate should reject %s", c.name)
			}
		})
	}
}

func TestAddFlags(t *testing.T) {
	created := New(testSource(), "content", testTime)

	created.AddFlags("high_value", "follow_up")
	created.AddFlags("high_value", "urgent")

	want := []string{"high_value", "follow_up", "urgent"}
	if len(created.Flags) != len(want) {
		t.Fatalf("Flags = %v, want %v", created.Flags, want)
	}
	for i := range want {
		if created.Flags[i] != want[i] {
			t.Fatalf("Flags = %v, want %v", created.Flags, want)
		}
	}
}
