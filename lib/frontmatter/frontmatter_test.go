// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package frontmatter

import (
	"errors"
	"strings"
	"testing"
)

type recordFields struct {
	ID     string `yaml:"id"`
	Status string `yaml:"status"`
	Count  int    `yaml:"count,omitempty"`
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	fields := recordFields{ID: "task-abc", Status: "pending", Count: 3}
	body := "## Original Content\n\nhello\n"

	data, err := Encode(fields, body)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded recordFields
	gotBody, err := Decode(data, &decoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded != fields {
		t.Errorf("fields = %+v, want %+v", decoded, fields)
	}
	if gotBody != body {
		t.Errorf("body = %q, want %q", gotBody, body)
	}
}

func TestEncodeAddsTrailingNewline(t *testing.T) {
	data, err := Encode(recordFields{ID: "task-x"}, "no trailing newline")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasSuffix(string(data), "no trailing newline\n") {
		t.Errorf("output should end with a newline, got %q", data)
	}
}

func TestDecodeHandEditedRecord(t *testing.T) {
	// A record as a user's editor might save it.
	raw := "---\nid: task-42\nstatus: completed\n---\n\nSome body text.\n"

	var fields recordFields
	body, err := Decode([]byte(raw), &fields)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if fields.ID != "task-42" || fields.Status != "completed" {
		t.Errorf("fields = %+v", fields)
	}
	if body != "Some body text.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestDecodeClosingFenceAtEOF(t *testing.T) {
	raw := "---\nid: task-9\nstatus: pending\n---"

	var fields recordFields
	body, err := Decode([]byte(raw), &fields)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if fields.ID != "task-9" {
		t.Errorf("ID = %q, want task-9", fields.ID)
	}
	if body != "" {
		t.Errorf("body = %q, want empty", body)
	}
}

func TestDecodeEmptyFrontmatter(t *testing.T) {
	raw := "---\n---\nbody only\n"

	var fields recordFields
	body, err := Decode([]byte(raw), &fields)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if fields.ID != "" {
		t.Errorf("ID = %q, want empty", fields.ID)
	}
	if body != "body only\n" {
		t.Errorf("body = %q", body)
	}
}

func TestDecodeMissingOpeningFence(t *testing.T) {
	var fields recordFields
	_, err := Decode([]byte("just some text\n"), &fields)
	if !errors.Is(err, ErrMissingFrontmatter) {
		t.Fatalf("error = %v, want ErrMissingFrontmatter", err)
	}
}

func TestDecodeMissingClosingFence(t *testing.T) {
	var fields recordFields
	_, err := Decode([]byte("---\nid: task-1\nno closing fence\n"), &fields)
	if !errors.Is(err, ErrMissingFrontmatter) {
		t.Fatalf("error = %v, want ErrMissingFrontmatter", err)
	}
}

func TestDecodeMalformedYAML(t *testing.T) {
	var fields recordFields
	_, err := Decode([]byte("---\nid: [unclosed\n---\n\nbody\n"), &fields)
	if err == nil {
		t.Fatal("Decode should fail on malformed yaml")
	}
	if errors.Is(err, ErrMissingFrontmatter) {
		t.Fatal("yaml parse failure should be distinct from a missing block")
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	var fields recordFields
	_, err := Decode(nil, &fields)
	if !errors.Is(err, ErrMissingFrontmatter) {
		t.Fatalf("error = %v, want ErrMissingFrontmatter", err)
	}
}
