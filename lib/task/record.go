// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"
	"strings"

	"github.com/intray-io/intray/lib/frontmatter"
)

const (
	originalSectionHeader = "## Original Content"
	analysisSectionHeader = "## AI Analysis"

	// AnalysisPlaceholder stands in for the analysis section of a
	// record that has not been processed yet.
	AnalysisPlaceholder = "[To be generated by AI processing]"
)

// Encode renders the task as a markdown record: yaml frontmatter
// followed by the original-content and analysis sections. An empty
// Analysis is persisted as the placeholder so the record reads
// sensibly in an editor.
func (t *Task) Encode() ([]byte, error) {
	analysis := t.Analysis
	if analysis == "" {
		analysis = AnalysisPlaceholder
	}

	var body strings.Builder
	body.WriteString(originalSectionHeader)
	body.WriteString("\n\n")
	if t.OriginalContent != "" {
		body.WriteString(t.OriginalContent)
		body.WriteString("\n")
	}
	body.WriteString("\n")
	body.WriteString(analysisSectionHeader)
	body.WriteString("\n\n")
	body.WriteString(analysis)
	body.WriteString("\n")

	return frontmatter.Encode(t, body.String())
}

// Decode parses a record into a Task and validates it. Any failure
// (missing frontmatter, bad yaml, violated invariants) means the
// record is corrupt from the pipeline's point of view.
func Decode(data []byte) (*Task, error) {
	var t Task
	body, err := frontmatter.Decode(data, &t)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	t.OriginalContent, t.Analysis = splitBody(body)
	if t.Analysis == AnalysisPlaceholder {
		t.Analysis = ""
	}
	return &t, nil
}

// splitBody separates the record body into its original-content and
// analysis sections. A hand-edited body without section headers is
// treated as original content in full.
func splitBody(body string) (original, analysis string) {
	original = body
	if index := sectionIndex(body, analysisSectionHeader); index >= 0 {
		original = body[:index]
		analysis = strings.TrimSpace(strings.TrimPrefix(body[index:], analysisSectionHeader))
	}
	original = strings.TrimSpace(original)
	original = strings.TrimSpace(strings.TrimPrefix(original, originalSectionHeader))
	return original, analysis
}

// sectionIndex finds a markdown header at the start of a line.
func sectionIndex(body, header string) int {
	if strings.HasPrefix(body, header) {
		return 0
	}
	index := strings.Index(body, "\n"+header)
	if index < 0 {
		return -1
	}
	return index + 1
}

// CorruptError marks a record that could not be parsed or that violates
// the record invariants. The pipeline quarantines the file instead of
// processing it.
type CorruptError struct {
	// Path is the record file that failed to load.
	Path string
	// Reason is the underlying decode or validation failure.
	Reason error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt task record %s: %v", e.Path, e.Reason)
}

func (e *CorruptError) Unwrap() error { return e.Reason }
