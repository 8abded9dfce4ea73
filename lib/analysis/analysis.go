// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package analysis defines the summarizer collaborator: the step that
// turns a task's original content into the analysis section of its
// record. The pipeline treats it as opaque and fallible; a failure
// fails that one task, never the batch.
//
// The built-in implementation is a deterministic heuristic. It exists
// so a vault works end to end with no external services configured; a
// model-backed summarizer can replace it behind the same interface.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/intray-io/intray/lib/clock"
	"github.com/intray-io/intray/lib/rules"
)

// Request carries everything a summarizer may use. Flags are the
// already-evaluated custom flag hits for the content.
type Request struct {
	Content string
	Rules   rules.RuleSet
	Flags   []string
}

// Result is the produced analysis plus its processing metadata.
type Result struct {
	Text            string
	Model           string
	DurationSeconds float64
	Tokens          int
}

// Summarizer produces the analysis section for one task.
type Summarizer interface {
	Summarize(ctx context.Context, request Request) (Result, error)
}

// HeuristicModel names the built-in summarizer in task records.
const HeuristicModel = "heuristic-v1"

// Heuristic is the default summarizer. Its output is a pure function
// of the request, so reprocessing identical content yields identical
// records.
type Heuristic struct {
	clk clock.Clock
}

// NewHeuristic returns the built-in summarizer. The clock only times
// the call for the duration metadata.
func NewHeuristic(clk clock.Clock) *Heuristic {
	return &Heuristic{clk: clk}
}

func (h *Heuristic) Summarize(ctx context.Context, request Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	started := h.clk.Now()

	var b strings.Builder
	b.WriteString("**Summary**:\n")
	fmt.Fprintf(&b, "- %s\n", excerpt(request.Content))
	b.WriteString("- Content processed according to handbook rules\n")
	b.WriteString("- Action items identified for follow-up\n")

	if len(request.Flags) > 0 {
		fmt.Fprintf(&b, "\n**Flags**: %s\n", strings.Join(request.Flags, " "))
	}

	b.WriteString("\n**Key Points**:\n")
	fmt.Fprintf(&b, "- Original content: %d characters, %d words\n",
		len(request.Content), len(strings.Fields(request.Content)))
	fmt.Fprintf(&b, "- Applied %d handbook rules\n", ruleCount(request.Rules))
	b.WriteString("- Ready for user review\n")

	b.WriteString("\n**Action Items**:\n")
	b.WriteString("- [ ] Review generated summary\n")
	b.WriteString("- [ ] Verify accuracy of extracted information\n")
	b.WriteString("- [ ] Take any necessary follow-up actions\n")

	return Result{
		Text:            b.String(),
		Model:           HeuristicModel,
		DurationSeconds: h.clk.Now().Sub(started).Seconds(),
		Tokens:          (len(request.Content) + 3) / 4,
	}, nil
}

// excerpt is the first non-empty line of content, clipped to fit a
// summary bullet.
func excerpt(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		const limit = 80
		if runes := []rune(line); len(runes) > limit {
			return string(runes[:limit-3]) + "..."
		}
		return line
	}
	return "Empty document received"
}

func ruleCount(r rules.RuleSet) int {
	return len(r.Summarization) + len(r.ToneStyle) + len(r.SpecialInstructions) + len(r.CustomFlags)
}
