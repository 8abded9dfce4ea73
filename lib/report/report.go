// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package report maintains the vault dashboard: aggregate statistics
// over the task stores plus a short recent-activity feed, rendered to
// Dashboard.md and to the terminal.
//
// The dashboard is a derived view. Recompute rebuilds every statistic
// from the records on disk, so a hand-edited or even deleted
// Dashboard.md never becomes a source of drift: the next render
// regenerates the whole document. The Bump methods exist only to keep
// the numbers responsive mid-batch; the recompute at the end of the
// batch is authoritative.
package report

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/intray-io/intray/lib/atomicfile"
	"github.com/intray-io/intray/lib/clock"
	"github.com/intray-io/intray/lib/errlog"
	"github.com/intray-io/intray/lib/task"
	"github.com/intray-io/intray/lib/vault"
)

// Status glyphs used in the summary bullets and the activity table.
const (
	GlyphCompleted = "✅"
	GlyphPending   = "⏳"
	GlyphFailed    = "❌"
)

const (
	// maxActivityEntries bounds the recent-activity feed.
	maxActivityEntries = 10

	// activitySummaryLimit bounds the summary column, in runes, so one
	// verbose analysis cannot stretch the table.
	activitySummaryLimit = 50
)

// Stats are the aggregate counters shown on the dashboard.
type Stats struct {
	// CompletedToday is the number of records in the completed store.
	CompletedToday int

	// PendingToday is the number of records in the pending store.
	PendingToday int

	// FailedToday is the number of error records in the log directory.
	FailedToday int

	// TotalProcessed mirrors CompletedToday: the completed store is the
	// durable register of processed work.
	TotalProcessed int

	// AverageDurationSeconds is the mean analysis time over completed
	// tasks that carry processing metadata. Zero when none do.
	AverageDurationSeconds float64

	// SuccessRatePercent is completed / (completed + failed) * 100.
	// With nothing processed yet there is nothing to hold against the
	// pipeline, so the rate reports 100.
	SuccessRatePercent float64

	// MostCommonType is the display form of the majority analysis
	// category among completed tasks, "N/A" when there are none.
	MostCommonType string
}

// Activity is one row in the dashboard's recent-activity table.
type Activity struct {
	// Time is the entry's UTC wall-clock stamp, HH:MM.
	Time string

	// TaskID is the record name without extension; the dashboard links
	// it as [[TaskID|DisplayName]].
	TaskID string

	// DisplayName is the human-facing name, usually the source file.
	DisplayName string

	// Status is one of the Glyph constants.
	Status string

	// Summary is a short description of what happened.
	Summary string
}

// Report aggregates vault statistics and renders the dashboard. Not
// safe for concurrent use; the pipeline and the CLI drive it from a
// single goroutine.
type Report struct {
	layout vault.Layout
	store  *task.Store
	clk    clock.Clock
	logger *slog.Logger

	stats    Stats
	activity []Activity
}

// New returns a report for the vault at layout. The initial statistics
// are the empty-vault values; call Recompute to load real ones.
func New(layout vault.Layout, clk clock.Clock, logger *slog.Logger) *Report {
	return &Report{
		layout: layout,
		store:  task.NewStore(layout),
		clk:    clk,
		logger: logger,
		stats: Stats{
			SuccessRatePercent: 100,
			MostCommonType:     "N/A",
		},
	}
}

// Stats returns the current aggregate counters.
func (r *Report) Stats() Stats { return r.stats }

// RecentActivity returns the activity feed, most recent first.
func (r *Report) RecentActivity() []Activity { return slices.Clone(r.activity) }

// Recompute rebuilds every statistic from the records on disk. The
// activity feed is left alone: it describes what this process did, not
// what the vault contains.
//
// A completed record that cannot be parsed still counts toward the
// completed total; it just contributes no duration or category.
func (r *Report) Recompute() error {
	pending, err := r.store.ListPending()
	if err != nil {
		return fmt.Errorf("report: listing pending tasks: %w", err)
	}
	completed, err := r.store.ListCompleted()
	if err != nil {
		return fmt.Errorf("report: listing completed tasks: %w", err)
	}
	failed, err := errlog.Count(r.layout.Logs())
	if err != nil {
		return fmt.Errorf("report: counting error records: %w", err)
	}

	stats := Stats{
		PendingToday:   len(pending),
		CompletedToday: len(completed),
		FailedToday:    failed,
		TotalProcessed: len(completed),
	}

	var durationTotal float64
	var durationCount int
	typeCounts := make(map[task.Category]int)
	var typeOrder []task.Category
	for _, path := range completed {
		record, err := r.store.Load(path)
		if err != nil {
			r.logger.Warn("skipping unreadable completed record",
				"path", path, "error", err)
			continue
		}
		if record.Processing != nil {
			durationTotal += record.Processing.DurationSeconds
			durationCount++
		}
		if record.Category != "" {
			if _, seen := typeCounts[record.Category]; !seen {
				typeOrder = append(typeOrder, record.Category)
			}
			typeCounts[record.Category]++
		}
	}
	if durationCount > 0 {
		stats.AverageDurationSeconds = durationTotal / float64(durationCount)
	}
	stats.SuccessRatePercent = successRate(stats.CompletedToday, stats.FailedToday)
	stats.MostCommonType = mostCommonType(typeCounts, typeOrder)

	r.stats = stats
	return nil
}

// BumpCompleted adjusts the counters for one task moving from pending
// to completed, without touching disk.
func (r *Report) BumpCompleted() {
	r.stats.CompletedToday++
	r.stats.TotalProcessed++
	if r.stats.PendingToday > 0 {
		r.stats.PendingToday--
	}
}

// BumpFailed adjusts the counters for one task moving from pending to
// failed, without touching disk.
func (r *Report) BumpFailed() {
	r.stats.FailedToday++
	if r.stats.PendingToday > 0 {
		r.stats.PendingToday--
	}
}

// RecordActivity prepends an entry to the recent-activity feed,
// stamping it with the current UTC time. The feed keeps the ten most
// recent entries and lives only as long as the process; it is not
// reconstructed from disk.
func (r *Report) RecordActivity(taskID, displayName, status, summary string) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = "Unknown"
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = "No summary available"
	}
	if runes := []rune(summary); len(runes) > activitySummaryLimit {
		summary = string(runes[:activitySummaryLimit])
	}
	entry := Activity{
		Time:        r.clk.Now().UTC().Format("15:04"),
		TaskID:      taskID,
		DisplayName: displayName,
		Status:      status,
		Summary:     summary,
	}
	r.activity = append([]Activity{entry}, r.activity...)
	if len(r.activity) > maxActivityEntries {
		r.activity = r.activity[:maxActivityEntries]
	}
}

// Render regenerates Dashboard.md in full and replaces it atomically.
func (r *Report) Render() error {
	if err := atomicfile.WriteFile(r.layout.Dashboard(), []byte(r.Markdown()), 0o644); err != nil {
		return fmt.Errorf("report: writing dashboard: %w", err)
	}
	return nil
}

// Markdown renders the dashboard document. The activity table escapes
// the alias separator in wiki links so the markdown table stays
// well-formed.
func (r *Report) Markdown() string {
	var b strings.Builder

	b.WriteString("# Intray Dashboard\n\n")
	fmt.Fprintf(&b, "**Last Updated**: %s\n\n", r.clk.Now().UTC().Format(time.RFC3339))

	b.WriteString("## Today's Summary\n\n")
	fmt.Fprintf(&b, "- %s Completed: %d tasks\n", GlyphCompleted, r.stats.CompletedToday)
	fmt.Fprintf(&b, "- %s Pending: %d tasks\n", GlyphPending, r.stats.PendingToday)
	fmt.Fprintf(&b, "- %s Failed: %d tasks\n\n", GlyphFailed, r.stats.FailedToday)

	b.WriteString("## Recent Activity\n\n")
	b.WriteString("| Time | File | Status | Summary |\n")
	b.WriteString("|------|------|--------|---------|\n")
	if len(r.activity) == 0 {
		b.WriteString("| -- | No activity yet | -- | Drop files in Inbox/ to get started |\n")
	} else {
		for _, entry := range r.activity {
			fmt.Fprintf(&b, "| %s | [[%s\\|%s]] | %s | %s |\n",
				entry.Time, entry.TaskID, entry.DisplayName, entry.Status, entry.Summary)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Statistics\n\n")
	fmt.Fprintf(&b, "- **Total tasks processed**: %d\n", r.stats.TotalProcessed)
	fmt.Fprintf(&b, "- **Average processing time**: %ds\n", int(r.stats.AverageDurationSeconds))
	fmt.Fprintf(&b, "- **Success rate**: %.1f%%\n", r.stats.SuccessRatePercent)
	fmt.Fprintf(&b, "- **Most common type**: %s\n\n", r.stats.MostCommonType)

	b.WriteString("## Quick Links\n\n")
	b.WriteString("- [[Company_Handbook]] - Edit processing rules\n")
	b.WriteString("- [[Needs_Action/]] - View pending tasks\n")
	b.WriteString("- [[Done/]] - View completed tasks\n")
	b.WriteString("- [[Logs/]] - View error logs\n")

	return b.String()
}

// successRate is the percentage of processed tasks that completed.
func successRate(completed, failed int) float64 {
	total := completed + failed
	if total == 0 {
		return 100
	}
	return float64(completed) / float64(total) * 100
}

// mostCommonType picks the category with the highest count, breaking
// ties in favor of the category seen first, and formats it for display.
func mostCommonType(counts map[task.Category]int, order []task.Category) string {
	best := ""
	bestCount := 0
	for _, category := range order {
		if counts[category] > bestCount {
			best = string(category)
			bestCount = counts[category]
		}
	}
	if best == "" {
		return "N/A"
	}
	return displayType(best)
}

// displayType turns a snake_case category into spaced title case:
// "text_note" becomes "Text Note".
func displayType(category string) string {
	words := strings.Split(category, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
