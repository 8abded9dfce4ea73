// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline drives batch processing of pending tasks: load,
// analyze, transition, relocate, reconcile the dashboard. Failures are
// contained per task; one bad record or one collaborator error never
// stops the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/intray-io/intray/lib/analysis"
	"github.com/intray-io/intray/lib/clock"
	"github.com/intray-io/intray/lib/errlog"
	"github.com/intray-io/intray/lib/ledger"
	"github.com/intray-io/intray/lib/report"
	"github.com/intray-io/intray/lib/rules"
	"github.com/intray-io/intray/lib/task"
	"github.com/intray-io/intray/lib/vault"
)

// Summary is the aggregate outcome of one batch.
type Summary struct {
	Succeeded int
	Failed    int
}

// Pipeline processes pending tasks sequentially. Not safe for
// concurrent use; RunEvery never overlaps batches.
type Pipeline struct {
	layout     vault.Layout
	store      *task.Store
	ledger     *ledger.Ledger
	summarizer analysis.Summarizer
	errors     *errlog.Recorder
	report     *report.Report
	clk        clock.Clock
	logger     *slog.Logger
}

// New returns a pipeline over the vault at layout. The summarizer is
// the analysis collaborator invoked once per task.
func New(layout vault.Layout, ldg *ledger.Ledger, summarizer analysis.Summarizer, rep *report.Report, clk clock.Clock, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		layout:     layout,
		store:      task.NewStore(layout),
		ledger:     ldg,
		summarizer: summarizer,
		errors:     errlog.NewRecorder(layout.Logs(), clk, logger),
		report:     rep,
		clk:        clk,
		logger:     logger,
	}
}

// ProcessAll runs one batch over every pending task. The handbook is
// read once per batch, so rule edits take effect on the next run. The
// dashboard is recomputed and rendered once at the end regardless of
// the outcome, even for an empty batch.
//
// The returned error reports batch-level problems only (listing the
// pending store, cancellation); per-task failures surface in
// Summary.Failed and as error records under Logs/.
func (p *Pipeline) ProcessAll(ctx context.Context) (Summary, error) {
	paths, err := p.store.ListPending()
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	if len(paths) == 0 {
		p.logger.Info("no pending tasks to process")
	} else {
		p.logger.Info("processing pending tasks", "count", len(paths))
		ruleSet := p.loadRules()
		for _, path := range paths {
			if ctx.Err() != nil {
				break
			}
			if p.processOne(ctx, path, ruleSet) {
				summary.Succeeded++
			} else {
				summary.Failed++
			}
		}
	}

	p.publishDashboard()

	p.logger.Info("batch complete",
		"succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, ctx.Err()
}

// RunEvery runs a batch immediately, then one batch per interval until
// the context is cancelled. Each batch runs to completion before the
// next tick is consumed; the ticker drops ticks rather than queueing
// them, so a slow batch delays the schedule instead of stacking runs.
func (p *Pipeline) RunEvery(ctx context.Context, interval time.Duration) error {
	if _, err := p.ProcessAll(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	ticker := p.clk.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := p.ProcessAll(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// processOne runs the lifecycle for a single pending record and
// reports whether it completed. A panicking collaborator is contained
// here: the record is marked failed best-effort and the batch moves
// on.
func (p *Pipeline) processOne(ctx context.Context, path string, ruleSet rules.RuleSet) (succeeded bool) {
	var record *task.Task
	defer func() {
		if r := recover(); r != nil {
			succeeded = false
			p.logger.Error("unexpected failure processing task", "path", path, "panic", r)
			p.recordFailure(fmt.Sprintf("Unexpected error processing task: %s", path),
				errlog.TypeProcessingFailed, fmt.Errorf("panic: %v", r))
			p.markFailedAfterPanic(record, path, fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	p.logger.Info("processing task", "record", filepath.Base(path))

	loaded, err := p.store.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.Error("task record disappeared", "path", path)
			return false
		}
		p.quarantine(path, err)
		return false
	}
	record = loaded

	if err := record.BeginProcessing(); err != nil {
		// A record that is not pending (a completed task copied back
		// by hand, or a processing marker left by a crash) is left
		// where it is rather than forced through the lifecycle.
		p.logger.Warn("skipping record not awaiting processing",
			"record", record.ID, "status", record.Status)
		return false
	}
	if err := p.store.SaveInPlace(path, record); err != nil {
		p.logger.Error("persisting processing status", "record", record.ID, "error", err)
		p.recordFailure(fmt.Sprintf("Unexpected error processing task: %s", path),
			errlog.TypeProcessingFailed, err)
		return false
	}

	flags := ruleSet.Evaluate(record.OriginalContent)
	if len(flags) > 0 {
		record.AddFlags(flags...)
		p.logger.Info("applied flags", "record", record.ID, "flags", strings.Join(flags, ", "))
	}

	result, err := p.summarizer.Summarize(ctx, analysis.Request{
		Content: record.OriginalContent,
		Rules:   ruleSet,
		Flags:   record.Flags,
	})
	if err != nil {
		p.failTask(record, path, err)
		return false
	}

	info := task.ProcessingInfo{
		Model:           result.Model,
		DurationSeconds: result.DurationSeconds,
		Tokens:          result.Tokens,
	}
	if err := record.Complete(result.Text, info); err != nil {
		p.failTask(record, path, err)
		return false
	}
	if err := p.store.SaveInPlace(path, record); err != nil {
		p.logger.Error("persisting completed record", "record", record.ID, "error", err)
		p.recordFailure(fmt.Sprintf("Unexpected error processing task: %s", path),
			errlog.TypeProcessingFailed, err)
		return false
	}

	if _, err := p.store.MoveToCompleted(record.ID); err != nil {
		// The record already says completed; a failed rename only
		// leaves it in the wrong folder. Still counted as a success.
		p.logger.Warn("task processed but not moved", "record", record.ID, "error", err)
	}
	if err := p.ledger.MarkCompleted(record.ID); err != nil {
		p.logger.Error("updating ledger", "record", record.ID, "error", err)
	}

	p.report.BumpCompleted()
	p.report.RecordActivity(record.ID, record.Source.Name, report.GlyphCompleted,
		"Task completed successfully")
	p.logger.Info("completed", "record", record.ID)
	return true
}

// loadRules reads the handbook, falling back to the built-in defaults
// when it cannot be read. A broken handbook must not stop the batch.
func (p *Pipeline) loadRules() rules.RuleSet {
	ruleSet, err := rules.Load(p.layout.Handbook())
	if err != nil {
		p.logger.Warn("loading handbook", "error", err)
		return rules.Defaults()
	}
	return ruleSet
}

// quarantine moves an unreadable or invalid record out of the pending
// store so later batches do not trip over it again, and writes an
// error record for the failure count.
func (p *Pipeline) quarantine(path string, cause error) {
	destination, err := p.store.Quarantine(path)
	if err != nil {
		p.logger.Error("quarantining corrupt record", "path", path, "error", err)
	} else {
		p.logger.Info("moved corrupt record", "from", path, "to", destination)
	}
	p.recordFailure(fmt.Sprintf("Corrupted task file: %s", path), errlog.TypeCorruptRecord, cause)
}

// failTask marks the record failed where it sits, writes an error
// record, and posts the failure to the dashboard. The record stays in
// the pending store so a user can inspect it, fix the cause, and edit
// the status back to pending.
func (p *Pipeline) failTask(record *task.Task, path string, cause error) {
	p.logger.Error("analysis failed", "record", record.ID, "error", cause)
	if err := record.Fail(cause.Error()); err != nil {
		p.logger.Error("marking task failed", "record", record.ID, "error", err)
	} else if err := p.store.SaveInPlace(path, record); err != nil {
		p.logger.Error("persisting failed status", "record", record.ID, "error", err)
	}
	p.recordFailure(fmt.Sprintf("Analysis failed for task: %s", record.ID),
		errlog.TypeProcessingFailed, cause)
	p.report.BumpFailed()
	p.report.RecordActivity(record.ID, record.Source.Name, report.GlyphFailed, failureSummary(cause))
}

// markFailedAfterPanic is best-effort cleanup: if the record was
// loaded and is still mutable, persist the failure so the vault does
// not show a task stuck in processing.
func (p *Pipeline) markFailedAfterPanic(record *task.Task, path, message string) {
	if record == nil {
		return
	}
	if err := record.Fail(message); err != nil {
		return
	}
	if err := p.store.SaveInPlace(path, record); err != nil {
		p.logger.Error("persisting failed status", "record", record.ID, "error", err)
		return
	}
	p.report.BumpFailed()
	p.report.RecordActivity(record.ID, record.Source.Name, report.GlyphFailed,
		failureSummary(errors.New(message)))
}

// publishDashboard reconciles the dashboard with the filesystem and
// writes it. Statistics failures are logged, never escalated; the
// batch outcome stands regardless.
func (p *Pipeline) publishDashboard() {
	if err := p.report.Recompute(); err != nil {
		p.logger.Error("recomputing statistics", "error", err)
	}
	if err := p.report.Render(); err != nil {
		p.logger.Error("rendering dashboard", "error", err)
	}
}

func (p *Pipeline) recordFailure(context, errorType string, cause error) {
	if _, err := p.errors.Write(context, errorType, cause); err != nil {
		p.logger.Error("writing error record", "type", errorType, "error", err)
	}
}

// failureSummary is the activity-feed form of a failure: "Failed: "
// plus the start of the cause message.
func failureSummary(cause error) string {
	message := cause.Error()
	if runes := []rune(message); len(runes) > 30 {
		message = string(runes[:30])
	}
	return "Failed: " + message
}
