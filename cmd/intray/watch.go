// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/intray-io/intray/cmd/intray/cli"
	"github.com/intray-io/intray/lib/analysis"
	"github.com/intray-io/intray/lib/clock"
	"github.com/intray-io/intray/lib/creator"
	"github.com/intray-io/intray/lib/errlog"
	"github.com/intray-io/intray/lib/inbox"
	"github.com/intray-io/intray/lib/ledger"
	"github.com/intray-io/intray/lib/pipeline"
	"github.com/intray-io/intray/lib/report"
	"github.com/intray-io/intray/lib/task"
)

// watchCommand returns the "watch" subcommand.
func watchCommand() *cli.Command {
	var vaultDir string
	var every time.Duration

	return &cli.Command{
		Name:    "watch",
		Summary: "Watch the inbox and create tasks",
		Description: `Run the inbox watcher until interrupted.

Every file dropped into Inbox/ becomes a pending task record in
Needs_Action/, after debounce, size, and extension checks. Files
already in the inbox at startup are swept through the same path, so
nothing dropped while the watcher was down is missed.

With --every, a processing pass also runs on that interval, draining
pending tasks without a separate "intray process" loop.`,
		Usage: "intray watch --vault <dir> [--every <duration>]",
		Examples: []cli.Example{
			{
				Description: "Watch the inbox, creating tasks only",
				Command:     "intray watch --vault ~/vault",
			},
			{
				Description: "Watch and process pending tasks every five minutes",
				Command:     "intray watch --vault ~/vault --every 5m",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			vaultFlag(flagSet, &vaultDir)
			flagSet.DurationVar(&every, "every", 0, "also process pending tasks on this interval (0 disables)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			layout, config, err := openVault(vaultDir)
			if err != nil {
				return err
			}

			clk := clock.Real()
			store := task.NewStore(layout)
			ldg := ledger.Open(layout.Ledger(), clk, logger)
			recorder := errlog.NewRecorder(layout.Logs(), clk, logger)
			taskCreator := creator.New(store, ldg, clk, logger)
			handler := inbox.NewHandler(taskCreator, recorder, config, clk, logger)
			watcher := inbox.NewWatcher(layout.Inbox(), handler, logger)

			if every > 0 {
				rep := report.New(layout, clk, logger)
				pipe := pipeline.New(layout, ldg, analysis.NewHeuristic(clk), rep, clk, logger)
				go func() {
					if err := pipe.RunEvery(ctx, every); err != nil {
						logger.Error("processing loop stopped", "error", err)
					}
				}()
			}

			logger.Info("watch starting", "vault", layout.Root, "every", every)
			return watcher.Run(ctx)
		},
	}
}
