// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/intray-io/intray/cmd/intray/cli"
	"github.com/intray-io/intray/lib/analysis"
	"github.com/intray-io/intray/lib/clock"
	"github.com/intray-io/intray/lib/ledger"
	"github.com/intray-io/intray/lib/pipeline"
	"github.com/intray-io/intray/lib/report"
)

// processCommand returns the "process" subcommand.
func processCommand() *cli.Command {
	var vaultDir string
	var every time.Duration

	return &cli.Command{
		Name:    "process",
		Summary: "Process pending tasks",
		Description: `Run pending task records through the processing pipeline.

Each record in Needs_Action/ is analyzed against the handbook rules,
completed, and moved to Done/. A failing task is marked failed in
place; the rest of the batch continues. Dashboard.md is rewritten when
the batch finishes.

By default one batch runs and the command exits. With --every, batches
repeat on that interval until interrupted.`,
		Usage: "intray process --vault <dir> [--every <duration>]",
		Examples: []cli.Example{
			{
				Description: "Process the current backlog once",
				Command:     "intray process --vault ~/vault",
			},
			{
				Description: "Keep processing every minute",
				Command:     "intray process --vault ~/vault --every 1m",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("process", pflag.ContinueOnError)
			vaultFlag(flagSet, &vaultDir)
			flagSet.DurationVar(&every, "every", 0, "repeat batches on this interval (0 runs once)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			layout, _, err := openVault(vaultDir)
			if err != nil {
				return err
			}

			clk := clock.Real()
			ldg := ledger.Open(layout.Ledger(), clk, logger)
			rep := report.New(layout, clk, logger)
			pipe := pipeline.New(layout, ldg, analysis.NewHeuristic(clk), rep, clk, logger)

			if every > 0 {
				logger.Info("processing on interval", "vault", layout.Root, "every", every)
				return pipe.RunEvery(ctx, every)
			}

			summary, err := pipe.ProcessAll(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Printf("Succeeded: %d / Failed: %d\n", summary.Succeeded, summary.Failed)
			return nil
		},
	}
}
