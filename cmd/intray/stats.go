// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/intray-io/intray/cmd/intray/cli"
	"github.com/intray-io/intray/lib/clock"
	"github.com/intray-io/intray/lib/report"
)

// statsCommand returns the "stats" subcommand.
func statsCommand() *cli.Command {
	var vaultDir string
	var rebuild bool

	return &cli.Command{
		Name:    "stats",
		Summary: "Show vault statistics",
		Description: `Recompute statistics from the vault's files and print them.

Counts come from the files themselves: pending tasks from
Needs_Action/, completed tasks from Done/, failures from the error
records in Logs/. Nothing is trusted from previous runs, so the output
is correct even after hand-editing the vault.

With --rebuild, Dashboard.md is rewritten from the same recomputation.`,
		Usage: "intray stats --vault <dir> [--rebuild]",
		Examples: []cli.Example{
			{
				Description: "Print statistics for the vault",
				Command:     "intray stats --vault ~/vault",
			},
			{
				Description: "Also rewrite Dashboard.md",
				Command:     "intray stats --vault ~/vault --rebuild",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("stats", pflag.ContinueOnError)
			vaultFlag(flagSet, &vaultDir)
			flagSet.BoolVar(&rebuild, "rebuild", false, "rewrite Dashboard.md from the recomputed statistics")
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

			rep := report.New(layout, clock.Real(), logger)
			if err := rep.Recompute(); err != nil {
				return err
			}
			if rebuild {
				if err := rep.Render(); err != nil {
					return err
				}
				logger.Info("dashboard rewritten", "path", layout.Dashboard())
			}

			fmt.Print(rep.RenderTerminal())
			return nil
		},
	}
}
