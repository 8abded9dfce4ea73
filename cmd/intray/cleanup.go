// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/intray-io/intray/cmd/intray/cli"
	"github.com/intray-io/intray/lib/cleanup"
	"github.com/intray-io/intray/lib/clock"
	"github.com/intray-io/intray/lib/ledger"
)

// cleanupCommand returns the "cleanup" subcommand.
func cleanupCommand() *cli.Command {
	var vaultDir string
	var execute bool
	var yes bool

	return &cli.Command{
		Name:    "cleanup",
		Summary: "Delete processed files from the inbox",
		Description: `Delete inbox files whose tasks completed.

A file is deleted only when three proofs line up: the ledger has an
entry for it, the entry's task record sits in Done/, and the record's
stored checksum matches the file's current content. Anything edited
after ingestion, still pending, or unknown to the ledger is left
alone.

Without --execute this is a dry run that only lists what would be
deleted. With --execute, a confirmation prompt precedes deletion
unless --yes is given.`,
		Usage: "intray cleanup --vault <dir> [--execute] [--yes]",
		Examples: []cli.Example{
			{
				Description: "List inbox files that are safe to delete",
				Command:     "intray cleanup --vault ~/vault",
			},
			{
				Description: "Delete them, answering the prompt interactively",
				Command:     "intray cleanup --vault ~/vault --execute",
			},
			{
				Description: "Delete without prompting (cron)",
				Command:     "intray cleanup --vault ~/vault --execute --yes",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cleanup", pflag.ContinueOnError)
			vaultFlag(flagSet, &vaultDir)
			flagSet.BoolVar(&execute, "execute", false, "delete the verified files (default is a dry run)")
			flagSet.BoolVar(&yes, "yes", false, "skip the confirmation prompt")
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
			cleaner := cleanup.New(layout, ldg, logger)

			candidates, err := cleaner.Plan()
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Println("Nothing to clean: no inbox files verified as processed.")
				return nil
			}

			fmt.Printf("%d inbox file(s) verified as processed:\n", len(candidates))
			for _, candidate := range candidates {
				fmt.Printf("  %s (task %s)\n", candidate.Filename, candidate.TaskID)
			}

			if !execute {
				fmt.Println("\nDry run: nothing deleted. Re-run with --execute to delete.")
				return nil
			}

			if !yes {
				confirmed, err := confirm(fmt.Sprintf("\nDelete %d file(s) from %s?", len(candidates), layout.Inbox()))
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Println("Aborted.")
					return nil
				}
			}

			summary := cleaner.Delete(candidates)
			fmt.Printf("Deleted %d file(s).\n", len(summary.Deleted))
			if len(summary.Failed) > 0 {
				for _, failure := range summary.Failed {
					fmt.Printf("  failed: %s: %s\n", failure.Filename, failure.Reason)
				}
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// confirm prints a [y/N] prompt and reads one line from stdin. Only an
// explicit "y" or "yes" counts as confirmation.
func confirm(prompt string) (bool, error) {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
