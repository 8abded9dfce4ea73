// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Command intray manages a vault: a directory of plain markdown files
// where dropped inbox files become task records, batches of pending
// tasks get processed, and a dashboard tracks the results.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/intray-io/intray/cmd/intray/cli"
	"github.com/intray-io/intray/lib/version"
)

func main() {
	if err := run(); err != nil {
		// Commands that already printed their own report (cleanup with
		// failed deletions, for example) return an ExitError with the
		// desired code. Don't print a redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args, verbose := splitVerbose(os.Args[1:])
	logger := cli.NewCommandLogger(verbose)
	return root().Execute(ctx, args, logger)
}

// splitVerbose pulls the global --verbose flag out of args so every
// subcommand honors it without declaring it in its own flag set.
func splitVerbose(args []string) ([]string, bool) {
	filtered := make([]string, 0, len(args))
	verbose := false
	for _, arg := range args {
		if arg == "--verbose" {
			verbose = true
			continue
		}
		filtered = append(filtered, arg)
	}
	return filtered, verbose
}

// root builds the complete intray command tree.
func root() *cli.Command {
	return &cli.Command{
		Name: "intray",
		Description: `Intray: inbox-to-task pipeline for plain-file vaults.

Watches a vault's Inbox/ directory, turns dropped files into markdown
task records in Needs_Action/, processes pending tasks in batches, and
keeps Dashboard.md current with statistics recomputed from the files
themselves. Everything the pipeline knows lives in ordinary files, so
any editor can inspect or fix the vault.`,
		Subcommands: []*cli.Command{
			initCommand(),
			watchCommand(),
			processCommand(),
			statsCommand(),
			cleanupCommand(),
			archiveCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					fmt.Printf("intray %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Scaffold a new vault",
				Command:     "intray init --vault ~/vault",
			},
			{
				Description: "Watch the inbox and process every five minutes",
				Command:     "intray watch --vault ~/vault --every 5m",
			},
			{
				Description: "Process pending tasks once",
				Command:     "intray process --vault ~/vault",
			},
			{
				Description: "Show vault statistics",
				Command:     "intray stats --vault ~/vault",
			},
		},
	}
}
