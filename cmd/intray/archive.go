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
	"github.com/intray-io/intray/lib/archive"
	"github.com/intray-io/intray/lib/clock"
)

// archiveCommand returns the "archive" subcommand.
func archiveCommand() *cli.Command {
	var vaultDir string
	var olderThan time.Duration
	var execute bool
	var restore string

	return &cli.Command{
		Name:    "archive",
		Summary: "Compress old completed task records",
		Description: `Move old completed task records into compressed archive files.

Records in Done/ whose last modification is older than the cutoff are
zstd-compressed into Archive/ and removed from Done/. The compressed
copy holds the record bytes verbatim; --restore brings a record back
unchanged.

Without --execute this is a dry run that only lists what would be
archived.`,
		Usage: "intray archive --vault <dir> [--older-than <duration>] [--execute]",
		Examples: []cli.Example{
			{
				Description: "List records that have sat in Done/ for over 30 days",
				Command:     "intray archive --vault ~/vault",
			},
			{
				Description: "Archive everything older than a week",
				Command:     "intray archive --vault ~/vault --older-than 168h --execute",
			},
			{
				Description: "Bring an archived record back into Done/",
				Command:     "intray archive --vault ~/vault --restore task-1b9d6bcd.md",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("archive", pflag.ContinueOnError)
			vaultFlag(flagSet, &vaultDir)
			flagSet.DurationVar(&olderThan, "older-than", 720*time.Hour, "age threshold for archiving")
			flagSet.BoolVar(&execute, "execute", false, "archive the listed records (default is a dry run)")
			flagSet.StringVar(&restore, "restore", "", "restore this archived record instead of archiving")
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
			archiver := archive.New(layout, clock.Real(), logger)

			if restore != "" {
				destination, err := archiver.Restore(restore)
				if err != nil {
					return err
				}
				fmt.Printf("Restored %s\n", destination)
				return nil
			}

			candidates, err := archiver.Plan(olderThan)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Printf("No completed records older than %s.\n", olderThan)
				return nil
			}

			fmt.Printf("%d record(s) older than %s:\n", len(candidates), olderThan)
			for _, candidate := range candidates {
				fmt.Printf("  %s (modified %s, %d bytes)\n",
					candidate.Name, candidate.Modified.Format("2006-01-02"), candidate.SizeBytes)
			}

			if !execute {
				fmt.Println("\nDry run: nothing archived. Re-run with --execute to archive.")
				return nil
			}

			summary := archiver.Archive(candidates)
			fmt.Printf("Archived %d record(s) to %s.\n", len(summary.Archived), layout.Archive())
			if len(summary.Failed) > 0 {
				for _, failure := range summary.Failed {
					fmt.Printf("  failed: %s: %s\n", failure.Name, failure.Reason)
				}
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
