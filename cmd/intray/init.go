// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/intray-io/intray/cmd/intray/cli"
	"github.com/intray-io/intray/lib/atomicfile"
	"github.com/intray-io/intray/lib/clock"
	"github.com/intray-io/intray/lib/report"
	"github.com/intray-io/intray/lib/rules"
	"github.com/intray-io/intray/lib/vault"
)

// initCommand returns the "init" subcommand.
func initCommand() *cli.Command {
	var vaultDir string

	return &cli.Command{
		Name:    "init",
		Summary: "Scaffold a vault directory",
		Description: `Create the vault directory layout.

Creates Inbox/, Needs_Action/, Done/, Archive/ and Logs/, writes a
starter Company_Handbook.md when none exists, and renders an initial
Dashboard.md. Running init on an existing vault is safe: directories
are repaired, files already present are left alone.`,
		Usage: "intray init --vault <dir>",
		Examples: []cli.Example{
			{
				Description: "Create a vault in the current directory",
				Command:     "intray init",
			},
			{
				Description: "Create a vault at a specific path",
				Command:     "intray init --vault ~/vault",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("init", pflag.ContinueOnError)
			vaultFlag(flagSet, &vaultDir)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			layout := vault.NewLayout(vaultDir)
			if err := os.MkdirAll(layout.Root, 0755); err != nil {
				return fmt.Errorf("creating vault root: %w", err)
			}
			if err := layout.EnsureDirectories(); err != nil {
				return err
			}

			created, err := writeIfMissing(layout.Handbook(), []byte(rules.DefaultHandbook()))
			if err != nil {
				return err
			}
			if created {
				logger.Info("wrote starter handbook", "path", layout.Handbook())
			}

			// A dashboard is only rendered when absent so re-running
			// init never clobbers accumulated statistics.
			if _, err := os.Stat(layout.Dashboard()); errors.Is(err, fs.ErrNotExist) {
				rep := report.New(layout, clock.Real(), logger)
				if err := rep.Recompute(); err != nil {
					return err
				}
				if err := rep.Render(); err != nil {
					return err
				}
			}

			fmt.Printf("Initialized vault at %s\n", layout.Root)
			return nil
		},
	}
}

// writeIfMissing writes data to path unless the file already exists.
// Reports whether it wrote.
func writeIfMissing(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
