// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/pflag"

	"github.com/intray-io/intray/lib/vault"
)

// vaultFlag registers the shared --vault flag. Every command operates
// on one vault; the default is the current directory so running intray
// inside the vault needs no flags.
func vaultFlag(flagSet *pflag.FlagSet, target *string) {
	flagSet.StringVar(target, "vault", ".", "vault root directory")
}

// openVault verifies the vault root exists, repairs any missing
// subdirectories, and loads the merged configuration. Shared by every
// command that requires an existing vault; only "intray init" skips
// the check because it creates the root.
func openVault(root string) (vault.Layout, vault.Config, error) {
	layout := vault.NewLayout(root)
	if err := layout.Check(); err != nil {
		return vault.Layout{}, vault.Config{}, err
	}
	if err := layout.EnsureDirectories(); err != nil {
		return vault.Layout{}, vault.Config{}, err
	}
	config, err := vault.LoadConfig(layout.ConfigFile())
	if err != nil {
		return vault.Layout{}, vault.Config{}, err
	}
	return layout, config, nil
}
