// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the intray
// binary.
//
// The central type is [Command]: a named subcommand with an optional
// [pflag.FlagSet] factory, nested subcommands, and a Run function that
// receives the process context and a structured logger. The tree is
// assembled in cmd/intray/main.go and dispatched via
// [Command.Execute], which handles flag parsing, routing, and help
// output.
//
// Unknown subcommands and flags produce a "did you mean" suggestion
// based on Levenshtein edit distance (see suggest.go).
package cli
