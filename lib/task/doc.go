// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package task defines the task record model, its lifecycle state
// machine, and the filesystem store for records in the vault.
//
// A task record is a markdown file with yaml frontmatter (see
// lib/frontmatter). Records are the single source of truth between
// operations: everything the pipeline knows about a task is reloadable
// from its file, and the dashboard is recomputable from the record
// directories alone.
package task
