// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package inbox

// Disposition is the outcome of handling one inbox file event.
type Disposition int

const (
	// DispositionCreated: a new task record was written.
	DispositionCreated Disposition = iota
	// DispositionAlreadyProcessed: the ledger had seen the filename, so
	// the event was a no-op.
	DispositionAlreadyProcessed
	// DispositionDebounced: a duplicate event inside the debounce
	// window, dropped without touching the file.
	DispositionDebounced
	// DispositionSkipped: not a candidate. Directories, unsupported
	// extensions, and files that vanished before or during handling.
	DispositionSkipped
	// DispositionRejected: refused with an error record. Oversized
	// files and permission failures.
	DispositionRejected
	// DispositionFailed: creation was attempted and did not succeed.
	DispositionFailed
)

func (d Disposition) String() string {
	switch d {
	case DispositionCreated:
		return "created"
	case DispositionAlreadyProcessed:
		return "already_processed"
	case DispositionDebounced:
		return "debounced"
	case DispositionSkipped:
		return "skipped"
	case DispositionRejected:
		return "rejected"
	case DispositionFailed:
		return "failed"
	}
	return "unknown"
}
