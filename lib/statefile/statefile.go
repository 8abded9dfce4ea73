// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package statefile provides a single-file JSON state store with
// load-fully, mutate-in-memory, atomic-rewrite semantics.
//
// The store holds one value of a caller-chosen type. Every mutation
// reads the whole file, applies a function to the decoded value, and
// atomically replaces the file. This is safe for a single process and
// deliberately nothing more; the pipeline's concurrency model never has
// two writers of the same state file.
//
// Reads are tolerant of JSON comments and trailing commas so that a
// hand-edited state file still loads. Genuinely undecodable content is
// reported as a *DecodeError; the policy for handling that (fail, or
// reset with a warning) belongs to the caller.
package statefile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/intray-io/intray/lib/atomicfile"
)

// Store manages one JSON state file holding a value of type T.
type Store[T any] struct {
	path string
}

// New returns a Store over the file at path. The file need not exist;
// a missing file loads as the zero value of T.
func New[T any](path string) *Store[T] {
	return &Store[T]{path: path}
}

// Path returns the state file location.
func (s *Store[T]) Path() string { return s.path }

// Load reads and decodes the current state. A missing file yields the
// zero value of T with no error. Content that does not decode yields
// a *DecodeError so the caller can decide between failing and
// resetting.
func (s *Store[T]) Load() (T, error) {
	var state T

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, fmt.Errorf("reading state file %s: %w", s.path, err)
	}

	// jsonc strips comments and trailing commas; valid plain JSON
	// passes through unchanged.
	if err := json.Unmarshal(jsonc.ToJSON(data), &state); err != nil {
		var zero T
		return zero, &DecodeError{Path: s.path, Reason: err}
	}
	return state, nil
}

// Save atomically replaces the state file with the given value,
// pretty-printed for hand inspection.
func (s *Store[T]) Save(state T) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	data = append(data, '\n')

	if err := atomicfile.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing state file %s: %w", s.path, err)
	}
	return nil
}

// Mutate loads the state, applies fn, and commits the result
// atomically. If fn returns an error the file is left untouched.
// Undecodable existing content propagates as a *DecodeError without
// being overwritten.
func (s *Store[T]) Mutate(fn func(*T) error) error {
	state, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(&state); err != nil {
		return err
	}
	return s.Save(state)
}

// DecodeError marks state file content that could not be decoded.
type DecodeError struct {
	// Path is the state file that failed to decode.
	Path string
	// Reason is the underlying JSON error.
	Reason error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("undecodable state file %s: %v", e.Path, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Reason }
