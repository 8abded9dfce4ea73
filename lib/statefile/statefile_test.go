// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package statefile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type counterState struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags,omitempty"`
}

func testStatePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "state.json")
}

func TestLoadMissingFileYieldsZeroValue(t *testing.T) {
	store := New[counterState](testStatePath(t))

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.Name != "" || state.Count != 0 {
		t.Errorf("state = %+v, want zero value", state)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := New[counterState](testStatePath(t))

	if err := store.Save(counterState{Name: "inbox", Count: 7, Tags: []string{"a", "b"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.Name != "inbox" || state.Count != 7 || len(state.Tags) != 2 {
		t.Errorf("state = %+v", state)
	}
}

func TestSaveIsPrettyPrinted(t *testing.T) {
	path := testStatePath(t)
	store := New[counterState](path)

	if err := store.Save(counterState{Name: "inbox", Count: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "\n  \"name\"") {
		t.Errorf("state file should be indented for hand inspection, got:\n%s", text)
	}
	if !strings.HasSuffix(text, "\n") {
		t.Error("state file should end with a newline")
	}
}

func TestMutateCommits(t *testing.T) {
	store := New[counterState](testStatePath(t))

	err := store.Mutate(func(state *counterState) error {
		state.Name = "inbox"
		state.Count++
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	err = store.Mutate(func(state *counterState) error {
		state.Count++
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate second: %v", err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.Count != 2 {
		t.Errorf("Count = %d, want 2 (mutations must accumulate)", state.Count)
	}
}

func TestMutateErrorLeavesFileUntouched(t *testing.T) {
	store := New[counterState](testStatePath(t))
	if err := store.Save(counterState{Count: 5}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	boom := errors.New("boom")
	err := store.Mutate(func(state *counterState) error {
		state.Count = 999
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Mutate error = %v, want boom", err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.Count != 5 {
		t.Errorf("Count = %d, want 5 (failed mutation must not commit)", state.Count)
	}
}

func TestLoadToleratesCommentsAndTrailingCommas(t *testing.T) {
	path := testStatePath(t)
	content := `{
  // hand-edited by an operator
  "name": "inbox",
  "count": 3,
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := New[counterState](path)
	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.Name != "inbox" || state.Count != 3 {
		t.Errorf("state = %+v", state)
	}
}

func TestLoadUndecodableContent(t *testing.T) {
	path := testStatePath(t)
	if err := os.WriteFile(path, []byte("not json at all"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := New[counterState](path)
	_, err := store.Load()

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if decodeErr.Path != path {
		t.Errorf("DecodeError.Path = %q, want %q", decodeErr.Path, path)
	}
}

func TestMutateDoesNotClobberUndecodableFile(t *testing.T) {
	path := testStatePath(t)
	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := New[counterState](path)
	err := store.Mutate(func(state *counterState) error {
		state.Count = 1
		return nil
	})

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "garbage" {
		t.Error("Mutate must not overwrite content it could not decode")
	}
}
