// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package inbox

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/intray-io/intray/lib/testutil"
)

// encodeInotifyEvent builds one raw inotify event with the name padded
// the way the kernel pads it.
func encodeInotifyEvent(mask uint32, name string) []byte {
	nameBytes := []byte(name)
	if len(nameBytes) > 0 {
		// Null terminator plus padding to a 16-byte boundary, matching
		// kernel behavior closely enough for the parser.
		padded := (len(nameBytes)/16 + 1) * 16
		nameBytes = append(nameBytes, make([]byte, padded-len(nameBytes))...)
	}

	event := make([]byte, unix.SizeofInotifyEvent, unix.SizeofInotifyEvent+len(nameBytes))
	binary.NativeEndian.PutUint32(event[0:4], 1) // wd
	binary.NativeEndian.PutUint32(event[4:8], mask)
	binary.NativeEndian.PutUint32(event[8:12], 0) // cookie
	binary.NativeEndian.PutUint32(event[12:16], uint32(len(nameBytes)))
	return append(event, nameBytes...)
}

func TestParseInotifyNames(t *testing.T) {
	var buffer []byte
	buffer = append(buffer, encodeInotifyEvent(unix.IN_CREATE, "a.txt")...)
	buffer = append(buffer, encodeInotifyEvent(unix.IN_MOVED_TO, "b.md")...)
	buffer = append(buffer, encodeInotifyEvent(unix.IN_CREATE|unix.IN_ISDIR, "subdir")...)
	buffer = append(buffer, encodeInotifyEvent(unix.IN_CREATE, "c with spaces.pdf")...)

	got := parseInotifyNames(buffer)
	want := []string{"a.txt", "b.md", "c with spaces.pdf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseInotifyNames = %q, want %q", got, want)
	}
}

func TestParseInotifyNamesEmptyAndTruncated(t *testing.T) {
	if names := parseInotifyNames(nil); names != nil {
		t.Errorf("empty buffer parsed to %q", names)
	}

	// A buffer cut off mid-event must not panic or invent names.
	event := encodeInotifyEvent(unix.IN_CREATE, "victim.txt")
	if names := parseInotifyNames(event[:len(event)-8]); names != nil {
		t.Errorf("truncated buffer parsed to %q", names)
	}
}

func TestNullTerminatedString(t *testing.T) {
	cases := []struct {
		data []byte
		want string
	}{
		{[]byte("note.txt\x00\x00\x00"), "note.txt"},
		{[]byte("note.txt"), "note.txt"},
		{[]byte("\x00"), ""},
		{nil, ""},
	}
	for _, c := range cases {
		if got := nullTerminatedString(c.data); got != c.want {
			t.Errorf("nullTerminatedString(%q) = %q, want %q", c.data, got, c.want)
		}
	}
}

func TestWatchDirectoryDeliversCreateEvents(t *testing.T) {
	dir := t.TempDir()
	names, cleanup, err := watchDirectory(dir)
	if err != nil {
		t.Fatalf("watchDirectory: %v", err)
	}
	defer cleanup()

	if err := os.WriteFile(filepath.Join(dir, "dropped.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	name := testutil.RequireReceive(t, names, 5*time.Second, "waiting for create event")
	if name != "dropped.txt" {
		t.Errorf("event name = %q, want dropped.txt", name)
	}
}

func TestWatchDirectoryDeliversMoveInEvents(t *testing.T) {
	parent := t.TempDir()
	outside := filepath.Join(parent, "staging")
	watched := filepath.Join(parent, "inbox")
	for _, dir := range []string{outside, watched} {
		if err := os.Mkdir(dir, 0755); err != nil {
			t.Fatalf("Mkdir: %v", err)
		}
	}

	names, cleanup, err := watchDirectory(watched)
	if err != nil {
		t.Fatalf("watchDirectory: %v", err)
	}
	defer cleanup()

	source := filepath.Join(outside, "moved.md")
	if err := os.WriteFile(source, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Rename(source, filepath.Join(watched, "moved.md")); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	name := testutil.RequireReceive(t, names, 5*time.Second, "waiting for move event")
	if name != "moved.md" {
		t.Errorf("event name = %q, want moved.md", name)
	}
}

func TestWatchDirectoryCleanupClosesStream(t *testing.T) {
	names, cleanup, err := watchDirectory(t.TempDir())
	if err != nil {
		t.Fatalf("watchDirectory: %v", err)
	}

	cleanup()
	cleanup() // safe to call twice

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-names:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("names channel not closed after cleanup")
		}
	}
}
