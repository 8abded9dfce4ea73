// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package inbox

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// watchDirectory reports the names of files created in (or moved into)
// a directory via inotify. Returns a channel of bare filenames and a
// cleanup function that stops the watcher and releases the inotify
// file descriptor. The channel closes when the read loop exits.
//
// The cleanup function must be called regardless of whether the
// channel was drained. It is safe to call multiple times.
//
// Callers that also scan the directory should scan AFTER calling
// watchDirectory, not before. This ordering avoids the race where a
// file lands between the scan and the watch setup: a file present
// when scanned after the watch is installed gets picked up by the
// scan, a later one by the event. A file may be seen by both, which
// is why handling must be idempotent.
func watchDirectory(directory string) (<-chan string, func(), error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, nil, fmt.Errorf("inotify_init1: %w", err)
	}

	_, err = unix.InotifyAddWatch(fd, directory, unix.IN_CREATE|unix.IN_MOVED_TO)
	if err != nil {
		unix.Close(fd)
		return nil, nil, fmt.Errorf("inotify_add_watch on %s: %w", directory, err)
	}

	names := make(chan string, 64)
	stopChannel := make(chan struct{})

	go inotifyReadLoop(fd, names, stopChannel)

	cleanedUp := false
	cleanup := func() {
		if cleanedUp {
			return
		}
		cleanedUp = true
		close(stopChannel)
	}

	return names, cleanup, nil
}

// inotifyReadLoop polls the inotify fd and forwards event names.
// Closes the names channel and the fd when the loop exits (on stop
// signal or read error).
//
// Uses poll(2) with a 100ms timeout so the goroutine remains
// responsive to the stop signal without burning CPU on a tight loop.
func inotifyReadLoop(fd int, names chan<- string, stopChannel <-chan struct{}) {
	defer close(names)
	defer unix.Close(fd)

	buffer := make([]byte, 4096)
	for {
		select {
		case <-stopChannel:
			return
		default:
		}

		pollDescriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(pollDescriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if count == 0 {
			continue // timeout, check stopChannel
		}

		bytesRead, err := unix.Read(fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}

		for _, name := range parseInotifyNames(buffer[:bytesRead]) {
			select {
			case names <- name:
			case <-stopChannel:
				return
			}
		}
	}
}

// parseInotifyNames scans a buffer of raw inotify events and returns
// the file names they carry, skipping directory events.
//
// Inotify event layout (from inotify(7)):
//
//	struct inotify_event {
//	    int32_t  wd;     // offset 0
//	    uint32_t mask;   // offset 4
//	    uint32_t cookie; // offset 8
//	    uint32_t len;    // offset 12
//	    char     name[]; // offset 16, padded to alignment
//	};
func parseInotifyNames(buffer []byte) []string {
	var names []string
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		mask := binary.NativeEndian.Uint32(buffer[offset+4 : offset+8])
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}

		if nameLength > 0 && mask&unix.IN_ISDIR == 0 {
			// The name is null-padded to an alignment boundary.
			nameBytes := buffer[offset+unix.SizeofInotifyEvent : offset+eventSize]
			if name := nullTerminatedString(nameBytes); name != "" {
				names = append(names, name)
			}
		}

		offset += eventSize
	}
	return names
}

// nullTerminatedString extracts a string from a null-padded byte
// slice, stopping at the first null byte.
func nullTerminatedString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}
