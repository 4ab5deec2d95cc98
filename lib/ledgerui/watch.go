// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledgerui

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/adjutant-works/adjutant/lib/ledger"
)

// watchLedger starts an inotify watcher on the ledger file and returns
// a channel of fresh snapshots plus a stop function. The watcher
// monitors the parent directory for IN_CLOSE_WRITE and IN_MOVED_TO so
// it catches both in-place writes and the atomic temp-and-rename the
// ledger store performs: a rename creates a new inode, which a
// file-level watch on the old inode would miss.
//
// The channel has capacity one and stale snapshots are dropped in
// favor of newer ones, so a slow consumer only ever sees the latest
// state.
func watchLedger(path string) (<-chan *ledger.Ledger, func(), error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}
	directory := filepath.Dir(absolute)
	filename := filepath.Base(absolute)

	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, nil, err
	}
	if _, err := unix.InotifyAddWatch(fd, directory, unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO); err != nil {
		unix.Close(fd)
		return nil, nil, err
	}

	snapshots := make(chan *ledger.Ledger, 1)
	stopChannel := make(chan struct{})
	go watchLoop(fd, absolute, filename, snapshots, stopChannel)

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		close(stopChannel)
	}
	return snapshots, stop, nil
}

// watchLoop polls the inotify fd for writes to the ledger file,
// re-parses it, and pushes the snapshot. Uses poll(2) with a 100ms
// timeout so the stop channel is checked promptly. After an event it
// sleeps 50ms and drains the queue, coalescing the burst a multi-entry
// update produces into one re-read.
func watchLoop(
	fd int,
	path string,
	filename string,
	snapshots chan *ledger.Ledger,
	stopChannel <-chan struct{},
) {
	defer unix.Close(fd)

	buffer := make([]byte, 4096)
	for {
		select {
		case <-stopChannel:
			return
		default:
		}

		descriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(descriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			// Fatal poll error: the viewer degrades to static mode.
			return
		}
		if count == 0 {
			continue
		}

		bytesRead, err := unix.Read(fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}
		if !inotifyMatchesFile(buffer[:bytesRead], filename) {
			continue
		}

		time.Sleep(50 * time.Millisecond)
		drainInotify(fd, buffer)

		data, err := os.ReadFile(path)
		if err != nil {
			// Mid-replace the file can be briefly absent; the rename's
			// own event triggers the successful re-read.
			continue
		}
		snapshot := ledger.Parse(data)

		// Drop a stale queued snapshot so the newest always wins.
		select {
		case <-snapshots:
		default:
		}
		select {
		case snapshots <- snapshot:
		case <-stopChannel:
			return
		}
	}
}

// inotifyMatchesFile reports whether any event in the buffer names the
// target file. Event layout from inotify(7): a fixed header with the
// name length at offset 12, then the null-padded name.
func inotifyMatchesFile(buffer []byte, target string) bool {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}
		if nameLength > 0 {
			name := buffer[offset+unix.SizeofInotifyEvent : offset+eventSize]
			if nullTerminated(name) == target {
				return true
			}
		}
		offset += eventSize
	}
	return false
}

func nullTerminated(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}

// drainInotify discards queued events after the debounce sleep.
func drainInotify(fd int, buffer []byte) {
	for {
		if _, err := unix.Read(fd, buffer); err != nil {
			return
		}
	}
}
