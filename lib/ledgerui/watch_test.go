// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledgerui

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchLedgerSeesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.md")
	if err := os.WriteFile(path, []byte(testLedger), 0o644); err != nil {
		t.Fatal(err)
	}

	snapshots, stop, err := watchLedger(path)
	if err != nil {
		t.Fatalf("watchLedger: %v", err)
	}
	defer stop()

	// Replace the file the way the ledger store does: temp file in
	// the same directory, then rename over the target.
	updated := "# Task Ledger\n\n## Active\n\n- id: fresh-entry\n  status: worker dispatched\n"
	tmp := filepath.Join(dir, "ledger.md.tmp")
	if err := os.WriteFile(tmp, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case snapshot := <-snapshots:
		if snapshot.Find("fresh-entry") == nil {
			t.Fatalf("snapshot missing fresh-entry:\n%s", snapshot.Render())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot after atomic replace")
	}
}

func TestWatchLedgerSeesInPlaceWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.md")
	if err := os.WriteFile(path, []byte(testLedger), 0o644); err != nil {
		t.Fatal(err)
	}

	snapshots, stop, err := watchLedger(path)
	if err != nil {
		t.Fatalf("watchLedger: %v", err)
	}
	defer stop()

	updated := "# Task Ledger\n\n## Active\n\n- id: rewritten\n  status: worker dispatched\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case snapshot := <-snapshots:
		if snapshot.Find("rewritten") == nil {
			t.Fatalf("snapshot missing rewritten entry:\n%s", snapshot.Render())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot after in-place write")
	}
}

func TestWatchLedgerIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.md")
	if err := os.WriteFile(path, []byte(testLedger), 0o644); err != nil {
		t.Fatal(err)
	}

	snapshots, stop, err := watchLedger(path)
	if err != nil {
		t.Fatalf("watchLedger: %v", err)
	}
	defer stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("unrelated"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case snapshot := <-snapshots:
		t.Fatalf("sibling write produced a snapshot:\n%s", snapshot.Render())
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatchLedgerStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.md")
	if err := os.WriteFile(path, []byte(testLedger), 0o644); err != nil {
		t.Fatal(err)
	}

	_, stop, err := watchLedger(path)
	if err != nil {
		t.Fatalf("watchLedger: %v", err)
	}
	stop()
	stop()
}
