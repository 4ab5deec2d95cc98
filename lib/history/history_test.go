// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{Path: filepath.Join(t.TempDir(), "history.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func testRecord(taskID, outcome string, finished time.Time) Record {
	return Record{
		TaskID:     taskID,
		Kind:       "standard",
		Outcome:    outcome,
		Detail:     "detail for " + taskID,
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: finished,
	}
}

func TestAppendAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	for i, taskID := range []string{"task-a", "task-b", "task-c"} {
		record := testRecord(taskID, "completed", base.Add(time.Duration(i)*time.Minute))
		if err := store.Append(ctx, record); err != nil {
			t.Fatalf("Append %s: %v", taskID, err)
		}
	}

	records, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Recent returned %d records, want 2", len(records))
	}
	// Most recently finished first.
	if records[0].TaskID != "task-c" || records[1].TaskID != "task-b" {
		t.Errorf("recent order = %s, %s", records[0].TaskID, records[1].TaskID)
	}
	if records[0].Detail != "detail for task-c" {
		t.Errorf("detail = %q", records[0].Detail)
	}
	if !records[0].FinishedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("finished_at = %v", records[0].FinishedAt)
	}
}

func TestForTaskKeepsDuplicates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	if err := store.Append(ctx, testRecord("task-a", "failed", base)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(ctx, testRecord("task-a", "completed", base.Add(time.Hour))); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := store.ForTask(ctx, "task-a")
	if err != nil {
		t.Fatalf("ForTask: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ForTask returned %d records, want 2", len(records))
	}
	// Oldest first.
	if records[0].Outcome != "failed" || records[1].Outcome != "completed" {
		t.Errorf("order = %s, %s", records[0].Outcome, records[1].Outcome)
	}
}

func TestAppendRejectsEmptyTaskID(t *testing.T) {
	store := openTestStore(t)
	if err := store.Append(context.Background(), Record{Outcome: "completed"}); err == nil {
		t.Fatal("expected error for empty task id")
	}
}

func TestConcurrentAppends(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	const appendCount = 20
	var waitGroup sync.WaitGroup
	errs := make(chan error, appendCount)
	for i := range appendCount {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			record := testRecord("task-concurrent", "completed", base.Add(time.Duration(i)*time.Second))
			errs <- store.Append(ctx, record)
		}()
	}
	waitGroup.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Append: %v", err)
		}
	}

	records, err := store.ForTask(ctx, "task-concurrent")
	if err != nil {
		t.Fatalf("ForTask: %v", err)
	}
	if len(records) != appendCount {
		t.Errorf("ForTask returned %d records, want %d", len(records), appendCount)
	}
}
