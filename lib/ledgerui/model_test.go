// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledgerui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/adjutant-works/adjutant/lib/archive"
	"github.com/adjutant-works/adjutant/lib/ledger"
)

const testLedger = `# Task Ledger

## Active

- id: triage-448
  description: Summarize open triage issues
  started: 2026-08-25
  status: worker dispatched

- id: deps-audit
  description: Audit dependency updates
  started: 2026-08-24
  status: failed -- provider unavailable

## Waiting

## Parked

## Done

- id: nightly-scan
  completed: 2026-08-24
  summary: All hosts clean
`

func writeTestLedger(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testModel(t *testing.T, content string) *model {
	t.Helper()
	m, err := newModel(Config{LedgerPath: writeTestLedger(t, content)})
	if err != nil {
		t.Fatalf("newModel: %v", err)
	}
	return m
}

func TestMissingLedgerShowsEmpty(t *testing.T) {
	m, err := newModel(Config{LedgerPath: filepath.Join(t.TempDir(), "absent.md")})
	if err != nil {
		t.Fatalf("newModel on missing file: %v", err)
	}
	if rows := m.visibleRows(); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestVisibleRowsFollowLedgerOrder(t *testing.T) {
	m := testModel(t, testLedger)

	rows := m.visibleRows()
	if len(rows) != 2 {
		t.Fatalf("active rows = %d, want 2", len(rows))
	}
	if rows[0].entry.ID != "triage-448" || rows[1].entry.ID != "deps-audit" {
		t.Fatalf("row order = %s, %s", rows[0].entry.ID, rows[1].entry.ID)
	}
}

func TestFilterNarrowsRows(t *testing.T) {
	m := testModel(t, testLedger)

	m.filterInput = "deps"
	rows := m.visibleRows()
	if len(rows) != 1 || rows[0].entry.ID != "deps-audit" {
		t.Fatalf("filtered rows = %+v, want just deps-audit", rows)
	}

	m.filterInput = "zzzz"
	if rows := m.visibleRows(); len(rows) != 0 {
		t.Fatalf("impossible filter matched %d rows", len(rows))
	}
}

func TestSectionSwitchResetsCursor(t *testing.T) {
	m := testModel(t, testLedger)
	m.cursor = 1

	m.selectSection(3)
	if m.cursor != 0 {
		t.Fatalf("cursor = %d after section switch, want 0", m.cursor)
	}
	rows := m.visibleRows()
	if len(rows) != 1 || rows[0].entry.ID != "nightly-scan" {
		t.Fatalf("done rows = %+v", rows)
	}
}

func TestRowTextPrefersStatusOverSummary(t *testing.T) {
	entry := &ledger.Entry{ID: "job-1"}
	entry.Set("description", "do the thing")
	entry.Set("status", "worker dispatched")
	if text := rowText(entry); !strings.Contains(text, "worker dispatched") {
		t.Fatalf("rowText = %q", text)
	}

	done := &ledger.Entry{ID: "job-2"}
	done.Set("summary", "all fine")
	if text := rowText(done); !strings.Contains(text, "all fine") {
		t.Fatalf("rowText = %q", text)
	}
}

func TestReloadClampsCursor(t *testing.T) {
	m := testModel(t, testLedger)
	m.cursor = 1

	shrunk := ledger.Parse([]byte("# Task Ledger\n\n## Active\n\n- id: only-one\n  status: worker dispatched\n"))
	updated, cmd := m.Update(reloadMsg{snapshot: shrunk})
	if cmd != nil {
		t.Fatal("no watcher configured, reload should not re-arm a wait")
	}
	m = updated.(*model)
	if m.cursor != 0 {
		t.Fatalf("cursor = %d after shrink, want 0", m.cursor)
	}
}

func TestViewListsEntries(t *testing.T) {
	m := testModel(t, testLedger)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(*model)

	view := ansi.Strip(m.View())
	for _, want := range []string{"triage-448", "deps-audit", "Active (2)", "Done (1)"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewBeforeSizeIsPlaceholder(t *testing.T) {
	m := testModel(t, testLedger)
	if view := m.View(); !strings.Contains(view, "loading") {
		t.Fatalf("unexpected pre-size view %q", view)
	}
}

func TestFilterKeystrokes(t *testing.T) {
	m := testModel(t, testLedger)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m = updated.(*model)
	if !m.filterActive {
		t.Fatal("/ should activate the filter")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("dep")})
	m = updated.(*model)
	if m.filterInput != "dep" {
		t.Fatalf("filter input = %q", m.filterInput)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = updated.(*model)
	if m.filterInput != "de" {
		t.Fatalf("filter input after backspace = %q", m.filterInput)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	m = updated.(*model)
	if m.filterActive || m.filterInput != "" {
		t.Fatalf("escape should clear and deactivate, got active=%v input=%q", m.filterActive, m.filterInput)
	}
}

func TestDetailRendersArchivedReport(t *testing.T) {
	store, err := archive.NewStore(archive.Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	reference, err := store.Put([]byte("# Verified Report\n\nall claims confirmed\n"), "nightly-scan")
	if err != nil {
		t.Fatal(err)
	}

	content := fmt.Sprintf(`# Task Ledger

## Active

## Waiting

## Parked

## Done

- id: nightly-scan
  completed: 2026-08-24
  summary: All hosts clean
  artifacts: %s
`, reference)

	m, err := newModel(Config{
		LedgerPath: writeTestLedger(t, content),
		Archive:    store,
	})
	if err != nil {
		t.Fatal(err)
	}
	m.selectSection(3)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(*model)

	view := ansi.Strip(m.View())
	if !strings.Contains(view, "Verified Report") {
		t.Fatalf("report heading missing from view:\n%s", view)
	}
	if !strings.Contains(view, "all claims confirmed") {
		t.Fatalf("report body missing from view:\n%s", view)
	}
}

func TestDetailReportsMissingArchiveRef(t *testing.T) {
	store, err := archive.NewStore(archive.Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	content := `# Task Ledger

## Active

## Waiting

## Parked

## Done

- id: gone
  summary: report was pruned
  artifacts: arc-000000000000
`
	m, err := newModel(Config{
		LedgerPath: writeTestLedger(t, content),
		Archive:    store,
	})
	if err != nil {
		t.Fatal(err)
	}
	m.selectSection(3)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(*model)

	if view := ansi.Strip(m.View()); !strings.Contains(view, "report unavailable") {
		t.Fatalf("missing-report notice absent:\n%s", view)
	}
}
