// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseRenderRoundTrip(t *testing.T) {
	l := New()
	first := &Entry{ID: "task-a"}
	first.Set("description", "compare GC pause behavior")
	first.Set("started", "2026-03-14")
	first.Set("status", StatusDispatched)
	l.insertHead(SectionActive, first)

	second := &Entry{ID: "task-b"}
	second.Set("completed", "2026-03-10")
	second.Set("summary", "shipped")
	second.Set("artifacts", "arc-9f2d11aa03bc")
	l.insertHead(SectionDone, second)

	// Unknown sections and fields must survive untouched.
	extra := &Entry{ID: "task-c"}
	extra.Set("mystery_key", "mystery value")
	l.insertHead("Icebox", extra)

	got := Parse(l.Render())
	if !reflect.DeepEqual(got, l) {
		t.Fatalf("round trip changed the ledger:\ngot:  %+v\nwant: %+v", got, l)
	}
}

func TestParseNormalizesOnceThenRoundTrips(t *testing.T) {
	// Hand-written document with irregular spacing around values.
	raw := []byte(`# My Tasks

## Active

- id: task-a
  description:    spaced   oddly
  status: worker dispatched

## Done (older entries pruned weekly)

- id: task-z
  summary: done long ago
`)
	once := Parse(raw)
	twice := Parse(once.Render())
	if !reflect.DeepEqual(twice, once) {
		t.Fatalf("parse/render/parse diverged:\nonce:  %+v\ntwice: %+v", twice, once)
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"  padded  ", "padded"},
		{"line\nbreak", "line break"},
		{"cr\r\nlf", "cr lf"},
		{"tab\there", "tab here"},
		{"many   spaces\n\n\nand breaks", "many spaces and breaks"},
		{"", ""},
		{" \n\t ", ""},
	}
	for _, c := range cases {
		got := Sanitize(c.in)
		if got != c.want {
			t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
		if strings.Contains(got, "\n") {
			t.Errorf("Sanitize(%q) left a line break: %q", c.in, got)
		}
	}
}

func TestParseDoneHeadingToleratesSuffix(t *testing.T) {
	raw := []byte("## Done -- last 7 days\n\n- id: task-a\n  summary: ok\n")
	l := Parse(raw)

	done := l.Section(SectionDone)
	if done == nil || len(done.Entries) != 1 {
		t.Fatalf("annotated Done heading did not map to the Done section: %+v", l)
	}
	if len(l.Sections) != len(canonicalSections) {
		t.Fatalf("annotated Done heading created an extra section: %+v", l.Sections)
	}
}

func TestParsePreservesUnknownSections(t *testing.T) {
	raw := []byte(`# Tasks

## Active

## Someday

- id: task-x
  note: keep me
`)
	l := Parse(raw)
	if got := len(l.Sections); got != len(canonicalSections)+1 {
		t.Fatalf("section count = %d, want %d", got, len(canonicalSections)+1)
	}
	someday := l.Sections[len(l.Sections)-1]
	if someday.Name != "Someday" || len(someday.Entries) != 1 {
		t.Fatalf("unknown section not preserved at the tail: %+v", someday)
	}
	if value, ok := someday.Entries[0].Get("note"); !ok || value != "keep me" {
		t.Fatalf("unknown field lost: %+v", someday.Entries[0])
	}
}

func TestParseJoinsStrayLinesOntoLastField(t *testing.T) {
	raw := []byte(`## Active

- id: task-a
  description: first part
and this trailed
    onto more lines
`)
	l := Parse(raw)
	entry := l.Find("task-a")
	if entry == nil {
		t.Fatal("entry lost while folding stray lines")
	}
	description, _ := entry.Get("description")
	want := "first part and this trailed onto more lines"
	if description != want {
		t.Fatalf("description = %q, want %q", description, want)
	}
}

func TestParseBlankLineClosesEntry(t *testing.T) {
	raw := []byte(`## Active

- id: task-a
  description: original

orphan line after the blank
`)
	l := Parse(raw)
	description, _ := l.Find("task-a").Get("description")
	if description != "original" {
		t.Fatalf("stray line leaked across a blank line: %q", description)
	}
}

func TestParseIgnoresPreamble(t *testing.T) {
	raw := []byte(`# Title of the document
some prose that is not a section
- id: not-really-an-entry

## Active
`)
	l := Parse(raw)
	if entry := l.Find("not-really-an-entry"); entry != nil {
		t.Fatal("entry-shaped preamble line was parsed as an entry")
	}
	for _, section := range l.Sections {
		if len(section.Entries) != 0 {
			t.Fatalf("preamble leaked into section %s", section.Name)
		}
	}
}

func TestRenderEmitsEmptyCanonicalHeadings(t *testing.T) {
	rendered := string(New().Render())
	offset := -1
	for _, name := range canonicalSections {
		heading := "## " + name + "\n"
		at := strings.Index(rendered, heading)
		if at < 0 {
			t.Fatalf("heading %q missing from empty render:\n%s", heading, rendered)
		}
		if at < offset {
			t.Fatalf("heading %q out of canonical order:\n%s", heading, rendered)
		}
		offset = at
	}
}

func TestFindTakesFirstMatchAcrossSections(t *testing.T) {
	l := New()
	inActive := &Entry{ID: "task-a"}
	inActive.Set("status", "live")
	l.insertHead(SectionActive, inActive)
	inDone := &Entry{ID: "task-a"}
	inDone.Set("status", "stale duplicate")
	l.insertHead(SectionDone, inDone)

	found := l.Find("task-a")
	if status, _ := found.Get("status"); status != "live" {
		t.Fatalf("Find returned the later duplicate: %+v", found)
	}
}

func TestEntrySetReplacesInPlace(t *testing.T) {
	entry := &Entry{ID: "task-a"}
	entry.Set("description", "before")
	entry.Set("status", "waiting")
	entry.Set("description", "after")

	if len(entry.Fields) != 2 {
		t.Fatalf("Set duplicated a key: %+v", entry.Fields)
	}
	if entry.Fields[0].Key != "description" || entry.Fields[0].Value != "after" {
		t.Fatalf("Set did not replace in place: %+v", entry.Fields)
	}
}

func TestParseFieldRequiresExactIndent(t *testing.T) {
	raw := []byte(`## Active

- id: task-a
  description: the value
      over: indented line
unindented: line
`)
	l := Parse(raw)
	entry := l.Find("task-a")
	if _, ok := entry.Get("over"); ok {
		t.Fatal("over-indented line parsed as a field")
	}
	if _, ok := entry.Get("unindented"); ok {
		t.Fatal("unindented line parsed as a field")
	}
	description, _ := entry.Get("description")
	want := "the value over: indented line unindented: line"
	if description != want {
		t.Fatalf("continuation folding produced %q, want %q", description, want)
	}
}
