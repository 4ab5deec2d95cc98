// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"bufio"
	"bytes"
	"strings"
)

// Canonical section names, in render order.
const (
	SectionActive  = "Active"
	SectionWaiting = "Waiting"
	SectionParked  = "Parked"
	SectionDone    = "Done"
)

var canonicalSections = [...]string{SectionActive, SectionWaiting, SectionParked, SectionDone}

// Section is a named, ordered run of entries.
type Section struct {
	Name    string
	Entries []*Entry
}

// Ledger is the parsed document. The canonical sections are always
// present, in canonical order, followed by any non-canonical sections
// in the order a loaded document introduced them.
type Ledger struct {
	Sections []*Section
}

// New returns an empty ledger with the four canonical sections.
func New() *Ledger {
	l := &Ledger{}
	for _, name := range canonicalSections {
		l.Sections = append(l.Sections, &Section{Name: name})
	}
	return l
}

// Section returns the named section, or nil when absent.
func (l *Ledger) Section(name string) *Section {
	for _, section := range l.Sections {
		if section.Name == name {
			return section
		}
	}
	return nil
}

// ensure returns the named section, appending a new one after the
// existing sections when absent.
func (l *Ledger) ensure(name string) *Section {
	if section := l.Section(name); section != nil {
		return section
	}
	section := &Section{Name: name}
	l.Sections = append(l.Sections, section)
	return section
}

// Find returns the first entry with the given id, scanning sections in
// order. Nil when no entry matches. With duplicate ids (a caller
// contract violation) the earliest section wins.
func (l *Ledger) Find(id string) *Entry {
	for _, section := range l.Sections {
		for _, entry := range section.Entries {
			if entry.ID == id {
				return entry
			}
		}
	}
	return nil
}

// remove detaches and returns the first entry with the given id. The
// id-scoped scan is deliberate: a substring replacement over the whole
// document would corrupt unrelated entries sharing partial text.
func (l *Ledger) remove(id string) (*Entry, bool) {
	for _, section := range l.Sections {
		for i, entry := range section.Entries {
			if entry.ID == id {
				section.Entries = append(section.Entries[:i], section.Entries[i+1:]...)
				return entry, true
			}
		}
	}
	return nil, false
}

// insertHead places entry at the front of the named section, creating
// the section if needed. New work goes to the head so the most recent
// entry reads first.
func (l *Ledger) insertHead(name string, entry *Entry) {
	section := l.ensure(name)
	section.Entries = append([]*Entry{entry}, section.Entries...)
}

// Sanitize collapses every whitespace run, including embedded line
// breaks, to a single space and trims the result. Applied to field
// values on the write path only; parsed values pass through untouched.
func Sanitize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const (
	headingPrefix = "## "
	entryPrefix   = "- id:"
	fieldIndent   = "  "
)

// Parse reads a ledger document. It never fails: unparseable lines are
// either ignored (before the first heading, or with no entry to attach
// to) or space-joined onto the open entry's most recent field, so a
// hand-edited or legacy document loads without losing entries.
func Parse(data []byte) *Ledger {
	l := New()

	var current *Section
	var open *Entry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			// Blank lines close the open entry so later stray lines
			// cannot leak into it.
			open = nil
			continue
		}

		if strings.HasPrefix(line, headingPrefix) {
			name := strings.TrimSpace(line[len(headingPrefix):])
			// Retention annotations like "Done (last 7 days)" still
			// address the canonical Done section.
			if strings.HasPrefix(name, SectionDone) {
				name = SectionDone
			}
			current = l.ensure(name)
			open = nil
			continue
		}

		if current == nil {
			// Document title and anything else before the first
			// heading.
			continue
		}

		if strings.HasPrefix(line, entryPrefix) {
			open = &Entry{ID: strings.TrimSpace(line[len(entryPrefix):])}
			current.Entries = append(current.Entries, open)
			continue
		}

		if open == nil {
			continue
		}

		if key, value, ok := parseField(line); ok {
			open.Fields = append(open.Fields, Field{Key: key, Value: value})
			continue
		}

		// Legacy multi-line value: fold into the most recent field.
		if n := len(open.Fields); n > 0 {
			last := &open.Fields[n-1]
			if last.Value == "" {
				last.Value = strings.TrimSpace(line)
			} else {
				last.Value += " " + strings.TrimSpace(line)
			}
		}
	}

	return l
}

// parseField matches the exact two-space-indented "key: value" form.
// Keys never contain whitespace; an indented sentence that happens to
// hold a colon is treated as a continuation line instead.
func parseField(line string) (key, value string, ok bool) {
	if !strings.HasPrefix(line, fieldIndent) {
		return "", "", false
	}
	rest := line[len(fieldIndent):]
	if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
		return "", "", false
	}
	colon := strings.Index(rest, ":")
	if colon <= 0 {
		return "", "", false
	}
	key = rest[:colon]
	if strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, strings.TrimSpace(rest[colon+1:]), true
}

// Render serializes the ledger: a fixed title, the canonical sections
// in order (headings present even when empty), then any non-canonical
// sections. One blank line separates entries.
func (l *Ledger) Render() []byte {
	var b strings.Builder
	b.WriteString("# Task Ledger\n\n")
	for _, section := range l.Sections {
		b.WriteString(headingPrefix)
		b.WriteString(section.Name)
		b.WriteString("\n\n")
		for _, entry := range section.Entries {
			b.WriteString(entryPrefix)
			b.WriteString(" ")
			b.WriteString(entry.ID)
			b.WriteString("\n")
			for _, field := range entry.Fields {
				b.WriteString(fieldIndent)
				b.WriteString(field.Key)
				b.WriteString(": ")
				b.WriteString(field.Value)
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}
	return []byte(b.String())
}
