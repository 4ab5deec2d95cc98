// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

// Field is one key/value pair on an entry. Values never contain line
// breaks once persisted; [Sanitize] enforces that on the write path.
type Field struct {
	Key   string
	Value string
}

// Entry is one task record. Fields keep their insertion order so a
// loaded document renders back byte-stable, including keys this
// package knows nothing about.
type Entry struct {
	ID     string
	Fields []Field
}

// Get returns the value for key and whether the key is present.
func (e *Entry) Get(key string) (string, bool) {
	for _, field := range e.Fields {
		if field.Key == key {
			return field.Value, true
		}
	}
	return "", false
}

// Set replaces the value of an existing key in place, preserving its
// position, or appends a new field when the key is absent.
func (e *Entry) Set(key, value string) {
	for i := range e.Fields {
		if e.Fields[i].Key == key {
			e.Fields[i].Value = value
			return
		}
	}
	e.Fields = append(e.Fields, Field{Key: key, Value: value})
}
