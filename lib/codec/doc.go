// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Adjutant's standard CBOR encoding configuration.
//
// Adjutant uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: the completion API, JSONC job
//     files, and CLI --json output.
//   - CBOR for internal on-disk state: the archive manifest and blob
//     envelopes.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every Adjutant package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes, which keeps archive manifests byte-stable across rewrites.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR (archive
//     manifest entries, blob envelopes).
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract; doubling up is noise that obscures
// whether a type participates in JSON serialization.
package codec
