// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive stores verified research reports and hands back the
// short references that appear in ledger entries and job history.
//
// A report is identified by the BLAKE3 keyed hash of its uncompressed
// bytes. The reference shown to operators is "arc-" followed by the
// first 12 hex characters of that hash; the blob on disk is named by
// the full 64-character hex digest, so identical reports deduplicate
// to a single blob no matter how often they are archived.
//
// On-disk layout under the archive root:
//
//	blobs/<64 hex chars>   compressed (and optionally sealed) report
//	manifest.cbor          ordered entry list, Core Deterministic CBOR
//	tmp/                   staging for atomic renames
//
// Blobs are compressed with zstd or lz4 when a probe of the report
// shows it is worthwhile, and stored raw otherwise. When a sealing
// key is configured, each blob is encrypted with XChaCha20-Poly1305
// under a per-report subkey derived via HKDF-SHA256; the report hash
// is bound into the AAD, so a blob moved to another entry's name
// fails authentication. [Store.Get] decompresses, unseals, and
// re-verifies the hash before returning report bytes.
package archive
