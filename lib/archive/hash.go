// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Hash is the 32-byte BLAKE3 digest of a report's uncompressed bytes.
// It is the report's identity: the blob filename is its full hex
// form, and the operator-facing reference is derived from its prefix.
type Hash [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Keyed hashing
// keeps report digests from colliding with hashes of the same bytes
// computed in any other context.
type domainKey [32]byte

// reportDomainKey is the domain separation key for report hashing.
// The value is a fixed constant; changing it invalidates every
// reference in existing archives and ledgers. The bytes are the ASCII
// encoding of the domain name, zero-padded to 32 bytes, which keeps
// the key recognizable in hex dumps without weakening BLAKE3's keyed
// mode.
var reportDomainKey = domainKey{
	'a', 'd', 'j', 'u', 't', 'a', 'n', 't', '.', 'r', 'e', 'p', 'o', 'r', 't', 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// RefPrefix starts every report reference.
const RefPrefix = "arc-"

// refHexLen is the number of hash hex characters in a reference.
const refHexLen = 12

// HashReport computes the report-domain BLAKE3 keyed hash of the
// given report bytes. Always computed on uncompressed content, so the
// identity is stable across compression and sealing settings.
func HashReport(report []byte) Hash {
	hasher, err := blake3.NewKeyed(reportDomainKey[:])
	if err != nil {
		// NewKeyed fails only for a wrong key length, which the
		// fixed-size domainKey type rules out.
		panic("archive: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(report)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// FormatHash returns the hex-encoded string representation of a hash.
// This is the blob filename and the canonical form in logs.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// ParseHash parses a 64-character hex string into a Hash.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing report hash: %w", err)
	}
	if len(decoded) != 32 {
		return hash, fmt.Errorf("report hash is %d bytes, want 32", len(decoded))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// FormatRef returns the short report reference for a hash: the "arc-"
// prefix followed by the first 12 hex characters. This is the form
// recorded in ledger artifact fields and job history rows.
func FormatRef(hash Hash) string {
	return RefPrefix + hex.EncodeToString(hash[:6])
}

// ValidateRef checks that ref has the canonical reference shape.
func ValidateRef(ref string) error {
	rest, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok {
		return fmt.Errorf("report reference %q does not start with %q", ref, RefPrefix)
	}
	if len(rest) != refHexLen {
		return fmt.Errorf("report reference %q has %d characters after the prefix, want %d",
			ref, len(rest), refHexLen)
	}
	if _, err := hex.DecodeString(rest); err != nil {
		return fmt.Errorf("report reference %q is not hex: %w", ref, err)
	}
	return nil
}
