// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/adjutant-works/adjutant/lib/secret"
)

// KeySize is the size in bytes of the archive sealing key and of
// every per-report subkey derived from it.
const KeySize = 32

// SealedBlobVersion is the version byte prepended to every sealed
// blob. Included in the AEAD additional authenticated data, so
// tampering with the version byte causes authentication failure.
const SealedBlobVersion byte = 0x01

// SealedBlobOverhead is the byte overhead per sealed blob:
// 1 (version) + 24 (XChaCha20-Poly1305 nonce) + 16 (Poly1305 tag).
const SealedBlobOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// hkdfInfoBlob is the HKDF-SHA256 info prefix for per-report subkey
// derivation. Changing it invalidates every sealed blob in existing
// archives.
var hkdfInfoBlob = []byte("adjutant.archive.blob.v1")

// DeriveBlobKey derives the per-report sealing subkey from the master
// sealing key and the report hash. Every report is sealed under its
// own subkey, so a leaked subkey exposes a single report.
//
// The masterKey is borrowed (read via Bytes) and NOT closed. The
// returned buffer must be closed by the caller.
func DeriveBlobKey(masterKey *secret.Buffer, reportHash Hash) (*secret.Buffer, error) {
	info := make([]byte, len(hkdfInfoBlob)+len(reportHash))
	copy(info, hkdfInfoBlob)
	copy(info[len(hkdfInfoBlob):], reportHash[:])

	reader := hkdf.New(sha256.New, masterKey.Bytes(), nil, info)
	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		secret.Zero(derived)
		return nil, fmt.Errorf("HKDF key derivation failed: %w", err)
	}
	// NewFromBytes copies into mmap and zeros the heap slice.
	return secret.NewFromBytes(derived)
}

// SealBlob encrypts a blob with XChaCha20-Poly1305 under the
// per-report subkey and returns it in the standard layout:
//
//	[Version: 1 byte (0x01)] [Nonce: 24 bytes (random)] [Ciphertext+Tag: N+16 bytes]
//
// The version byte and the report hash are the additional
// authenticated data. Binding the report hash into the AAD means a
// sealed blob renamed to another entry's blob path fails to open.
//
// The masterKey is borrowed and NOT closed.
func SealBlob(plaintext []byte, masterKey *secret.Buffer, reportHash Hash) ([]byte, error) {
	blobKey, err := DeriveBlobKey(masterKey, reportHash)
	if err != nil {
		return nil, fmt.Errorf("deriving blob key: %w", err)
	}
	defer blobKey.Close()

	aead, err := chacha20poly1305.NewX(blobKey.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating random nonce: %w", err)
	}

	aad := buildAAD(SealedBlobVersion, reportHash)

	// Allocate output: version + nonce + ciphertext + tag. Seal
	// appends the ciphertext and tag.
	output := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(plaintext)+aead.Overhead())
	output[0] = SealedBlobVersion
	copy(output[1:], nonce[:])

	output = aead.Seal(output, nonce[:], plaintext, aad)
	return output, nil
}

// OpenBlob decrypts a blob produced by SealBlob. It verifies the
// version byte, extracts the nonce, and authenticates the ciphertext
// against the AAD.
//
// Returns an error if:
//   - The blob is too short to contain version + nonce + tag
//   - The version byte is not SealedBlobVersion
//   - AEAD authentication fails (wrong key, tampered ciphertext,
//     wrong report hash)
//
// The masterKey is borrowed and NOT closed.
func OpenBlob(sealedBlob []byte, masterKey *secret.Buffer, reportHash Hash) ([]byte, error) {
	if len(sealedBlob) < SealedBlobOverhead {
		return nil, fmt.Errorf("sealed blob is %d bytes, minimum is %d (version + nonce + tag)",
			len(sealedBlob), SealedBlobOverhead)
	}

	version := sealedBlob[0]
	if version != SealedBlobVersion {
		return nil, fmt.Errorf("sealed blob version %d is not supported (expected %d)",
			version, SealedBlobVersion)
	}

	blobKey, err := DeriveBlobKey(masterKey, reportHash)
	if err != nil {
		return nil, fmt.Errorf("deriving blob key: %w", err)
	}
	defer blobKey.Close()

	nonce := sealedBlob[1 : 1+chacha20poly1305.NonceSizeX]
	ciphertext := sealedBlob[1+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(blobKey.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	aad := buildAAD(version, reportHash)

	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("AEAD decryption failed (wrong key, tampered data, or mismatched report): %w", err)
	}

	return plaintext, nil
}

// buildAAD constructs the additional authenticated data for AEAD
// operations: the version byte followed by the report hash.
func buildAAD(version byte, reportHash Hash) []byte {
	aad := make([]byte, 1+len(reportHash))
	aad[0] = version
	copy(aad[1:], reportHash[:])
	return aad
}
