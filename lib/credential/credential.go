// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/adjutant-works/adjutant/lib/secret"
)

// ArchiveKeySize is the size of the raw archive sealing key.
const ArchiveKeySize = 32

// GenerateIdentity creates a new age x25519 identity, writes it to
// path (0600, atomic rename), and returns the corresponding public
// key. The identity file holds the AGE-SECRET-KEY-1... line and
// nothing else.
func GenerateIdentity(path string) (publicKey string, err error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("generating age identity: %w", err)
	}
	if err := writeFilePrivate(path, []byte(identity.String()+"\n")); err != nil {
		return "", fmt.Errorf("writing identity file: %w", err)
	}
	return identity.Recipient().String(), nil
}

// LoadIdentity reads an age identity file written by GenerateIdentity
// and returns the parsed identity plus its public key. Leading and
// trailing whitespace in the file is tolerated.
func LoadIdentity(path string) (*age.X25519Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}
	identity, err := age.ParseX25519Identity(strings.TrimSpace(string(data)))
	// The raw key material is on the heap either way; zero the file
	// copy so only the parsed identity retains it.
	secret.Zero(data)
	if err != nil {
		return nil, fmt.Errorf("parsing identity file %s: %w", path, err)
	}
	return identity, nil
}

// SealToken encrypts an API token to the given age public key and
// writes the ciphertext to path. The token bytes are borrowed, not
// zeroed; callers holding the token in a secret.Buffer keep ownership.
func SealToken(path string, token []byte, recipientKey string) error {
	recipient, err := age.ParseX25519Recipient(recipientKey)
	if err != nil {
		return fmt.Errorf("parsing recipient key: %w", err)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(token); err != nil {
		return fmt.Errorf("encrypting token: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing age encryption: %w", err)
	}

	if err := writeFilePrivate(path, ciphertext.Bytes()); err != nil {
		return fmt.Errorf("writing sealed token: %w", err)
	}
	return nil
}

// OpenToken decrypts the sealed token at path with the identity at
// identityPath. The plaintext is returned in a secret.Buffer
// (mmap-backed, zeroed on close); the caller must Close it.
func OpenToken(path, identityPath string) (*secret.Buffer, error) {
	identity, err := LoadIdentity(identityPath)
	if err != nil {
		return nil, err
	}

	ciphertext, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sealed token: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting token %s: %w", path, err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted token: %w", err)
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("sealed token %s is empty", path)
	}

	// Trim a trailing newline from hand-sealed tokens; API tokens
	// never legitimately end in one.
	plaintext = bytes.TrimRight(plaintext, "\r\n")

	buffer, err := secret.NewFromBytes(plaintext)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("protecting decrypted token: %w", err)
	}
	return buffer, nil
}

// GenerateArchiveKey creates a fresh random archive sealing key and
// writes its hex form to path (0600, atomic rename).
func GenerateArchiveKey(path string) error {
	raw := make([]byte, ArchiveKeySize)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generating archive key: %w", err)
	}
	encoded := make([]byte, hex.EncodedLen(len(raw))+1)
	hex.Encode(encoded, raw)
	encoded[len(encoded)-1] = '\n'
	secret.Zero(raw)

	err := writeFilePrivate(path, encoded)
	secret.Zero(encoded)
	if err != nil {
		return fmt.Errorf("writing archive key: %w", err)
	}
	return nil
}

// LoadArchiveKey reads a hex archive key file into a secret.Buffer
// holding the raw 32 bytes. The caller must Close the buffer.
func LoadArchiveKey(path string) (*secret.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive key: %w", err)
	}
	defer secret.Zero(data)

	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("archive key %s is not hex: %w", path, err)
	}
	if len(raw) != ArchiveKeySize {
		secret.Zero(raw)
		return nil, fmt.Errorf("archive key %s is %d bytes, want %d", path, len(raw), ArchiveKeySize)
	}

	buffer, err := secret.NewFromBytes(raw)
	if err != nil {
		secret.Zero(raw)
		return nil, fmt.Errorf("protecting archive key: %w", err)
	}
	return buffer, nil
}

// writeFilePrivate writes data to path with 0600 permissions via a
// temp file and atomic rename, so a crash never leaves a partial
// credential file.
func writeFilePrivate(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
