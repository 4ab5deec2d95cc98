// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/adjutant-works/adjutant/lib/clock"
	"github.com/adjutant-works/adjutant/lib/codec"
	"github.com/adjutant-works/adjutant/lib/secret"
)

// Directory and file names within the archive root.
const (
	blobDir      = "blobs"
	tmpDir       = "tmp"
	manifestName = "manifest.cbor"
)

// manifestVersion is the current manifest format version.
const manifestVersion = 1

// probeLimit caps how many bytes of a report SelectCompression sees.
// Reports are usually well under this; the cap bounds probe cost for
// the occasional giant.
const probeLimit = 64 * 1024

// Entry describes one archived report. Entries live in the manifest
// in Put order, oldest first.
type Entry struct {
	// Ref is the short report reference (arc- plus 12 hex chars).
	Ref string `cbor:"ref"`

	// Hash is the full 32-byte report hash. The blob filename is its
	// hex form.
	Hash Hash `cbor:"hash"`

	// Label identifies the job that produced the report, normally
	// the task id.
	Label string `cbor:"label"`

	// Size is the uncompressed report size in bytes.
	Size int64 `cbor:"size"`

	// StoredSize is the blob size on disk after compression and
	// sealing.
	StoredSize int64 `cbor:"stored_size"`

	// Compression is the algorithm the blob was stored with.
	Compression CompressionTag `cbor:"compression"`

	// Sealed reports whether the blob is encrypted.
	Sealed bool `cbor:"sealed"`

	// Created is when the report was archived.
	Created time.Time `cbor:"created"`
}

// manifest is the on-disk manifest layout.
type manifest struct {
	Version int     `cbor:"version"`
	Entries []Entry `cbor:"entries"`
}

// Config assembles a Store.
type Config struct {
	// Dir is the archive root. Blobs land under Dir/blobs, the
	// manifest at Dir/manifest.cbor.
	Dir string

	// Compression selects blob compression: "auto" probes each
	// report and picks zstd, lz4, or none; "none" stores raw. Empty
	// means "auto".
	Compression string

	// Key, when non-nil, seals every new blob with
	// XChaCha20-Poly1305 under a per-report subkey. Must be exactly
	// KeySize bytes. The store borrows the buffer and never closes
	// it; it must outlive the store.
	Key *secret.Buffer

	// Clock stamps manifest entries. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives archive activity. Defaults to slog.Default().
	Logger *slog.Logger
}

// Store is the content-addressed report archive. Reads are safe for
// concurrent use; writes are serialized internally.
type Store struct {
	dir         string
	compression string
	key         *secret.Buffer
	clock       clock.Clock
	log         *slog.Logger

	mu      sync.Mutex
	entries []Entry
	byRef   map[string]int
}

// NewStore creates a Store rooted at cfg.Dir, creating the directory
// structure if needed and loading any existing manifest.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("archive store requires a directory")
	}
	switch cfg.Compression {
	case "", "auto", "none":
	default:
		return nil, fmt.Errorf("archive compression must be \"auto\" or \"none\", got %q", cfg.Compression)
	}
	if cfg.Key != nil && cfg.Key.Len() != KeySize {
		return nil, fmt.Errorf("archive sealing key must be %d bytes, got %d", KeySize, cfg.Key.Len())
	}
	if cfg.Compression == "" {
		cfg.Compression = "auto"
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	for _, dir := range []string{
		cfg.Dir,
		filepath.Join(cfg.Dir, blobDir),
		filepath.Join(cfg.Dir, tmpDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory %s: %w", dir, err)
		}
	}

	store := &Store{
		dir:         cfg.Dir,
		compression: cfg.Compression,
		key:         cfg.Key,
		clock:       cfg.Clock,
		log:         cfg.Logger,
		byRef:       make(map[string]int),
	}

	if err := store.loadManifest(); err != nil {
		return nil, err
	}

	return store, nil
}

// Put archives a report under the given label and returns its
// reference. Archiving the same bytes again returns the existing
// reference without writing anything.
func (s *Store) Put(report []byte, label string) (string, error) {
	if len(report) == 0 {
		return "", fmt.Errorf("cannot archive an empty report")
	}

	hash := HashReport(report)
	ref := FormatRef(hash)

	s.mu.Lock()
	defer s.mu.Unlock()

	if index, ok := s.byRef[ref]; ok {
		if s.entries[index].Hash == hash {
			return ref, nil
		}
		// A 48-bit prefix collision between distinct reports. The
		// manifest is keyed by ref, so the second report cannot be
		// stored.
		return "", fmt.Errorf("report reference %s already names different content", ref)
	}

	stored, tag, err := s.compressReport(report)
	if err != nil {
		return "", fmt.Errorf("compressing report: %w", err)
	}

	sealed := false
	if s.key != nil {
		blob, err := SealBlob(stored, s.key, hash)
		if err != nil {
			return "", fmt.Errorf("sealing report blob: %w", err)
		}
		stored = blob
		sealed = true
	}

	if err := s.writeBlob(hash, stored); err != nil {
		return "", err
	}

	entry := Entry{
		Ref:         ref,
		Hash:        hash,
		Label:       label,
		Size:        int64(len(report)),
		StoredSize:  int64(len(stored)),
		Compression: tag,
		Sealed:      sealed,
		Created:     s.clock.Now().UTC(),
	}

	s.entries = append(s.entries, entry)
	if err := s.saveManifestLocked(); err != nil {
		s.entries = s.entries[:len(s.entries)-1]
		return "", fmt.Errorf("saving archive manifest: %w", err)
	}
	s.byRef[ref] = len(s.entries) - 1

	s.log.Info("report archived",
		"ref", ref,
		"label", label,
		"size", entry.Size,
		"stored_size", entry.StoredSize,
		"compression", tag.String(),
		"sealed", sealed)

	return ref, nil
}

// Get returns the report bytes for a reference. The blob is unsealed
// and decompressed as the manifest entry dictates, and the result is
// verified against the recorded hash before being returned.
func (s *Store) Get(ref string) ([]byte, error) {
	entry, err := s.Stat(ref)
	if err != nil {
		return nil, err
	}

	blob, err := os.ReadFile(s.blobPath(entry.Hash))
	if err != nil {
		return nil, fmt.Errorf("reading archived blob for %s: %w", ref, err)
	}

	if entry.Sealed {
		if s.key == nil {
			return nil, fmt.Errorf("archive entry %s is sealed and no sealing key is configured", ref)
		}
		blob, err = OpenBlob(blob, s.key, entry.Hash)
		if err != nil {
			return nil, fmt.Errorf("unsealing blob for %s: %w", ref, err)
		}
	}

	report, err := Decompress(blob, entry.Compression, int(entry.Size))
	if err != nil {
		return nil, fmt.Errorf("decompressing blob for %s: %w", ref, err)
	}

	if HashReport(report) != entry.Hash {
		return nil, fmt.Errorf("archived report %s failed hash verification", ref)
	}

	return report, nil
}

// Stat returns the manifest entry for a reference without reading the
// blob.
func (s *Store) Stat(ref string) (Entry, error) {
	if err := ValidateRef(ref); err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.byRef[ref]
	if !ok {
		return Entry{}, fmt.Errorf("no archived report with reference %s", ref)
	}
	return s.entries[index], nil
}

// List returns all manifest entries, oldest first.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.entries)
}

// compressReport applies the store's compression policy to a report.
// Incompressible reports fall back to CompressionNone with the
// original bytes.
func (s *Store) compressReport(report []byte) ([]byte, CompressionTag, error) {
	if s.compression == "none" {
		return report, CompressionNone, nil
	}

	probe := report
	if len(probe) > probeLimit {
		probe = probe[:probeLimit]
	}
	tag := SelectCompression(probe)

	compressed, err := Compress(report, tag)
	if err != nil {
		if IsIncompressible(err) {
			return report, CompressionNone, nil
		}
		return nil, 0, err
	}
	return compressed, tag, nil
}

// writeBlob writes a blob to its content-addressed path via atomic
// rename through the tmp directory. An existing blob for the same
// hash is identical by construction, so the write is skipped.
func (s *Store) writeBlob(hash Hash, blob []byte) error {
	finalPath := s.blobPath(hash)
	if _, err := os.Stat(finalPath); err == nil {
		return nil
	}

	tmpFile, err := os.CreateTemp(filepath.Join(s.dir, tmpDir), "blob-*.bin")
	if err != nil {
		return fmt.Errorf("creating temp blob file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(blob); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing blob: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp blob: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming blob to %s: %w", finalPath, err)
	}

	success = true
	return nil
}

// blobPath returns the filesystem path for a blob. Blobs are stored
// flat: archives hold hundreds of reports, not millions of chunks.
func (s *Store) blobPath(hash Hash) string {
	return filepath.Join(s.dir, blobDir, FormatHash(hash))
}

// loadManifest reads the manifest from disk. A missing manifest means
// an empty archive.
func (s *Store) loadManifest() error {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading archive manifest: %w", err)
	}

	var m manifest
	if err := codec.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decoding archive manifest: %w", err)
	}
	if m.Version < 1 {
		return fmt.Errorf("archive manifest version %d is invalid (minimum 1)", m.Version)
	}

	s.entries = m.Entries
	for index, entry := range s.entries {
		s.byRef[entry.Ref] = index
	}
	return nil
}

// saveManifestLocked writes the manifest via atomic rename. The
// caller must hold s.mu.
func (s *Store) saveManifestLocked() error {
	data, err := codec.Marshal(manifest{Version: manifestVersion, Entries: s.entries})
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Join(s.dir, tmpDir), "manifest-*.cbor")
	if err != nil {
		return fmt.Errorf("creating temp manifest file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp manifest: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(s.dir, manifestName)); err != nil {
		return fmt.Errorf("renaming manifest: %w", err)
	}

	success = true
	return nil
}
