// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stencil-foundation/stencil/lib/clock"
)

// Directory and file names within the store root.
const (
	blobDir       = "blobs"
	tmpDir        = "tmp"
	indexFileName = "index.db"
)

// Blob file format: a fixed 13-byte header followed by the (possibly
// compressed) payload. magic(4) + tag(1) + uncompressedSize(8).
const (
	blobMagic      = "SCB1"
	blobHeaderSize = 13
)

// Store is a content-addressable blob store. Blobs are keyed by the
// content-domain BLAKE3 hash of their uncompressed bytes and live at
// hash-derived sharded paths, published by atomic rename through a
// tmp directory. The store is self-verifying: Retrieve recomputes the
// hash and refuses to return bytes that no longer match the key.
//
// All operations are safe for concurrent use. Writes are serialized
// per hash; distinct hashes never contend.
type Store struct {
	root   string
	index  *Index
	locks  *hashLocks
	clock  clock.Clock
	logger *slog.Logger
}

// StoreConfig holds the parameters for opening a store.
type StoreConfig struct {
	// Root is the store root directory, created if absent.
	Root string

	// Clock stamps entry creation buckets and access times. Defaults
	// to the real clock.
	Clock clock.Clock

	// Logger receives operational messages. Defaults to a no-op logger.
	Logger *slog.Logger
}

// Open opens (or creates) a store rooted at cfg.Root, including its
// SQLite entry index.
func Open(cfg StoreConfig) (*Store, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("cas: Root is required")
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for _, dir := range []string{
		cfg.Root,
		filepath.Join(cfg.Root, blobDir),
		filepath.Join(cfg.Root, tmpDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cas: creating store directory %s: %w", dir, err)
		}
	}

	index, err := OpenIndex(filepath.Join(cfg.Root, indexFileName), clk, logger)
	if err != nil {
		return nil, fmt.Errorf("cas: opening entry index: %w", err)
	}

	return &Store{
		root:   cfg.Root,
		index:  index,
		locks:  newHashLocks(),
		clock:  clk,
		logger: logger,
	}, nil
}

// Close releases the entry index. Blob files need no teardown.
func (s *Store) Close() error {
	return s.index.Close()
}

// Store persists content under its content hash and returns the hash.
// Storing content that is already present is an idempotent no-op that
// still returns the hash. The zero-length blob is storable like any
// other content.
//
// The entry is published by writing to a temp file and renaming into
// place, so a crash or write failure never leaves a retrievable but
// corrupt entry. Write failures are reported wrapped in
// [ErrStorageWrite].
func (s *Store) Store(ctx context.Context, content []byte) (Hash, error) {
	hash := HashContent(content)

	release := s.locks.acquire(hash)
	defer release()

	finalPath := s.blobPath(hash)
	if _, err := os.Stat(finalPath); err == nil {
		// Dedup: identical content is already on disk. Refresh the
		// index in case a previous crash lost the row.
		if err := s.index.Record(ctx, hash, int64(len(content))); err != nil {
			s.logger.Warn("cas: refreshing index row for existing blob",
				"hash", FormatHash(hash), "error", err)
		}
		return hash, nil
	}

	if err := s.writeBlob(hash, content, finalPath); err != nil {
		return Hash{}, fmt.Errorf("%w: %s: %w", ErrStorageWrite, FormatHash(hash), err)
	}

	if err := s.index.Record(ctx, hash, int64(len(content))); err != nil {
		// The blob is durable; a missing index row only delays GC
		// eligibility until Rebuild. Log and carry on.
		s.logger.Warn("cas: recording index entry",
			"hash", FormatHash(hash), "error", err)
	}

	s.logger.Debug("cas: stored blob",
		"hash", FormatHash(hash), "size", len(content))
	return hash, nil
}

// writeBlob writes the framed, compressed blob via atomic rename.
func (s *Store) writeBlob(hash Hash, content []byte, finalPath string) error {
	payload, tag, err := compressWithFallback(content, selectCompression(content))
	if err != nil {
		return fmt.Errorf("compressing blob: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Join(s.root, tmpDir), "blob-*.bin")
	if err != nil {
		return fmt.Errorf("creating temp blob file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up the temp file on any error path.
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	var header [blobHeaderSize]byte
	copy(header[:4], blobMagic)
	header[4] = byte(tag)
	binary.BigEndian.PutUint64(header[5:], uint64(len(content)))

	if _, err := tmpFile.Write(header[:]); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing blob header: %w", err)
	}
	if _, err := tmpFile.Write(payload); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing blob payload: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp blob: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return fmt.Errorf("creating blob shard directory: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming blob to %s: %w", finalPath, err)
	}

	success = true
	return nil
}

// Retrieve reads the content stored under hash. Fails with
// [ErrContentNotFound] when no entry exists and [ErrContentCorrupted]
// when the stored bytes no longer hash to the key — corrupted bytes
// are never returned.
func (s *Store) Retrieve(ctx context.Context, hash Hash) ([]byte, error) {
	raw, err := os.ReadFile(s.blobPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrContentNotFound, FormatHash(hash))
		}
		return nil, fmt.Errorf("reading blob %s: %w", FormatHash(hash), err)
	}

	content, err := decodeBlob(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrContentCorrupted, FormatHash(hash), err)
	}

	if HashContent(content) != hash {
		return nil, fmt.Errorf("%w: %s: stored bytes hash to %s",
			ErrContentCorrupted, FormatHash(hash), FormatHash(HashContent(content)))
	}

	// Access tracking feeds GC aging decisions; losing an update is
	// harmless.
	if err := s.index.Touch(ctx, hash); err != nil {
		s.logger.Warn("cas: touching index entry",
			"hash", FormatHash(hash), "error", err)
	}

	return content, nil
}

// decodeBlob validates the frame header and decompresses the payload.
func decodeBlob(raw []byte) ([]byte, error) {
	if len(raw) < blobHeaderSize {
		return nil, fmt.Errorf("blob is %d bytes, shorter than the %d-byte header", len(raw), blobHeaderSize)
	}
	if string(raw[:4]) != blobMagic {
		return nil, fmt.Errorf("bad blob magic %q", raw[:4])
	}
	tag := CompressionTag(raw[4])
	uncompressedSize := binary.BigEndian.Uint64(raw[5:blobHeaderSize])
	return decompress(raw[blobHeaderSize:], tag, int(uncompressedSize))
}

// Exists reports whether an entry for hash is present on disk.
func (s *Store) Exists(hash Hash) bool {
	_, err := os.Stat(s.blobPath(hash))
	return err == nil
}

// Verify recomputes the content hash of bytes and compares it to hash.
func Verify(hash Hash, content []byte) bool {
	return HashContent(content) == hash
}

// blobPath returns the sharded filesystem path for a blob. Blobs are
// sharded by the first two bytes of the hash hex:
// blobs/a3/f9/a3f9b2c1e7d4...
func (s *Store) blobPath(hash Hash) string {
	hexDigest := FormatHash(hash)
	return filepath.Join(s.root, blobDir, hexDigest[:2], hexDigest[2:4], hexDigest)
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}
