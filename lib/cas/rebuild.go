// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// RebuildIndex repopulates the entry index from the blob tree. Rows
// for blobs already indexed keep their existing creation bucket; rows
// for unindexed blobs (for example after index loss) are created with
// the current time as their bucket, which restarts their GC aging —
// the conservative direction.
//
// Returns the number of blobs scanned.
func (s *Store) RebuildIndex(ctx context.Context) (int, error) {
	scanned := 0
	root := filepath.Join(s.root, blobDir)

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		hash, err := ParseHash(entry.Name())
		if err != nil {
			return fmt.Errorf("blob tree contains non-hash file %s: %w", path, err)
		}

		size, err := blobUncompressedSize(path)
		if err != nil {
			return fmt.Errorf("reading blob header %s: %w", path, err)
		}

		if err := s.index.Record(ctx, hash, size); err != nil {
			return fmt.Errorf("recording index row for %s: %w", FormatHash(hash), err)
		}
		scanned++
		return nil
	})
	if err != nil {
		return scanned, fmt.Errorf("cas: rebuilding index: %w", err)
	}

	s.logger.Info("cas: index rebuilt", "blobs", scanned)
	return scanned, nil
}

// blobUncompressedSize reads just the frame header to recover the
// uncompressed content size without decompressing the payload.
func blobUncompressedSize(path string) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var header [blobHeaderSize]byte
	if _, err := io.ReadFull(file, header[:]); err != nil {
		return 0, err
	}
	if string(header[:4]) != blobMagic {
		return 0, fmt.Errorf("bad blob magic %q", header[:4])
	}
	return int64(binary.BigEndian.Uint64(header[5:])), nil
}
