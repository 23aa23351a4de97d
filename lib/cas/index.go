// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/stencil-foundation/stencil/lib/clock"
	"github.com/stencil-foundation/stencil/lib/sqlitepool"
)

// createdBucketSize is the granularity of entry creation stamps. GC
// ages entries by bucket, not by exact instant, so two entries stored
// within the same bucket are indistinguishable to the age policy.
const createdBucketSize = time.Hour

// Entry is the index row for a stored blob.
type Entry struct {
	// Hash is the content hash the blob is addressed by.
	Hash Hash

	// Size is the uncompressed content length in bytes.
	Size int64

	// CreatedBucket is the entry's creation time truncated to
	// [createdBucketSize]. GC eligibility is computed from this.
	CreatedBucket time.Time

	// LastAccess is the time of the most recent Retrieve (or the
	// creation time if the blob has never been read back).
	LastAccess time.Time
}

// Index is the SQLite catalog of store entries: size, creation
// bucket, and last access per hash. The blob tree is the source of
// truth for content; the index only carries the metadata GC needs,
// and can be rebuilt from the tree at any time.
type Index struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS entries (
	hash           TEXT PRIMARY KEY,
	size           INTEGER NOT NULL,
	created_bucket INTEGER NOT NULL,
	last_access    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_created_bucket ON entries (created_bucket);
`

// OpenIndex opens (or creates) the entry index database at path.
func OpenIndex(path string, clk clock.Clock, logger *slog.Logger) (*Index, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, indexSchema, nil)
		},
	})
	if err != nil {
		return nil, err
	}
	return &Index{pool: pool, clock: clk, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (i *Index) Close() error {
	return i.pool.Close()
}

// Record inserts the index row for a newly stored blob. Re-recording
// an existing hash keeps the original creation bucket (the blob's age
// is its first store, not its latest) and refreshes last access.
func (i *Index) Record(ctx context.Context, hash Hash, size int64) error {
	conn, err := i.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer i.pool.Put(conn)

	now := i.clock.Now()
	return sqlitex.Execute(conn, `
		INSERT INTO entries (hash, size, created_bucket, last_access)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (hash) DO UPDATE SET last_access = excluded.last_access`,
		&sqlitex.ExecOptions{
			Args: []any{
				FormatHash(hash),
				size,
				now.Truncate(createdBucketSize).Unix(),
				now.Unix(),
			},
		})
}

// Touch refreshes the last-access stamp for a hash. Unknown hashes
// are a no-op.
func (i *Index) Touch(ctx context.Context, hash Hash) error {
	conn, err := i.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer i.pool.Put(conn)

	return sqlitex.Execute(conn,
		`UPDATE entries SET last_access = ? WHERE hash = ?`,
		&sqlitex.ExecOptions{
			Args: []any{i.clock.Now().Unix(), FormatHash(hash)},
		})
}

// Remove deletes the index row for a hash.
func (i *Index) Remove(ctx context.Context, hash Hash) error {
	conn, err := i.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer i.pool.Put(conn)

	return sqlitex.Execute(conn,
		`DELETE FROM entries WHERE hash = ?`,
		&sqlitex.ExecOptions{
			Args: []any{FormatHash(hash)},
		})
}

// Entries returns every index row, ordered by hash for stable
// iteration. The garbage collector walks this list.
func (i *Index) Entries(ctx context.Context) ([]Entry, error) {
	conn, err := i.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer i.pool.Put(conn)

	var entries []Entry
	err = sqlitex.Execute(conn,
		`SELECT hash, size, created_bucket, last_access FROM entries ORDER BY hash`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				hash, err := ParseHash(stmt.ColumnText(0))
				if err != nil {
					return fmt.Errorf("index row has malformed hash %q: %w", stmt.ColumnText(0), err)
				}
				entries = append(entries, Entry{
					Hash:          hash,
					Size:          stmt.ColumnInt64(1),
					CreatedBucket: time.Unix(stmt.ColumnInt64(2), 0).UTC(),
					LastAccess:    time.Unix(stmt.ColumnInt64(3), 0).UTC(),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("listing index entries: %w", err)
	}
	return entries, nil
}
