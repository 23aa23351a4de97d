// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"context"
	"fmt"
	"os"
	"time"
)

// DefaultGracePeriod is the window after an entry's creation bucket
// during which GC never reclaims it, referenced or not. It is far
// longer than any single store operation, so an entry observed
// mid-store can never be deleted out from under the writer.
const DefaultGracePeriod = 15 * time.Minute

// Policy controls a garbage collection run.
type Policy struct {
	// MinAge is the minimum age (from creation bucket) before an
	// entry is eligible for reclamation.
	MinAge time.Duration

	// GracePeriod overrides [DefaultGracePeriod] when positive.
	// Entries whose creation bucket or last access falls within the
	// grace window are never touched, regardless of MinAge or
	// references.
	GracePeriod time.Duration

	// LiveSet holds the hashes referenced by current lockfiles and
	// attestations. Members are never reclaimed, regardless of age.
	LiveSet map[Hash]struct{}

	// DryRun reports what would be reclaimed without deleting.
	DryRun bool
}

// CollectFailure records a single entry that could not be reclaimed.
// Failures do not abort the run.
type CollectFailure struct {
	Hash Hash
	Err  error
}

// CollectResult summarizes a garbage collection run.
type CollectResult struct {
	// Scanned is the number of index entries examined.
	Scanned int

	// Reclaimed is the number of entries deleted (or, in a dry run,
	// that would have been deleted).
	Reclaimed int

	// BytesFreed is the total uncompressed size of reclaimed entries.
	BytesFreed int64

	// Failures lists entries whose deletion failed. The scan
	// continued past each of them.
	Failures []CollectFailure
}

// Collect reclaims unreferenced entries older than the policy's age
// threshold. The walk checks ctx at every entry boundary, so a
// cancelled run stops cleanly between entries — no entry is ever left
// half-deleted — and returns the partial result alongside ctx's
// error.
//
// Deletion takes the same per-hash lock as Store, so a collection can
// never race an in-flight store of the same content; the grace period
// makes the overlap window unreachable in the first place.
func (s *Store) Collect(ctx context.Context, policy Policy) (*CollectResult, error) {
	grace := policy.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	entries, err := s.index.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("cas: enumerating entries for collection: %w", err)
	}

	now := s.clock.Now()
	result := &CollectResult{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++

		// MinAge ages from the first store (the creation bucket). The
		// grace window ages from the most recent activity: a re-store of
		// existing content refreshes last access without resetting the
		// creation bucket, and must still be protected from a
		// concurrent collection.
		freshest := entry.CreatedBucket
		if entry.LastAccess.After(freshest) {
			freshest = entry.LastAccess
		}
		if now.Sub(freshest) < grace || now.Sub(entry.CreatedBucket) < policy.MinAge {
			continue
		}
		if _, live := policy.LiveSet[entry.Hash]; live {
			continue
		}

		if policy.DryRun {
			result.Reclaimed++
			result.BytesFreed += entry.Size
			continue
		}

		if err := s.deleteEntry(ctx, entry.Hash); err != nil {
			result.Failures = append(result.Failures, CollectFailure{Hash: entry.Hash, Err: err})
			continue
		}
		result.Reclaimed++
		result.BytesFreed += entry.Size
	}

	s.logger.Info("cas: collection finished",
		"scanned", result.Scanned,
		"reclaimed", result.Reclaimed,
		"bytes_freed", result.BytesFreed,
		"failures", len(result.Failures),
		"dry_run", policy.DryRun)

	return result, nil
}

// deleteEntry removes one blob and its index row under the per-hash
// lock. The blob file goes first: an index row without a blob is
// repaired by Rebuild, whereas a blob without an index row would
// linger unreclaimed.
func (s *Store) deleteEntry(ctx context.Context, hash Hash) error {
	release := s.locks.acquire(hash)
	defer release()

	if err := os.Remove(s.blobPath(hash)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing blob %s: %w", FormatHash(hash), err)
	}
	if err := s.index.Remove(ctx, hash); err != nil {
		return fmt.Errorf("removing index row %s: %w", FormatHash(hash), err)
	}
	return nil
}
