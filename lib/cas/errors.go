// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import "errors"

// Sentinel errors for the store. Callers branch with errors.Is; the
// wrapped error chain carries the hash and path context.
var (
	// ErrContentNotFound is returned by Retrieve when no entry exists
	// for the requested hash.
	ErrContentNotFound = errors.New("content not found")

	// ErrContentCorrupted is returned by Retrieve when an entry exists
	// but its bytes no longer hash to the key. The store never returns
	// the corrupted bytes.
	ErrContentCorrupted = errors.New("content corrupted")

	// ErrStorageWrite wraps failures of the underlying medium during
	// Store. A failed store never leaves a retrievable entry behind.
	ErrStorageWrite = errors.New("storage write failed")
)
