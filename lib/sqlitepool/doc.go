// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides a SQLite connection pool with
// Stencil-standard pragmas (WAL journaling, NORMAL synchronous, busy
// timeout). The content store's entry index is its only current
// consumer, but the pool is deliberately generic: it knows nothing
// about schemas beyond the OnConnect hook.
package sqlitepool
