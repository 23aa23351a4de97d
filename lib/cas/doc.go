// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

// Package cas implements the content-addressable store: blobs keyed
// by the BLAKE3 hash of their own bytes, with idempotent writes,
// verify-on-read retrieval, and policy-driven garbage collection.
//
// Hashing uses keyed BLAKE3 with domain separation (content,
// template, graph, record domains), so identical bytes hashed in
// different roles can never collide across roles. The store publishes
// blobs by atomic rename through a tmp directory and serializes
// operations per hash — distinct hashes never contend, which is what
// lets renders store their outputs concurrently with no coordinator.
//
// A SQLite index (lib/sqlitepool) carries per-entry metadata: size,
// creation bucket, last access. The blob tree remains the source of
// truth; the index is rebuildable from it and exists so the collector
// can age and enumerate entries without stat-walking the tree.
package cas
