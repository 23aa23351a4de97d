// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Stencil's standard CBOR encoding.
//
// All persistent records (attestation sidecars, reconstruction
// metadata) and all hashed structured values (canonicalized render
// contexts, frontmatter) go through this package. Encoding uses RFC
// 8949 Core Deterministic Encoding, so the same logical value always
// encodes to the same bytes regardless of map iteration order or
// process state. That determinism is what makes a hash of an encoded
// value a meaningful equality test.
//
// Consumers import this package rather than fxamacker/cbor directly
// so the encoding configuration stays uniform across the codebase.
package codec
