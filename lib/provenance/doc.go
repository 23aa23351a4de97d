// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

// Package provenance assembles, validates, and compares the records
// that link an artifact's content hash to the template and graph
// hashes that produced it. Records are persisted as deterministic
// CBOR attestation sidecars next to their artifacts.
package provenance
