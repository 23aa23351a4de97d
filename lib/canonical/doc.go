// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

// Package canonical normalizes structured data and text into
// byte-stable forms. It is the leaf dependency of the whole engine:
// the renderer canonicalizes contexts and output before hashing, the
// graph provider canonicalizes snapshot bytes, and provenance records
// hash only canonical forms.
//
// The load-bearing property is that equal meaning yields equal bytes.
// [Value] reduces structured data to a fixed set of shapes (string
// keyed maps, order-preserving sequences, int64, float64, bool,
// string, bytes, nil) and [Marshal] serializes that form with the
// deterministic codec. [Text] normalizes line endings and trailing
// whitespace. All functions are pure and idempotent.
package canonical
