// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

// Package determinism provides pure, seed-derived replacements for
// the non-deterministic primitives a template might otherwise reach
// for: randomness, UUIDs, and the current time.
//
// The renderer installs these as template functions so that rendering
// the same template with the same context and the same build
// configuration is byte-identical across machines, processes, and
// repeated calls. All functions are total over their domain: there
// are no error paths, only values.
package determinism
