// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

// Package render turns a template plus a context into canonical
// artifact bytes and their content hash. Rendering is deterministic:
// contexts are canonicalized and stripped of volatile keys, and the
// only non-pure primitives available to a template body are the
// seed-derived functions from the determinism package.
package render
