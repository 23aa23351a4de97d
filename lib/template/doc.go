// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

// Package template models build templates: a YAML frontmatter block
// carrying destination and injection configuration, followed by a
// text body. Parsing canonicalizes both halves and computes the
// template-domain hash, so two byte-different sources with the same
// canonical form are the same template.
package template
