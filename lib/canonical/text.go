// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package canonical

import "strings"

// Text normalizes rendered text into canonical byte form:
//
//   - all line endings (CRLF, lone CR) become LF
//   - trailing spaces and tabs are stripped from every line
//   - the result ends with exactly one newline
//
// Text is idempotent. An empty input canonicalizes to a single
// newline, matching the "exactly one trailing newline" rule.
func Text(input string) string {
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	normalized = strings.Join(lines, "\n")

	normalized = strings.TrimRight(normalized, "\n")
	return normalized + "\n"
}
