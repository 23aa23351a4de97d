// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"strings"
)

// Apply merges rendered content into the existing destination text
// according to the frontmatter's injection mode. For [InjectWrite] the
// existing text is discarded. Each mode has exactly one handler; the
// mode was validated at parse time, so an unknown mode here is a
// programming error.
//
// Content and existing are expected in canonical text form (LF line
// endings, trailing newline).
func (f Frontmatter) Apply(existing, content string) (string, error) {
	switch f.Inject {
	case InjectWrite:
		return content, nil
	case InjectPrepend:
		return content + existing, nil
	case InjectAppend:
		return existing + content, nil
	case InjectBefore:
		return injectAtAnchor(existing, content, f.Anchor, false)
	case InjectAfter:
		return injectAtAnchor(existing, content, f.Anchor, true)
	case InjectAtLine:
		return injectAtLine(existing, content, f.AtLine)
	default:
		return "", fmt.Errorf("unhandled injection mode %q", f.Inject)
	}
}

// injectAtAnchor inserts content before or after the first line
// containing the anchor substring.
func injectAtAnchor(existing, content, anchor string, after bool) (string, error) {
	lines := splitLines(existing)
	for i, line := range lines {
		if !strings.Contains(line, anchor) {
			continue
		}
		insertAt := i
		if after {
			insertAt = i + 1
		}
		return joinAt(lines, content, insertAt), nil
	}
	return "", fmt.Errorf("anchor %q not found in destination", anchor)
}

// injectAtLine inserts content so it begins at the given 1-based
// line. Line count plus one is allowed (insertion at end of file);
// anything past that is an error rather than a silent append.
func injectAtLine(existing, content string, line int) (string, error) {
	lines := splitLines(existing)
	index := line - 1
	if index > len(lines) {
		return "", fmt.Errorf("at_line %d is past the end of a %d-line destination", line, len(lines))
	}
	return joinAt(lines, content, index), nil
}

// splitLines splits text into lines that keep their trailing newline,
// dropping the empty remainder after a final newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func joinAt(lines []string, content string, index int) string {
	var builder strings.Builder
	for i, line := range lines {
		if i == index {
			builder.WriteString(content)
		}
		builder.WriteString(line)
	}
	if index >= len(lines) {
		builder.WriteString(content)
	}
	return builder.String()
}
