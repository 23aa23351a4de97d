// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stencil-foundation/stencil/lib/canonical"
	"github.com/stencil-foundation/stencil/lib/cas"
)

// Sentinel errors for template resolution and parsing.
var (
	// ErrNotFound is returned when a template identifier does not
	// resolve to any source.
	ErrNotFound = errors.New("template not found")

	// ErrSyntax is returned for malformed frontmatter or body syntax.
	// A syntax error fails the whole parse — there is no partial
	// template.
	ErrSyntax = errors.New("template syntax error")
)

// frontmatterDelimiter separates YAML frontmatter from the template
// body. The frontmatter block is optional; when present it must open
// on the first line.
const frontmatterDelimiter = "---"

// Template is a parsed, canonicalized template. Immutable once
// parsed: a new version of the source is a new Template with a new
// hash.
type Template struct {
	// ID is the stable template identifier (logical name/path).
	ID string

	// Frontmatter is the validated configuration block.
	Frontmatter Frontmatter

	// Body is the canonical template body text.
	Body string

	// Hash is the template-domain hash over canonical frontmatter and
	// canonical body.
	Hash cas.Hash
}

// Parse splits source into frontmatter and body, validates the
// frontmatter, canonicalizes both, and computes the template hash.
// Malformed frontmatter (bad YAML, unknown fields, conflicting
// injection settings) fails the whole parse with [ErrSyntax].
func Parse(id, source string) (*Template, error) {
	frontmatterText, bodyText, err := split(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSyntax, id, err)
	}

	frontmatter, err := parseFrontmatter(frontmatterText)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSyntax, id, err)
	}

	canonicalBody := canonical.Text(bodyText)

	canonicalFrontmatter, err := canonical.Marshal(frontmatter.asMap())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: canonicalizing frontmatter: %w", ErrSyntax, id, err)
	}

	return &Template{
		ID:          id,
		Frontmatter: frontmatter,
		Body:        canonicalBody,
		Hash:        cas.HashTemplate(canonicalFrontmatter, []byte(canonicalBody)),
	}, nil
}

// split separates the optional frontmatter block from the body. The
// block must start on line one with the delimiter and close with a
// delimiter line; an unclosed block is a syntax error, not an
// implicit body.
func split(source string) (frontmatter, body string, err error) {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")

	if !strings.HasPrefix(normalized, frontmatterDelimiter+"\n") {
		return "", normalized, nil
	}

	rest := normalized[len(frontmatterDelimiter)+1:]

	// Search with the opening delimiter's newline restored, so a
	// closing delimiter on the very next line (an empty block) still
	// matches.
	padded := "\n" + rest
	end := strings.Index(padded, "\n"+frontmatterDelimiter+"\n")
	switch {
	case end >= 0:
		return rest[:end], rest[end+len(frontmatterDelimiter)+1:], nil
	case strings.HasSuffix(padded, "\n"+frontmatterDelimiter):
		return rest[:len(rest)-len(frontmatterDelimiter)], "", nil
	default:
		return "", "", fmt.Errorf("frontmatter block is never closed")
	}
}

// parseFrontmatter decodes the YAML block in strict mode (unknown
// fields rejected) and validates the result.
func parseFrontmatter(text string) (Frontmatter, error) {
	var frontmatter Frontmatter
	if strings.TrimSpace(text) != "" {
		decoder := yaml.NewDecoder(bytes.NewReader([]byte(text)))
		decoder.KnownFields(true)
		if err := decoder.Decode(&frontmatter); err != nil && err != io.EOF {
			return Frontmatter{}, fmt.Errorf("parsing frontmatter: %w", err)
		}
	}
	if err := frontmatter.Validate(); err != nil {
		return Frontmatter{}, err
	}
	return frontmatter, nil
}
