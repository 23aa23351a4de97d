// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source resolves template identifiers to parsed templates.
type Source interface {
	// Resolve returns the template for the given identifier, or an
	// error wrapping [ErrNotFound] when no such template exists.
	Resolve(id string) (*Template, error)
}

// DiskSource resolves template identifiers against a directory tree.
// The identifier "greeting/hello" maps to <root>/greeting/hello.tmpl;
// an identifier that already carries the extension is used as-is.
type DiskSource struct {
	root string
}

// Extension is the template file extension a [DiskSource] appends to
// bare identifiers.
const Extension = ".tmpl"

// NewDiskSource returns a source rooted at the given directory. The
// root is resolved to an absolute path so the confinement check works
// for relative roots, including ".".
func NewDiskSource(root string) *DiskSource {
	resolved, err := filepath.Abs(root)
	if err != nil {
		resolved = filepath.Clean(root)
	}
	return &DiskSource{root: resolved}
}

// Resolve reads and parses the template file for id. Identifiers are
// confined to the source root: an id that escapes via ".." segments
// is treated as not found.
func (s *DiskSource) Resolve(id string) (*Template, error) {
	relative := filepath.FromSlash(id)
	if !strings.HasSuffix(relative, Extension) {
		relative += Extension
	}

	path := filepath.Join(s.root, relative)
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("reading template %s: %w", id, err)
	}

	return Parse(id, string(source))
}
