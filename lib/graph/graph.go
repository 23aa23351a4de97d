// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/stencil-foundation/stencil/lib/canonical"
	"github.com/stencil-foundation/stencil/lib/cas"
)

// ErrNotFound is returned when a graph path does not resolve to any
// source.
var ErrNotFound = errors.New("graph not found")

// Snapshot is a graph serialization pinned at a point in time: the
// canonical bytes plus their graph-domain hash. Renders and
// provenance records reference graphs through snapshots, never
// through live files.
type Snapshot struct {
	// Path is the logical graph path the snapshot was taken from.
	Path string

	// Content holds the canonical serialized bytes.
	Content []byte

	// Hash is the graph-domain hash of Content.
	Hash cas.Hash
}

// FromBytes builds a snapshot from raw serialized bytes. Text
// serializations (Turtle, JSON-LD, N-Triples and the like) are
// canonicalized as text; anything that is not valid UTF-8 is hashed
// byte-for-byte.
func FromBytes(path string, raw []byte) *Snapshot {
	content := raw
	if utf8.Valid(raw) {
		content = []byte(canonical.Text(string(raw)))
	}
	return &Snapshot{
		Path:    path,
		Content: content,
		Hash:    cas.HashGraph(content),
	}
}

// Source resolves graph paths to snapshots.
type Source interface {
	// Resolve returns a snapshot of the graph at path, or an error
	// wrapping [ErrNotFound] when no such graph exists.
	Resolve(path string) (*Snapshot, error)
}

// DiskSource resolves graph paths against a directory tree.
type DiskSource struct {
	root string
}

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

// Resolve reads the graph file at the given slash-separated path,
// confined to the source root.
func (s *DiskSource) Resolve(path string) (*Snapshot, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	raw, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading graph %s: %w", path, err)
	}
	return FromBytes(path, raw), nil
}
