// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stencil-foundation/stencil/lib/cas"
)

// DefaultName is the conventional lockfile name at a project root.
const DefaultName = "stencil.lock"

// currentVersion is the lockfile schema version this package writes
// and accepts.
const currentVersion = 1

// mtimeBucketSize is the granularity of recorded modification times.
// Buckets exist to make lockfiles stable across filesystems with
// different timestamp resolution, and as a cheap pre-check before
// hashing; the hash is always authoritative.
const mtimeBucketSize = time.Hour

// ErrMissing is returned when the lockfile does not exist.
var ErrMissing = errors.New("lockfile not found")

// Entry is the recorded baseline for one tracked path.
type Entry struct {
	// Hash is the hex content-domain hash of the tracked file.
	Hash string `yaml:"hash"`

	// Size is the file size in bytes.
	Size int64 `yaml:"size"`

	// MtimeBucket is the file's modification time truncated to
	// [mtimeBucketSize], RFC 3339 UTC.
	MtimeBucket string `yaml:"mtime_bucket"`
}

// Lockfile is the manifest of tracked paths and their last-known
// content hashes. The set of keys defines the tracked scope: a path
// absent from the manifest is untracked, not drifted.
type Lockfile struct {
	Version     int              `yaml:"version"`
	GeneratedAt string           `yaml:"generated_at"`
	Entries     map[string]Entry `yaml:"entries"`
}

// Snapshot builds a lockfile by hashing each tracked path as it
// exists on disk right now. Every path must exist; locking a missing
// artifact is an error, not an empty entry.
func Snapshot(paths []string, generatedAt time.Time) (*Lockfile, error) {
	manifest := &Lockfile{
		Version:     currentVersion,
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Entries:     make(map[string]Entry, len(paths)),
	}

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("lockfile: reading tracked path %s: %w", path, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("lockfile: stat %s: %w", path, err)
		}
		manifest.Entries[filepath.ToSlash(path)] = Entry{
			Hash:        cas.FormatHash(cas.HashContent(content)),
			Size:        int64(len(content)),
			MtimeBucket: info.ModTime().UTC().Truncate(mtimeBucketSize).Format(time.RFC3339),
		}
	}
	return manifest, nil
}

// Paths returns the tracked paths in sorted order.
func (l *Lockfile) Paths() []string {
	paths := make([]string, 0, len(l.Entries))
	for path := range l.Entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// LiveHashes returns the set of content hashes the lockfile
// references, in the form the garbage collector's live set expects.
func (l *Lockfile) LiveHashes() map[cas.Hash]struct{} {
	live := make(map[cas.Hash]struct{}, len(l.Entries))
	for _, entry := range l.Entries {
		hash, err := cas.ParseHash(entry.Hash)
		if err != nil {
			continue
		}
		live[hash] = struct{}{}
	}
	return live
}

// Read loads and validates a lockfile. A missing file returns an
// error wrapping [ErrMissing].
func Read(path string) (*Lockfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("lockfile: reading %s: %w", path, err)
	}

	var manifest Lockfile
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("lockfile: parsing %s: %w", path, err)
	}
	if manifest.Version != currentVersion {
		return nil, fmt.Errorf("lockfile: %s has schema version %d, want %d", path, manifest.Version, currentVersion)
	}
	for trackedPath, entry := range manifest.Entries {
		if !cas.IsHexHash(entry.Hash) {
			return nil, fmt.Errorf("lockfile: %s: entry %s has a malformed hash", path, trackedPath)
		}
	}
	if manifest.Entries == nil {
		manifest.Entries = map[string]Entry{}
	}
	return &manifest, nil
}

// Write persists the lockfile atomically. YAML map keys serialize in
// sorted order, so two lockfiles over the same tree are byte-equal.
func (l *Lockfile) Write(path string) error {
	encoded, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("lockfile: encoding: %w", err)
	}

	temp, err := os.CreateTemp(filepath.Dir(path), ".lock-*")
	if err != nil {
		return fmt.Errorf("lockfile: creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(encoded); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("lockfile: writing %s: %w", path, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("lockfile: closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("lockfile: publishing %s: %w", path, err)
	}
	return nil
}
