// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package drift

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/stencil-foundation/stencil/lib/cas"
	"github.com/stencil-foundation/stencil/lib/lockfile"
	"github.com/stencil-foundation/stencil/lib/provenance"
)

// Classification is the drift status of one tracked path.
type Classification string

const (
	// Unchanged means the current content hashes to the recorded
	// baseline.
	Unchanged Classification = "unchanged"

	// Modified means the path exists but its content hashes to a
	// different value than the baseline.
	Modified Classification = "modified"

	// Missing means the baseline tracks the path but it no longer
	// exists.
	Missing Classification = "missing"

	// UntrackedNew means the path exists on disk but the baseline
	// does not track it. Informational: untracked paths never set the
	// drift flag.
	UntrackedNew Classification = "untracked-new"
)

// Finding is the classification of a single path.
type Finding struct {
	Path           string
	Classification Classification

	// RecordedHash is the baseline hash, empty for untracked paths.
	RecordedHash string

	// CurrentHash is the hash of the content on disk, empty for
	// missing paths.
	CurrentHash string
}

// Report summarizes a drift detection run. DriftDetected is true when
// any tracked path is modified or missing.
type Report struct {
	DriftDetected bool
	Findings      []Finding
}

// Detect classifies every baseline path plus any extra candidate
// paths against the lockfile. The lockfile's entries define the
// tracked scope; extraPaths that the baseline does not cover are
// reported as untracked-new. Classification re-hashes file content;
// it never re-renders.
func Detect(extraPaths []string, baseline *lockfile.Lockfile) (*Report, error) {
	if baseline == nil {
		return nil, errors.New("drift: baseline lockfile is required")
	}

	report := &Report{}

	for _, path := range baseline.Paths() {
		entry := baseline.Entries[path]
		finding := Finding{Path: path, RecordedHash: entry.Hash}

		content, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			finding.Classification = Missing
		case err != nil:
			return nil, fmt.Errorf("drift: reading tracked path %s: %w", path, err)
		default:
			finding.CurrentHash = cas.FormatHash(cas.HashContent(content))
			if finding.CurrentHash == entry.Hash {
				finding.Classification = Unchanged
			} else {
				finding.Classification = Modified
			}
		}

		if finding.Classification == Modified || finding.Classification == Missing {
			report.DriftDetected = true
		}
		report.Findings = append(report.Findings, finding)
	}

	for _, path := range sortedUnique(extraPaths) {
		if _, tracked := baseline.Entries[path]; tracked {
			continue
		}
		content, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("drift: reading candidate path %s: %w", path, err)
		}
		report.Findings = append(report.Findings, Finding{
			Path:           path,
			Classification: UntrackedNew,
			CurrentHash:    cas.FormatHash(cas.HashContent(content)),
		})
	}

	return report, nil
}

// BaselineFromAttestations builds a drift baseline from attestation
// sidecars when no lockfile exists. Paths without a sidecar are left
// out of the baseline and will classify as untracked-new.
func BaselineFromAttestations(artifactPaths []string) (*lockfile.Lockfile, error) {
	baseline := &lockfile.Lockfile{Entries: map[string]lockfile.Entry{}}

	for _, path := range artifactPaths {
		record, err := provenance.ReadAttestation(path)
		if errors.Is(err, provenance.ErrAttestationMissing) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("drift: %w", err)
		}
		if validation := provenance.Validate(record); !validation.Valid {
			return nil, fmt.Errorf("drift: attestation for %s is invalid: %v", path, validation.Errors)
		}
		baseline.Entries[path] = lockfile.Entry{
			Hash: record.ArtifactHash,
			Size: record.ArtifactSize,
		}
	}

	if len(baseline.Entries) == 0 {
		return nil, errors.New("drift: no attestations found for any candidate path")
	}
	return baseline, nil
}

func sortedUnique(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
