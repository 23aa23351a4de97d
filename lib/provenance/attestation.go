// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package provenance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stencil-foundation/stencil/lib/codec"
)

// AttestationSuffix is appended to an artifact path to name its
// attestation sidecar.
const AttestationSuffix = ".attest"

// ErrAttestationMissing is returned when an artifact has no
// attestation sidecar.
var ErrAttestationMissing = errors.New("attestation not found")

// AttestationPath returns the sidecar path for an artifact path.
func AttestationPath(artifactPath string) string {
	return artifactPath + AttestationSuffix
}

// WriteAttestation persists the record as a deterministic CBOR
// sidecar next to the artifact. The write is atomic: a reader never
// observes a partially-written attestation.
func WriteAttestation(artifactPath string, record *Record) error {
	path := AttestationPath(artifactPath)
	temp, err := os.CreateTemp(filepath.Dir(path), ".attest-*")
	if err != nil {
		return fmt.Errorf("provenance: creating attestation temp file: %w", err)
	}
	tempPath := temp.Name()

	if err := codec.NewEncoder(temp).Encode(record); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("provenance: encoding attestation for %s: %w", artifactPath, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("provenance: closing attestation temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("provenance: publishing attestation for %s: %w", artifactPath, err)
	}
	return nil
}

// ReadAttestation loads the attestation sidecar for an artifact path.
// A missing sidecar returns an error wrapping [ErrAttestationMissing].
func ReadAttestation(artifactPath string) (*Record, error) {
	file, err := os.Open(AttestationPath(artifactPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAttestationMissing, artifactPath)
		}
		return nil, fmt.Errorf("provenance: reading attestation for %s: %w", artifactPath, err)
	}
	defer file.Close()

	var record Record
	if err := codec.NewDecoder(file).Decode(&record); err != nil {
		return nil, fmt.Errorf("provenance: decoding attestation for %s: %w", artifactPath, err)
	}
	return &record, nil
}
