// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest. All engine hashes (artifact
// content, template, graph, provenance record) are this size and are
// rendered as 64-character lowercase hex.
type Hash [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures that the same input bytes produce different
// hashes in different contexts, preventing cross-domain collisions —
// a template whose source happens to equal an artifact's content
// still gets a distinct hash.
type domainKey [32]byte

// Domain separation keys. These are fixed constants — changing them
// invalidates every hash in that domain. The byte values are the
// ASCII encoding of the domain name, zero-padded to 32 bytes, so the
// keys are inspectable in hex dumps without sacrificing any
// cryptographic property (BLAKE3 keyed mode treats the key as an
// opaque 32-byte value).
var (
	contentDomainKey = domainKey{
		's', 't', 'e', 'n', 'c', 'i', 'l', '.', 'c', 'a', 's', '.',
		'c', 'o', 'n', 't', 'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	templateDomainKey = domainKey{
		's', 't', 'e', 'n', 'c', 'i', 'l', '.', 'c', 'a', 's', '.',
		't', 'e', 'm', 'p', 'l', 'a', 't', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	graphDomainKey = domainKey{
		's', 't', 'e', 'n', 'c', 'i', 'l', '.', 'c', 'a', 's', '.',
		'g', 'r', 'a', 'p', 'h', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	recordDomainKey = domainKey{
		's', 't', 'e', 'n', 'c', 'i', 'l', '.', 'c', 'a', 's', '.',
		'r', 'e', 'c', 'o', 'r', 'd', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// HashContent computes the content-domain hash of artifact bytes.
// This is the hash the store addresses blobs by, the hash recorded in
// lockfiles, and the hash the drift detector recomputes.
func HashContent(data []byte) Hash {
	return keyedHash(contentDomainKey, data)
}

// HashTemplate computes the template-domain hash over a template's
// canonical frontmatter followed by its canonical body.
func HashTemplate(canonicalFrontmatter, canonicalBody []byte) Hash {
	hasher := newKeyedHasher(templateDomainKey)
	hasher.Write(canonicalFrontmatter)
	hasher.Write([]byte{0})
	hasher.Write(canonicalBody)
	return sumHash(hasher)
}

// HashGraph computes the graph-domain hash of a graph snapshot's
// canonical bytes.
func HashGraph(data []byte) Hash {
	return keyedHash(graphDomainKey, data)
}

// HashRecord computes the record-domain hash of an encoded provenance
// record. Used to self-address attestation sidecars.
func HashRecord(data []byte) Hash {
	return keyedHash(recordDomainKey, data)
}

// HexLength is the length of a formatted hash: 32 bytes as lowercase hex.
const HexLength = 64

// FormatHash returns the hex-encoded string representation of a hash.
// This is the canonical format used in lockfiles, attestation records,
// logs, and CLI output.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// ParseHash parses a 64-character hex string into a Hash.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing content hash: %w", err)
	}
	if len(decoded) != 32 {
		return hash, fmt.Errorf("content hash is %d bytes, want 32", len(decoded))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// IsHexHash reports whether s has the fixed-length lowercase hex
// layout of a formatted hash. Provenance validation uses this for
// format checks without re-deriving hashes.
func IsHexHash(s string) bool {
	if len(s) != HexLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func newKeyedHasher(key domainKey) *blake3.Hasher {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		// NewKeyed only fails for wrong key length, which domainKey
		// makes impossible.
		panic("cas: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

func sumHash(hasher *blake3.Hasher) Hash {
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// keyedHash computes the BLAKE3 keyed hash of data under the given
// domain key.
func keyedHash(key domainKey, data []byte) Hash {
	hasher := newKeyedHasher(key)
	hasher.Write(data)
	return sumHash(hasher)
}
