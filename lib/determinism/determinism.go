// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package determinism

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// randomDomainKey is the 32-byte BLAKE3 key for the pseudo-random
// domain. The byte values are the ASCII encoding of the domain name,
// zero-padded to 32 bytes, keeping the key inspectable in hex dumps.
// Changing it changes every pseudo-random value ever derived.
var randomDomainKey = [32]byte{
	's', 't', 'e', 'n', 'c', 'i', 'l', '.', 'd', 'e', 't', 'e', 'r', 'm', 'i', 'n',
	'i', 's', 'm', '.', 'r', 'a', 'n', 'd', 'o', 'm', 0, 0, 0, 0, 0, 0,
}

// Config is the immutable build configuration that replaces every
// non-deterministic primitive during rendering. It is constructed
// once per build and passed explicitly into each call that needs it —
// never read from ambient or global state.
type Config struct {
	// Seed is the build seed. All derived values (pseudo-random
	// floats, UUIDs) are pure functions of the seed and their call
	// arguments. Two builds with the same seed derive the same values.
	Seed string

	// BuildTime is the single timestamp visible inside rendered
	// artifacts. It is supplied explicitly by the caller, constant
	// across every call within a build, and unrelated to the wall
	// clock at render time.
	BuildTime time.Time
}

// Validate reports configuration errors. A zero BuildTime is invalid
// because it would silently render the Go zero time into artifacts.
func (c Config) Validate() error {
	if c.BuildTime.IsZero() {
		return fmt.Errorf("determinism: BuildTime is required")
	}
	return nil
}

// Random returns a pseudo-random float in [0, 1) derived from the
// seed and a per-call discriminator. The same (seed, discriminator)
// pair always yields the same float; distinct discriminators yield
// independent-looking values. The discriminator is treated as a
// literal string — there is no malformed input.
//
// Derivation: BLAKE3 keyed hash of seed || 0x00 || discriminator in
// the random domain, top 53 bits of the first 8 digest bytes mapped
// onto the unit interval. 53 bits is the float64 mantissa width, so
// every representable value in the result set is exact.
func (c Config) Random(discriminator string) float64 {
	digest := c.derive(discriminator)
	bits := binary.BigEndian.Uint64(digest[:8])
	return float64(bits>>11) / (1 << 53)
}

// UUID returns a deterministic RFC 4122 version-5 UUID derived from
// the seed, a namespace label, and an input string. The version
// nibble is 5, signalling hash-derived rather than random. The same
// (seed, namespace, input) triple always yields the same UUID.
func (c Config) UUID(namespace, input string) uuid.UUID {
	// Derive a per-(seed, namespace) UUID namespace, then a standard
	// SHA1 name-based UUID within it. uuid.NewSHA1 sets the version-5
	// and variant bits.
	namespaceID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("stencil:"+c.Seed+":"+namespace))
	return uuid.NewSHA1(namespaceID, []byte(input))
}

// Time returns the canonical textual form of the build time: RFC 3339
// in UTC. Constant across all calls within a build.
func (c Config) Time() string {
	return c.BuildTime.UTC().Format(time.RFC3339)
}

// derive computes the domain-keyed digest of seed || 0x00 ||
// discriminator. The separator byte prevents ("ab", "c") and
// ("a", "bc") from colliding.
func (c Config) derive(discriminator string) [32]byte {
	hasher, err := blake3.NewKeyed(randomDomainKey[:])
	if err != nil {
		panic("determinism: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(c.Seed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(discriminator))

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}
