// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts time operations for testability. Production code
// injects Real(); tests inject a Fake with deterministic time control.
//
// Every production function that needs the current time — garbage
// collection aging, lockfile modification buckets, store entry
// creation stamps — should accept a Clock (or be a method on a struct
// with a Clock field) instead of calling time.Now directly. The
// renderer never touches a Clock at all: render-visible time comes
// from the build configuration, not from any clock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep pauses the current goroutine for at least duration d.
	// Equivalent to time.Sleep.
	Sleep(d time.Duration)
}
