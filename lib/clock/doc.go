// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock access behind a Clock interface
// so that time-dependent behavior (garbage collection aging, grace
// windows, lockfile modification buckets) is testable with a fake
// clock instead of real sleeps.
//
// Note the division of responsibility with lib/determinism: a Clock
// answers "what time is it on this machine right now" and is allowed
// to differ between runs; the deterministic build time from
// determinism.Config answers "what timestamp appears inside rendered
// artifacts" and must never differ between runs of the same build.
package clock
