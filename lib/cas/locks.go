// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import "sync"

// hashLocks serializes operations per content hash. Distinct hashes
// never contend — this is the property that lets many stores proceed
// concurrently with no global lock. The store path and the garbage
// collector share one lock table, so a delete can never interleave
// with an in-flight store of the same hash.
type hashLocks struct {
	mu   sync.Mutex
	held map[Hash]chan struct{}
}

func newHashLocks() *hashLocks {
	return &hashLocks{held: make(map[Hash]chan struct{})}
}

// acquire blocks until the lock for hash is free, takes it, and
// returns the release function.
func (l *hashLocks) acquire(hash Hash) (release func()) {
	for {
		l.mu.Lock()
		waiting, taken := l.held[hash]
		if !taken {
			done := make(chan struct{})
			l.held[hash] = done
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.held, hash)
				l.mu.Unlock()
				close(done)
			}
		}
		l.mu.Unlock()
		<-waiting
	}
}
