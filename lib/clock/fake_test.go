// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	if got := fake.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	fake.Advance(90 * time.Minute)
	want := start.Add(90 * time.Minute)
	if got := fake.Now(); !got.Equal(want) {
		t.Errorf("after Advance: Now() = %v, want %v", got, want)
	}
}

func TestFakeSleepAdvancesWithoutBlocking(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))

	done := make(chan struct{})
	go func() {
		fake.Sleep(24 * time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Sleep on a fake clock blocked")
	}

	if got := fake.Now(); !got.Equal(time.Unix(0, 0).Add(24 * time.Hour)) {
		t.Errorf("Sleep did not advance fake time: %v", got)
	}
}

func TestFakeNeverMovesBackward(t *testing.T) {
	start := time.Unix(1000, 0)
	fake := NewFake(start)
	fake.Advance(-time.Hour)
	if got := fake.Now(); !got.Equal(start) {
		t.Errorf("negative Advance moved time: %v", got)
	}
}
