// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package canonical

import (
	"bytes"
	"math"
	"reflect"
	"testing"
	"time"
)

func TestValueKeyOrderInvariance(t *testing.T) {
	first := map[string]any{"a": 1, "b": 2, "c": map[string]any{"x": "y", "z": "w"}}
	second := map[string]any{"c": map[string]any{"z": "w", "x": "y"}, "b": 2, "a": 1}

	firstBytes, err := Marshal(first)
	if err != nil {
		t.Fatalf("Marshal(first): %v", err)
	}
	secondBytes, err := Marshal(second)
	if err != nil {
		t.Fatalf("Marshal(second): %v", err)
	}
	if !bytes.Equal(firstBytes, secondBytes) {
		t.Error("differently ordered maps serialized to different bytes")
	}
}

func TestValueIdempotence(t *testing.T) {
	inputs := []any{
		nil,
		true,
		"text",
		int64(7),
		3.5,
		[]any{int64(1), "two", []any{int64(3)}},
		map[string]any{"k": map[string]any{"nested": int64(1)}, "list": []any{"a"}},
	}

	for _, input := range inputs {
		once, err := Value(input)
		if err != nil {
			t.Fatalf("Value(%v): %v", input, err)
		}
		twice, err := Value(once)
		if err != nil {
			t.Fatalf("Value(Value(%v)): %v", input, err)
		}
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("canonicalization not idempotent for %v: %v != %v", input, once, twice)
		}
	}
}

func TestValueNumericWidening(t *testing.T) {
	narrow := map[string]any{"count": int8(5), "ratio": float32(0.5), "size": uint16(9)}
	wide := map[string]any{"count": int64(5), "ratio": float64(0.5), "size": int64(9)}

	narrowBytes, err := Marshal(narrow)
	if err != nil {
		t.Fatalf("Marshal(narrow): %v", err)
	}
	wideBytes, err := Marshal(wide)
	if err != nil {
		t.Fatalf("Marshal(wide): %v", err)
	}
	if !bytes.Equal(narrowBytes, wideBytes) {
		t.Error("numeric width changed canonical serialization")
	}
}

func TestValueSequenceOrderPreserved(t *testing.T) {
	value, err := Value([]any{3, 1, 2})
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	want := []any{int64(3), int64(1), int64(2)}
	if !reflect.DeepEqual(value, want) {
		t.Errorf("sequence reordered: got %v, want %v", value, want)
	}
}

func TestValueTimeNormalizesZone(t *testing.T) {
	zone := time.FixedZone("ahead", 5*3600)
	inUTC := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	inZone := inUTC.In(zone)

	utcForm, err := Value(inUTC)
	if err != nil {
		t.Fatalf("Value(utc): %v", err)
	}
	zoneForm, err := Value(inZone)
	if err != nil {
		t.Fatalf("Value(zoned): %v", err)
	}
	if utcForm != zoneForm {
		t.Errorf("same instant canonicalized differently: %v vs %v", utcForm, zoneForm)
	}
}

func TestValueRejectsNonDeterministicInputs(t *testing.T) {
	rejected := []any{
		math.NaN(),
		math.Inf(1),
		uint64(math.MaxUint64),
		map[int]string{1: "x"},
		func() {},
	}
	for _, input := range rejected {
		if _, err := Value(input); err == nil {
			t.Errorf("Value(%v) succeeded, want error", input)
		}
	}
}

func TestStripRemovesVolatileKeysRecursively(t *testing.T) {
	value, err := Value(map[string]any{
		"name":      "artifact",
		"timestamp": "2026-01-01T00:00:00Z",
		"nested":    map[string]any{"timestamp": "x", "keep": 1},
		"list":      []any{map[string]any{"timestamp": "y"}},
	})
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	stripped := Strip(value, map[string]bool{"timestamp": true})
	want := map[string]any{
		"name":   "artifact",
		"nested": map[string]any{"keep": int64(1)},
		"list":   []any{map[string]any{}},
	}
	if !reflect.DeepEqual(stripped, want) {
		t.Errorf("Strip: got %v, want %v", stripped, want)
	}
}

func TestTextNormalization(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"crlf endings", "a\r\nb\r\n", "a\nb\n"},
		{"lone cr", "a\rb", "a\nb\n"},
		{"trailing space per line", "a  \nb\t\n", "a\nb\n"},
		{"no trailing newline", "hello", "hello\n"},
		{"many trailing newlines", "hello\n\n\n", "hello\n"},
		{"empty", "", "\n"},
		{"interior blank lines kept", "a\n\nb\n", "a\n\nb\n"},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			got := Text(testCase.input)
			if got != testCase.want {
				t.Errorf("Text(%q) = %q, want %q", testCase.input, got, testCase.want)
			}
			if again := Text(got); again != got {
				t.Errorf("Text not idempotent: %q -> %q", got, again)
			}
		})
	}
}
