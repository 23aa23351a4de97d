// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package canonical

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/stencil-foundation/stencil/lib/codec"
)

// Value converts arbitrary structured data into canonical form:
//
//   - mappings become map[string]any (serialization through
//     [Marshal] sorts keys by unicode code point)
//   - sequences become []any with order preserved
//   - integers widen to int64, floats to float64
//   - time.Time values become RFC 3339 UTC strings with nanosecond
//     precision, so a timestamp canonicalizes identically regardless
//     of the zone it was constructed in
//   - structs are flattened to map[string]any through the codec
//   - nil, booleans, and strings pass through unchanged
//
// Value is pure: no I/O, no process state, and canonicalizing an
// already-canonical value returns an equal value. Two semantically
// equal inputs that differ only in key order or numeric width
// canonicalize to equal forms.
//
// Inputs that cannot be represented deterministically are rejected:
// NaN and infinite floats, integers above math.MaxInt64, maps with
// non-string keys, and non-data kinds (functions, channels).
func Value(input any) (any, error) {
	return canonicalValue(reflect.ValueOf(input))
}

func canonicalValue(value reflect.Value) (any, error) {
	if !value.IsValid() {
		return nil, nil
	}

	// Unwrap interfaces and pointers before inspecting the kind.
	for value.Kind() == reflect.Interface || value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil
		}
		value = value.Elem()
	}

	// time.Time gets a fixed textual form rather than a struct walk.
	if value.Type() == reflect.TypeOf(time.Time{}) {
		stamp := value.Interface().(time.Time)
		return stamp.UTC().Format(time.RFC3339Nano), nil
	}

	switch value.Kind() {
	case reflect.Bool:
		return value.Bool(), nil

	case reflect.String:
		return value.String(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		unsigned := value.Uint()
		if unsigned > math.MaxInt64 {
			return nil, fmt.Errorf("canonical: integer %d overflows canonical form", unsigned)
		}
		return int64(unsigned), nil

	case reflect.Float32, reflect.Float64:
		floating := value.Float()
		if math.IsNaN(floating) || math.IsInf(floating, 0) {
			return nil, fmt.Errorf("canonical: non-finite float %v has no canonical form", floating)
		}
		return floating, nil

	case reflect.Slice, reflect.Array:
		// Byte slices stay bytes — they are content, not a sequence of
		// small integers.
		if value.Kind() == reflect.Slice && value.Type().Elem().Kind() == reflect.Uint8 {
			return append([]byte(nil), value.Bytes()...), nil
		}
		sequence := make([]any, value.Len())
		for i := 0; i < value.Len(); i++ {
			element, err := canonicalValue(value.Index(i))
			if err != nil {
				return nil, fmt.Errorf("canonical: sequence index %d: %w", i, err)
			}
			sequence[i] = element
		}
		return sequence, nil

	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("canonical: map key type %s is not a string", value.Type().Key())
		}
		mapping := make(map[string]any, value.Len())
		iterator := value.MapRange()
		for iterator.Next() {
			key := iterator.Key().String()
			entry, err := canonicalValue(iterator.Value())
			if err != nil {
				return nil, fmt.Errorf("canonical: key %q: %w", key, err)
			}
			mapping[key] = entry
		}
		return mapping, nil

	case reflect.Struct:
		// Flatten through the codec so field tags and embedding behave
		// the same way they would in a persisted record.
		encoded, err := codec.Marshal(value.Interface())
		if err != nil {
			return nil, fmt.Errorf("canonical: encoding struct %s: %w", value.Type(), err)
		}
		var decoded any
		if err := codec.Unmarshal(encoded, &decoded); err != nil {
			return nil, fmt.Errorf("canonical: decoding struct %s: %w", value.Type(), err)
		}
		return canonicalValue(reflect.ValueOf(decoded))

	default:
		return nil, fmt.Errorf("canonical: unsupported kind %s", value.Kind())
	}
}

// Marshal canonicalizes input and serializes the result with the
// deterministic codec. Equal-meaning inputs produce byte-identical
// output — this is the serialized form that context hashes are
// computed over.
func Marshal(input any) ([]byte, error) {
	value, err := Value(input)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(value)
}

// Strip returns a copy of a canonical value with every mapping entry
// whose key appears in keys removed, at any nesting depth. Sequence
// order and all other entries are untouched. The input must already
// be canonical (as produced by [Value]); non-canonical containers are
// returned unchanged.
//
// The renderer uses this to drop volatile context fields (wall-clock
// stamps, request identifiers) before hashing.
func Strip(value any, keys map[string]bool) any {
	switch typed := value.(type) {
	case map[string]any:
		stripped := make(map[string]any, len(typed))
		for key, entry := range typed {
			if keys[key] {
				continue
			}
			stripped[key] = Strip(entry, keys)
		}
		return stripped
	case []any:
		stripped := make([]any, len(typed))
		for i, element := range typed {
			stripped[i] = Strip(element, keys)
		}
		return stripped
	default:
		return value
	}
}
