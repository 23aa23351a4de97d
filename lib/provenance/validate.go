// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package provenance

import (
	"fmt"
	"time"

	"github.com/stencil-foundation/stencil/lib/cas"
)

// Validation is the structured result of checking a record. Validation
// never fails with an error: it is routinely called on external,
// potentially malformed input, and a bad record is a finding, not a
// fault.
type Validation struct {
	Valid  bool
	Errors []string
}

// Validate checks a record for structural completeness: required
// fields present, hash fields matching the fixed-length hex form, and
// a parseable timestamp. It never re-derives hashes from live content;
// hash freshness is the drift detector's concern.
func Validate(record *Record) Validation {
	var problems []string

	if record == nil {
		return Validation{Errors: []string{"record is nil"}}
	}

	hashFields := []struct {
		name  string
		value string
	}{
		{"artifact_hash", record.ArtifactHash},
		{"template_hash", record.TemplateHash},
		{"graph_hash", record.GraphHash},
	}
	for _, field := range hashFields {
		switch {
		case field.value == "":
			problems = append(problems, fmt.Sprintf("%s is missing", field.name))
		case !cas.IsHexHash(field.value):
			problems = append(problems, fmt.Sprintf("%s is not a %d-character lowercase hex digest", field.name, cas.HexLength))
		}
	}

	if record.GeneratedAt == "" {
		problems = append(problems, "generated_at is missing")
	} else if _, err := time.Parse(time.RFC3339, record.GeneratedAt); err != nil {
		problems = append(problems, fmt.Sprintf("generated_at %q is not an RFC 3339 timestamp", record.GeneratedAt))
	}

	if record.EngineVersion == "" {
		problems = append(problems, "engine_version is missing")
	}
	if record.ArtifactPath == "" {
		problems = append(problems, "artifact_path is missing")
	}
	if record.ArtifactSize < 0 {
		problems = append(problems, fmt.Sprintf("artifact_size %d is negative", record.ArtifactSize))
	}

	return Validation{Valid: len(problems) == 0, Errors: problems}
}

// FieldDelta is one field that differs between two compared records.
type FieldDelta struct {
	Field string
	A     string
	B     string
}

// Comparison is the result of a field-by-field record comparison.
type Comparison struct {
	Identical    bool
	Differences  []FieldDelta
	Similarities []string
}

// Compare reports field-by-field equality between two records, for
// audit tooling that needs to explain how two generation events
// relate. Like [Validate], Compare accepts malformed input: a nil
// record compares as a zero record, so a nil on either side is a
// difference report, not a panic.
func Compare(a, b *Record) Comparison {
	if a == nil {
		a = &Record{}
	}
	if b == nil {
		b = &Record{}
	}

	fields := []struct {
		name string
		a, b string
	}{
		{"artifact_path", a.ArtifactPath, b.ArtifactPath},
		{"artifact_hash", a.ArtifactHash, b.ArtifactHash},
		{"artifact_size", fmt.Sprintf("%d", a.ArtifactSize), fmt.Sprintf("%d", b.ArtifactSize)},
		{"template_id", a.TemplateID, b.TemplateID},
		{"template_hash", a.TemplateHash, b.TemplateHash},
		{"graph_path", a.GraphPath, b.GraphPath},
		{"graph_hash", a.GraphHash, b.GraphHash},
		{"generated_at", a.GeneratedAt, b.GeneratedAt},
		{"engine_version", a.EngineVersion, b.EngineVersion},
	}

	result := Comparison{Identical: true}
	for _, field := range fields {
		if field.a == field.b {
			result.Similarities = append(result.Similarities, field.name)
			continue
		}
		result.Identical = false
		result.Differences = append(result.Differences, FieldDelta{
			Field: field.name,
			A:     field.a,
			B:     field.b,
		})
	}
	return result
}
