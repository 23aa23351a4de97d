// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validPlan = `{
	// Deterministic docs build.
	"name": "docs",
	"seed": "release-2026.03",
	"build_time": "2026-03-01T12:00:00Z",
	"jobs": [
		{
			"name": "readme",
			"template": "docs/readme",
			"graph": "schema/project.ttl",
			"output": "out/README.md",
			"variables": {"project": "stencil"},
		},
	],
}`

func TestParseAcceptsJSONC(t *testing.T) {
	parsed, err := Parse([]byte(validPlan))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Name != "docs" {
		t.Errorf("Name = %q", parsed.Name)
	}
	if parsed.Seed != "release-2026.03" {
		t.Errorf("Seed = %q", parsed.Seed)
	}
	if len(parsed.Jobs) != 1 {
		t.Fatalf("Jobs = %d, want 1", len(parsed.Jobs))
	}
	if parsed.Jobs[0].Variables["project"] != "stencil" {
		t.Errorf("Variables = %v", parsed.Jobs[0].Variables)
	}
	if issues := Validate(parsed); len(issues) != 0 {
		t.Errorf("valid plan reported issues: %v", issues)
	}
	if parsed.ParseTime().IsZero() {
		t.Error("ParseTime returned the zero time for a valid build_time")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{"name": `)); err == nil {
		t.Error("Parse accepted malformed input")
	}
}

func TestValidateReportsStructuralIssues(t *testing.T) {
	cases := []struct {
		name string
		plan Plan
		want string
	}{
		{"missing seed", Plan{BuildTime: "2026-03-01T12:00:00Z", Jobs: []Job{{Name: "a", Template: "t", Graph: "g"}}}, "seed is required"},
		{"missing build time", Plan{Seed: "s", Jobs: []Job{{Name: "a", Template: "t", Graph: "g"}}}, "build_time is required"},
		{"bad build time", Plan{Seed: "s", BuildTime: "noon", Jobs: []Job{{Name: "a", Template: "t", Graph: "g"}}}, "not an RFC 3339 timestamp"},
		{"no jobs", Plan{Seed: "s", BuildTime: "2026-03-01T12:00:00Z"}, "no jobs"},
		{"unnamed job", Plan{Seed: "s", BuildTime: "2026-03-01T12:00:00Z", Jobs: []Job{{Template: "t", Graph: "g"}}}, "name is required"},
		{"missing template", Plan{Seed: "s", BuildTime: "2026-03-01T12:00:00Z", Jobs: []Job{{Name: "a", Graph: "g"}}}, "template is required"},
		{"missing graph", Plan{Seed: "s", BuildTime: "2026-03-01T12:00:00Z", Jobs: []Job{{Name: "a", Template: "t"}}}, "graph is required"},
		{
			"duplicate job name",
			Plan{Seed: "s", BuildTime: "2026-03-01T12:00:00Z", Jobs: []Job{
				{Name: "a", Template: "t", Graph: "g", Output: "one"},
				{Name: "a", Template: "t", Graph: "g", Output: "two"},
			}},
			"duplicate job name",
		},
		{
			"colliding outputs",
			Plan{Seed: "s", BuildTime: "2026-03-01T12:00:00Z", Jobs: []Job{
				{Name: "a", Template: "t", Graph: "g", Output: "same"},
				{Name: "b", Template: "t", Graph: "g", Output: "same"},
			}},
			"already written",
		},
	}

	for _, test := range cases {
		issues := Validate(&test.plan)
		found := false
		for _, issue := range issues {
			if strings.Contains(issue, test.want) {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: issues %v do not mention %q", test.name, issues, test.want)
		}
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.jsonc")
	if err := os.WriteFile(path, []byte(validPlan), 0o644); err != nil {
		t.Fatal(err)
	}

	parsed, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if parsed.Name != "docs" {
		t.Errorf("Name = %q", parsed.Name)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Error("ReadFile on missing file succeeded")
	}
}

func TestNameFromPath(t *testing.T) {
	if got := NameFromPath("deploy/plans/docs-build.jsonc"); got != "docs-build" {
		t.Errorf("NameFromPath = %q", got)
	}
}
