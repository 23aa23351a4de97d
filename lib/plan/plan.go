// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

// Package plan provides parsing and validation for build plans. A
// plan names the build seed, the build time, and the set of render
// jobs (template, graph, variables, output path) that make up one
// deterministic build. Plans are authored on disk as JSONC files
// (JSON extended with comments and trailing commas).
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Plan
//  2. Validate: structural checks (required fields, unique names)
//  3. The command surface runs each job through the renderer
package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
)

// Plan is one deterministic build: a seed, a build time, and the
// render jobs to execute.
type Plan struct {
	// Name identifies the plan in logs and provenance tooling.
	Name string `json:"name"`

	// Seed is the build seed handed to the deterministic function
	// library.
	Seed string `json:"seed"`

	// BuildTime is the fixed RFC 3339 timestamp stamped into every
	// artifact and record this plan produces.
	BuildTime string `json:"build_time"`

	// Jobs are the renders to perform, in order.
	Jobs []Job `json:"jobs"`
}

// Job is a single render: one template, one graph snapshot, one
// output path.
type Job struct {
	// Name identifies the job within the plan.
	Name string `json:"name"`

	// Template is the template identifier to render.
	Template string `json:"template"`

	// Graph is the graph path to snapshot for this render.
	Graph string `json:"graph"`

	// Output is the destination path for the rendered artifact.
	// Optional when the template's frontmatter carries its own
	// destination pattern.
	Output string `json:"output,omitempty"`

	// Variables is the render context for this job.
	Variables map[string]any `json:"variables,omitempty"`
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Plan.
func Parse(data []byte) (*Plan, error) {
	stripped := jsonc.ToJSON(data)

	var parsed Plan
	if err := json.Unmarshal(stripped, &parsed); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	return &parsed, nil
}

// ReadFile reads a JSONC plan file from disk and parses it.
func ReadFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	parsed, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return parsed, nil
}

// ParseTime returns the plan's build time. The plan must already have
// passed Validate.
func (p *Plan) ParseTime() time.Time {
	parsed, err := time.Parse(time.RFC3339, p.BuildTime)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// Validate checks a plan for structural issues. Returns a list of
// human-readable issue descriptions; an empty list means the plan is
// valid.
//
// Structural checks include:
//   - Seed and build_time are required; build_time must be RFC 3339
//   - At least one job is required
//   - Each job must have a non-empty Name, Template, and Graph
//   - Job names must be unique across the plan
//   - Output paths must be unique: two jobs writing the same path
//     would silently overwrite each other
func Validate(parsed *Plan) []string {
	var issues []string

	if parsed.Seed == "" {
		issues = append(issues, "seed is required")
	}
	if parsed.BuildTime == "" {
		issues = append(issues, "build_time is required")
	} else if _, err := time.Parse(time.RFC3339, parsed.BuildTime); err != nil {
		issues = append(issues, fmt.Sprintf("build_time %q is not an RFC 3339 timestamp", parsed.BuildTime))
	}

	if len(parsed.Jobs) == 0 {
		issues = append(issues, "plan has no jobs (at least one job is required)")
	}

	jobNames := make(map[string]int, len(parsed.Jobs))
	outputs := make(map[string]int, len(parsed.Jobs))
	for index, job := range parsed.Jobs {
		prefix := fmt.Sprintf("jobs[%d]", index)

		if job.Name == "" {
			issues = append(issues, fmt.Sprintf("%s: name is required", prefix))
		} else {
			prefix = fmt.Sprintf("%s %q", prefix, job.Name)
			if firstIndex, exists := jobNames[job.Name]; exists {
				issues = append(issues, fmt.Sprintf(
					"%s: duplicate job name (first used at jobs[%d])", prefix, firstIndex))
			} else {
				jobNames[job.Name] = index
			}
		}

		if job.Template == "" {
			issues = append(issues, fmt.Sprintf("%s: template is required", prefix))
		}
		if job.Graph == "" {
			issues = append(issues, fmt.Sprintf("%s: graph is required", prefix))
		}
		if job.Output != "" {
			if firstIndex, exists := outputs[job.Output]; exists {
				issues = append(issues, fmt.Sprintf(
					"%s: output %q already written by jobs[%d]", prefix, job.Output, firstIndex))
			} else {
				outputs[job.Output] = index
			}
		}
	}

	return issues
}

// NameFromPath extracts a plan name from a file path by stripping the
// directory prefix and the file extension.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
