// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
)

// InjectionMode selects how rendered content reaches its destination.
// Exactly one mode applies per template; the mode determines which
// selector fields are meaningful, and [Frontmatter.Validate] rejects
// any other combination.
type InjectionMode string

const (
	// InjectWrite replaces the destination file wholesale. The zero
	// mode.
	InjectWrite InjectionMode = ""

	// InjectBefore inserts content before the first line matching
	// Anchor.
	InjectBefore InjectionMode = "before"

	// InjectAfter inserts content after the first line matching
	// Anchor.
	InjectAfter InjectionMode = "after"

	// InjectPrepend inserts content at the top of the destination.
	InjectPrepend InjectionMode = "prepend"

	// InjectAppend inserts content at the bottom of the destination.
	InjectAppend InjectionMode = "append"

	// InjectAtLine inserts content at the 1-based line given by
	// AtLine.
	InjectAtLine InjectionMode = "at_line"
)

// DefaultFileMode is the permission mode for artifacts whose
// frontmatter does not set one.
const DefaultFileMode fs.FileMode = 0o644

// Frontmatter is the validated template configuration block.
type Frontmatter struct {
	// To is the destination path pattern. Evaluated against the render
	// context like the body, so it may reference context values.
	To string `yaml:"to,omitempty"`

	// Inject selects the injection mode.
	Inject InjectionMode `yaml:"inject,omitempty"`

	// Anchor is the line pattern for [InjectBefore] and [InjectAfter].
	// Matching is by substring against each destination line.
	Anchor string `yaml:"anchor,omitempty"`

	// AtLine is the 1-based insertion line for [InjectAtLine].
	AtLine int `yaml:"at_line,omitempty"`

	// SkipIf is an expression pattern: when the evaluated expression
	// renders to "true", the artifact is skipped entirely.
	SkipIf string `yaml:"skip_if,omitempty"`

	// Mode is the octal permission string for the destination file,
	// such as "0755". Empty means [DefaultFileMode].
	Mode string `yaml:"mode,omitempty"`
}

// Validate checks the frontmatter for unknown modes and conflicting
// selector combinations. All problems are reported together.
func (f Frontmatter) Validate() error {
	var problems []error

	switch f.Inject {
	case InjectWrite, InjectPrepend, InjectAppend:
		if f.Anchor != "" {
			problems = append(problems, fmt.Errorf("anchor is only valid with inject: before or after, not %q", f.Inject))
		}
		if f.AtLine != 0 {
			problems = append(problems, fmt.Errorf("at_line is only valid with inject: at_line, not %q", f.Inject))
		}
	case InjectBefore, InjectAfter:
		if f.Anchor == "" {
			problems = append(problems, fmt.Errorf("inject: %s requires an anchor", f.Inject))
		}
		if f.AtLine != 0 {
			problems = append(problems, errors.New("at_line conflicts with an anchored injection mode"))
		}
	case InjectAtLine:
		if f.AtLine < 1 {
			problems = append(problems, fmt.Errorf("inject: at_line requires at_line >= 1, got %d", f.AtLine))
		}
		if f.Anchor != "" {
			problems = append(problems, errors.New("anchor conflicts with inject: at_line"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown injection mode %q", f.Inject))
	}

	if f.Mode != "" {
		if _, err := parseFileMode(f.Mode); err != nil {
			problems = append(problems, err)
		}
	}

	return errors.Join(problems...)
}

// FileMode returns the destination permission mode, falling back to
// [DefaultFileMode] when the frontmatter does not set one. The
// frontmatter must already have passed Validate.
func (f Frontmatter) FileMode() fs.FileMode {
	if f.Mode == "" {
		return DefaultFileMode
	}
	mode, err := parseFileMode(f.Mode)
	if err != nil {
		return DefaultFileMode
	}
	return mode
}

func parseFileMode(text string) (fs.FileMode, error) {
	bits, err := strconv.ParseUint(text, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("mode %q is not a valid octal permission string", text)
	}
	if bits > 0o777 {
		return 0, fmt.Errorf("mode %q exceeds 0777", text)
	}
	return fs.FileMode(bits), nil
}

// asMap flattens the frontmatter to the shape fed into canonical
// marshalling. Zero-valued fields are omitted so the empty block and
// an explicit empty block hash identically.
func (f Frontmatter) asMap() map[string]any {
	out := map[string]any{}
	if f.To != "" {
		out["to"] = f.To
	}
	if f.Inject != InjectWrite {
		out["inject"] = string(f.Inject)
	}
	if f.Anchor != "" {
		out["anchor"] = f.Anchor
	}
	if f.AtLine != 0 {
		out["at_line"] = f.AtLine
	}
	if f.SkipIf != "" {
		out["skip_if"] = f.SkipIf
	}
	if f.Mode != "" {
		out["mode"] = f.Mode
	}
	return out
}
