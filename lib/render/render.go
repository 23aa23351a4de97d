// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	texttemplate "text/template"
	"unicode"

	"github.com/stencil-foundation/stencil/lib/canonical"
	"github.com/stencil-foundation/stencil/lib/cas"
	"github.com/stencil-foundation/stencil/lib/determinism"
	"github.com/stencil-foundation/stencil/lib/template"
)

// DefaultVolatileKeys are context keys stripped before hashing and
// evaluation: values under these names vary per invocation (wall
// clocks, request identity) and would destroy render determinism.
var DefaultVolatileKeys = []string{
	"timestamp",
	"now",
	"sessionId",
	"session_id",
	"requestId",
	"request_id",
	"traceId",
	"trace_id",
	"nonce",
}

// Config assembles a Renderer.
type Config struct {
	// Templates resolves template identifiers. Required.
	Templates template.Source

	// Build carries the seed and build time for the deterministic
	// function library. Required.
	Build determinism.Config

	// VolatileKeys replaces [DefaultVolatileKeys] when non-nil.
	VolatileKeys []string

	// Logger receives render diagnostics. Defaults to discard.
	Logger *slog.Logger
}

// Renderer evaluates templates against canonicalized contexts. It is
// pure with respect to its inputs: no filesystem writes, no ambient
// state, and safe for concurrent use.
type Renderer struct {
	templates template.Source
	build     determinism.Config
	volatile  map[string]bool
	logger    *slog.Logger
}

// Result is a completed render.
type Result struct {
	// Content holds the canonical artifact bytes.
	Content []byte

	// ContentHash is the content-domain hash of Content.
	ContentHash cas.Hash

	// Frontmatter is the template's validated configuration block.
	Frontmatter template.Frontmatter

	// TemplateHash identifies the template version that produced this
	// result.
	TemplateHash cas.Hash

	// Destination is the evaluated destination path, empty when the
	// frontmatter sets none.
	Destination string

	// Skip reports that the frontmatter's skip_if expression
	// evaluated to true. Content is still populated so callers can
	// log what was skipped.
	Skip bool
}

// New validates the configuration and returns a Renderer.
func New(config Config) (*Renderer, error) {
	if config.Templates == nil {
		return nil, fmt.Errorf("render: template source is required")
	}
	if err := config.Build.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	keys := config.VolatileKeys
	if keys == nil {
		keys = DefaultVolatileKeys
	}
	volatile := make(map[string]bool, len(keys))
	for _, key := range keys {
		volatile[key] = true
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Renderer{
		templates: config.Templates,
		build:     config.Build,
		volatile:  volatile,
		logger:    logger,
	}, nil
}

// Render resolves the template identifier and evaluates it against
// the context. Resolution failures carry [template.ErrNotFound].
func (r *Renderer) Render(id string, context map[string]any) (*Result, error) {
	resolved, err := r.templates.Resolve(id)
	if err != nil {
		return nil, err
	}
	return r.RenderTemplate(resolved, context)
}

// RenderTemplate evaluates an already-parsed template. The context is
// canonicalized (keys sorted, volatile keys stripped) before
// evaluation, so key order and volatile values never influence the
// output or its hash.
func (r *Renderer) RenderTemplate(parsed *template.Template, context map[string]any) (*Result, error) {
	data, err := r.canonicalContext(context)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", parsed.ID, err)
	}

	body, err := r.evaluate(parsed.ID, parsed.Body, data)
	if err != nil {
		return nil, err
	}
	content := canonical.Text(body)

	result := &Result{
		Content:      []byte(content),
		ContentHash:  cas.HashContent([]byte(content)),
		Frontmatter:  parsed.Frontmatter,
		TemplateHash: parsed.Hash,
	}

	if pattern := parsed.Frontmatter.To; pattern != "" {
		destination, err := r.evaluate(parsed.ID+"#to", pattern, data)
		if err != nil {
			return nil, err
		}
		result.Destination = strings.TrimSpace(destination)
	}

	if expression := parsed.Frontmatter.SkipIf; expression != "" {
		verdict, err := r.evaluate(parsed.ID+"#skip_if", expression, data)
		if err != nil {
			return nil, err
		}
		result.Skip = strings.TrimSpace(verdict) == "true"
	}

	r.logger.Debug("render: completed",
		"template", parsed.ID,
		"content_hash", cas.FormatHash(result.ContentHash),
		"skip", result.Skip)

	return result, nil
}

// canonicalContext strips volatile keys and canonicalizes what
// remains.
func (r *Renderer) canonicalContext(context map[string]any) (map[string]any, error) {
	value, err := canonical.Value(context)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing context: %w", err)
	}
	if value == nil {
		return map[string]any{}, nil
	}
	stripped := canonical.Strip(value, r.volatile)
	data, ok := stripped.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("context canonicalized to %T, want a mapping", stripped)
	}
	return data, nil
}

// evaluate parses and executes one template body. Context keys that
// are valid identifiers are exposed as zero-argument functions, so
// {{name}} and {{.name}} both resolve; nested values are reached
// through the dot. Syntax and execution failures carry
// [template.ErrSyntax].
func (r *Renderer) evaluate(name, body string, data map[string]any) (string, error) {
	functions := texttemplate.FuncMap{
		"random": func(discriminator string) float64 { return r.build.Random(discriminator) },
		"uuid":   func(namespace, input string) string { return r.build.UUID(namespace, input).String() },
		"now":    func() string { return r.build.Time() },
	}
	for key, value := range data {
		if !isIdentifier(key) {
			continue
		}
		captured := value
		functions[key] = func() any { return captured }
	}

	parsed, err := texttemplate.New(name).
		Funcs(functions).
		Option("missingkey=error").
		Parse(body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", template.ErrSyntax, name, err)
	}

	var builder strings.Builder
	if err := parsed.Execute(&builder, data); err != nil {
		return "", fmt.Errorf("%w: %s: %w", template.ErrSyntax, name, err)
	}
	return builder.String(), nil
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
