// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stencil-foundation/stencil/lib/determinism"
	"github.com/stencil-foundation/stencil/lib/template"
)

// mapSource serves templates from memory, keyed by identifier.
type mapSource map[string]string

func (s mapSource) Resolve(id string) (*template.Template, error) {
	source, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", template.ErrNotFound, id)
	}
	return template.Parse(id, source)
}

func testRenderer(t *testing.T, templates mapSource) *Renderer {
	t.Helper()
	renderer, err := New(Config{
		Templates: templates,
		Build: determinism.Config{
			Seed:      "test-seed",
			BuildTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return renderer
}

func TestRenderHelloWorld(t *testing.T) {
	renderer := testRenderer(t, mapSource{"greeting": "Hello {{name}}"})
	context := map[string]any{"name": "World"}

	first, err := renderer.Render("greeting", context)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(first.Content) != "Hello World\n" {
		t.Errorf("Content = %q, want %q", first.Content, "Hello World\n")
	}

	for i := 0; i < 100; i++ {
		repeat, err := renderer.Render("greeting", context)
		if err != nil {
			t.Fatalf("Render #%d: %v", i, err)
		}
		if repeat.ContentHash != first.ContentHash {
			t.Fatalf("render #%d produced a different hash", i)
		}
	}
}

func TestRenderContextKeyOrderInvariance(t *testing.T) {
	renderer := testRenderer(t, mapSource{"pair": "{{a}} and {{b}}"})

	first, err := renderer.Render("pair", map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := renderer.Render("pair", map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if first.ContentHash != second.ContentHash {
		t.Error("context key order changed the content hash")
	}
}

func TestRenderStripsVolatileKeys(t *testing.T) {
	renderer := testRenderer(t, mapSource{"greeting": "Hello {{name}}"})

	first, err := renderer.Render("greeting", map[string]any{
		"name":      "World",
		"sessionId": "f81d4fae-one",
		"timestamp": "2026-03-01T00:00:01Z",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := renderer.Render("greeting", map[string]any{
		"name":      "World",
		"sessionId": "f81d4fae-two",
		"timestamp": "2026-03-01T09:59:59Z",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if first.ContentHash != second.ContentHash {
		t.Error("volatile context values changed the content hash")
	}
}

func TestRenderVolatileKeyIsNotAddressable(t *testing.T) {
	renderer := testRenderer(t, mapSource{"leak": "{{.sessionId}}"})
	if _, err := renderer.Render("leak", map[string]any{"sessionId": "abc"}); !errors.Is(err, template.ErrSyntax) {
		t.Errorf("referencing a stripped key: got %v, want ErrSyntax", err)
	}
}

func TestRenderDeterministicFunctions(t *testing.T) {
	templates := mapSource{
		"functions": `random: {{random "salt"}}
uuid: {{uuid "artifacts" "readme"}}
time: {{now}}`,
	}
	renderer := testRenderer(t, templates)

	first, err := renderer.Render("functions", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := renderer.Render("functions", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if first.ContentHash != second.ContentHash {
		t.Error("deterministic functions varied across renders with the same seed")
	}

	reseeded, err := New(Config{
		Templates: templates,
		Build: determinism.Config{
			Seed:      "another-seed",
			BuildTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	third, err := reseeded.Render("functions", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if third.ContentHash == first.ContentHash {
		t.Error("changing the seed did not change function output")
	}
}

func TestRenderNestedContext(t *testing.T) {
	renderer := testRenderer(t, mapSource{"nested": "owner: {{.project.owner}}"})
	result, err := renderer.Render("nested", map[string]any{
		"project": map[string]any{"owner": "infra"},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(result.Content) != "owner: infra\n" {
		t.Errorf("Content = %q", result.Content)
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	renderer := testRenderer(t, mapSource{})
	if _, err := renderer.Render("absent", nil); !errors.Is(err, template.ErrNotFound) {
		t.Errorf("Render on missing template: got %v, want ErrNotFound", err)
	}
}

func TestRenderSyntaxError(t *testing.T) {
	renderer := testRenderer(t, mapSource{"broken": "{{if}}"})
	if _, err := renderer.Render("broken", nil); !errors.Is(err, template.ErrSyntax) {
		t.Errorf("Render on broken template: got %v, want ErrSyntax", err)
	}
}

func TestRenderMissingContextKey(t *testing.T) {
	renderer := testRenderer(t, mapSource{"needy": "{{.absent}}"})
	if _, err := renderer.Render("needy", map[string]any{"present": 1}); !errors.Is(err, template.ErrSyntax) {
		t.Errorf("Render with missing key: got %v, want ErrSyntax", err)
	}
}

func TestRenderDestinationPattern(t *testing.T) {
	source := "---\nto: out/{{name}}.txt\n---\ncontent\n"
	renderer := testRenderer(t, mapSource{"routed": source})

	result, err := renderer.Render("routed", map[string]any{"name": "report"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.Destination != "out/report.txt" {
		t.Errorf("Destination = %q, want out/report.txt", result.Destination)
	}
}

func TestRenderSkipIf(t *testing.T) {
	source := "---\nskip_if: '{{if .minimal}}true{{end}}'\n---\ncontent\n"
	renderer := testRenderer(t, mapSource{"optional": source})

	skipped, err := renderer.Render("optional", map[string]any{"minimal": true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !skipped.Skip {
		t.Error("Skip = false with a true skip_if")
	}

	kept, err := renderer.Render("optional", map[string]any{"minimal": false})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if kept.Skip {
		t.Error("Skip = true with a false skip_if")
	}
}

func TestRenderHasNoSideEffects(t *testing.T) {
	// A render returns its result; persisting content is the caller's
	// job. The renderer holds no mutable state, so concurrent renders
	// are safe.
	renderer := testRenderer(t, mapSource{"pure": "{{n}}"})

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(n int) {
			result, err := renderer.Render("pure", map[string]any{"n": n})
			if err == nil && string(result.Content) != fmt.Sprintf("%d\n", n) {
				err = fmt.Errorf("got %q for n=%d", result.Content, n)
			}
			done <- err
		}(i)
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Error(err)
		}
	}
}
