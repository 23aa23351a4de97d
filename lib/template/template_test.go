// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseBodyOnly(t *testing.T) {
	parsed, err := Parse("plain", "Hello {{name}}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Body != "Hello {{name}}\n" {
		t.Errorf("Body = %q, want canonical text with trailing newline", parsed.Body)
	}
	if parsed.Frontmatter != (Frontmatter{}) {
		t.Errorf("Frontmatter = %+v, want zero value", parsed.Frontmatter)
	}
}

func TestParseWithFrontmatter(t *testing.T) {
	source := strings.Join([]string{
		"---",
		"to: out/{{name}}.txt",
		"inject: after",
		"anchor: '# managed section'",
		"mode: \"0755\"",
		"---",
		"content line",
		"",
	}, "\n")

	parsed, err := Parse("configured", source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Frontmatter.To != "out/{{name}}.txt" {
		t.Errorf("To = %q", parsed.Frontmatter.To)
	}
	if parsed.Frontmatter.Inject != InjectAfter {
		t.Errorf("Inject = %q, want after", parsed.Frontmatter.Inject)
	}
	if parsed.Frontmatter.Anchor != "# managed section" {
		t.Errorf("Anchor = %q", parsed.Frontmatter.Anchor)
	}
	if parsed.Frontmatter.FileMode() != 0o755 {
		t.Errorf("FileMode = %o, want 0755", parsed.Frontmatter.FileMode())
	}
	if parsed.Body != "content line\n" {
		t.Errorf("Body = %q", parsed.Body)
	}
}

func TestParseEmptyFrontmatterBlock(t *testing.T) {
	// A closing delimiter on the line right after the opening one is
	// an empty block, not an unclosed one.
	parsed, err := Parse("empty", "---\n---\nHello\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Frontmatter != (Frontmatter{}) {
		t.Errorf("Frontmatter = %+v, want zero value", parsed.Frontmatter)
	}
	if parsed.Body != "Hello\n" {
		t.Errorf("Body = %q, want %q", parsed.Body, "Hello\n")
	}

	// Empty block closed at end of input, no body at all. The body
	// canonicalizes to a single newline.
	parsed, err = Parse("empty", "---\n---")
	if err != nil {
		t.Fatalf("Parse without body: %v", err)
	}
	if parsed.Body != "\n" {
		t.Errorf("Body = %q, want a single newline", parsed.Body)
	}
}

func TestParseCanonicalEquivalence(t *testing.T) {
	// Line-ending and trailing-whitespace differences do not change
	// the template hash.
	first, err := Parse("a", "line one\nline two\n")
	if err != nil {
		t.Fatalf("Parse first: %v", err)
	}
	second, err := Parse("a", "line one  \r\nline two")
	if err != nil {
		t.Fatalf("Parse second: %v", err)
	}
	if first.Hash != second.Hash {
		t.Error("canonically equivalent sources hashed differently")
	}

	different, err := Parse("a", "line one\nline 2\n")
	if err != nil {
		t.Fatalf("Parse different: %v", err)
	}
	if different.Hash == first.Hash {
		t.Error("different bodies hashed identically")
	}
}

func TestParseFrontmatterChangesHash(t *testing.T) {
	plain, err := Parse("a", "body\n")
	if err != nil {
		t.Fatalf("Parse plain: %v", err)
	}
	configured, err := Parse("a", "---\nto: out.txt\n---\nbody\n")
	if err != nil {
		t.Fatalf("Parse configured: %v", err)
	}
	if plain.Hash == configured.Hash {
		t.Error("frontmatter change did not change the template hash")
	}
}

func TestParseRejectsUnknownFrontmatterField(t *testing.T) {
	_, err := Parse("bad", "---\nto: out.txt\nappend: true\n---\nbody\n")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("unknown frontmatter field: got %v, want ErrSyntax", err)
	}
}

func TestParseRejectsUnclosedFrontmatter(t *testing.T) {
	_, err := Parse("bad", "---\nto: out.txt\nbody without closing delimiter\n")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("unclosed frontmatter: got %v, want ErrSyntax", err)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse("bad", "---\nto: [unclosed\n---\nbody\n")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("malformed YAML: got %v, want ErrSyntax", err)
	}
}

func TestValidateRejectsConflictingSelectors(t *testing.T) {
	cases := []struct {
		name        string
		frontmatter Frontmatter
	}{
		{"unknown mode", Frontmatter{Inject: "inside"}},
		{"before without anchor", Frontmatter{Inject: InjectBefore}},
		{"after without anchor", Frontmatter{Inject: InjectAfter}},
		{"write with anchor", Frontmatter{Anchor: "# x"}},
		{"append with at_line", Frontmatter{Inject: InjectAppend, AtLine: 3}},
		{"before with at_line", Frontmatter{Inject: InjectBefore, Anchor: "# x", AtLine: 3}},
		{"at_line without line", Frontmatter{Inject: InjectAtLine}},
		{"at_line with anchor", Frontmatter{Inject: InjectAtLine, AtLine: 1, Anchor: "# x"}},
		{"bad mode string", Frontmatter{Mode: "rwxr-xr-x"}},
		{"mode out of range", Frontmatter{Mode: "1777"}},
	}
	for _, test := range cases {
		if err := test.frontmatter.Validate(); err == nil {
			t.Errorf("%s: Validate succeeded, want error", test.name)
		}
	}
}

func TestValidateAcceptsEachMode(t *testing.T) {
	valid := []Frontmatter{
		{},
		{Inject: InjectPrepend},
		{Inject: InjectAppend},
		{Inject: InjectBefore, Anchor: "# here"},
		{Inject: InjectAfter, Anchor: "# here"},
		{Inject: InjectAtLine, AtLine: 1},
		{Mode: "0600"},
	}
	for _, frontmatter := range valid {
		if err := frontmatter.Validate(); err != nil {
			t.Errorf("Validate(%+v): %v", frontmatter, err)
		}
	}
}

func TestApplyModes(t *testing.T) {
	existing := "alpha\nbeta\ngamma\n"
	content := "NEW\n"

	cases := []struct {
		name        string
		frontmatter Frontmatter
		want        string
	}{
		{"write", Frontmatter{}, "NEW\n"},
		{"prepend", Frontmatter{Inject: InjectPrepend}, "NEW\nalpha\nbeta\ngamma\n"},
		{"append", Frontmatter{Inject: InjectAppend}, "alpha\nbeta\ngamma\nNEW\n"},
		{"before anchor", Frontmatter{Inject: InjectBefore, Anchor: "beta"}, "alpha\nNEW\nbeta\ngamma\n"},
		{"after anchor", Frontmatter{Inject: InjectAfter, Anchor: "beta"}, "alpha\nbeta\nNEW\ngamma\n"},
		{"at line 1", Frontmatter{Inject: InjectAtLine, AtLine: 1}, "NEW\nalpha\nbeta\ngamma\n"},
		{"at line 3", Frontmatter{Inject: InjectAtLine, AtLine: 3}, "alpha\nbeta\nNEW\ngamma\n"},
		{"at end of file", Frontmatter{Inject: InjectAtLine, AtLine: 4}, "alpha\nbeta\ngamma\nNEW\n"},
	}
	for _, test := range cases {
		got, err := test.frontmatter.Apply(existing, content)
		if err != nil {
			t.Errorf("%s: Apply: %v", test.name, err)
			continue
		}
		if got != test.want {
			t.Errorf("%s: Apply = %q, want %q", test.name, got, test.want)
		}
	}
}

func TestApplyAnchorNotFound(t *testing.T) {
	frontmatter := Frontmatter{Inject: InjectAfter, Anchor: "missing"}
	if _, err := frontmatter.Apply("alpha\n", "NEW\n"); err == nil {
		t.Error("Apply with missing anchor succeeded")
	}
}

func TestApplyAtLinePastEnd(t *testing.T) {
	frontmatter := Frontmatter{Inject: InjectAtLine, AtLine: 10}
	if _, err := frontmatter.Apply("alpha\n", "NEW\n"); err == nil {
		t.Error("Apply past end of file succeeded")
	}
}

func TestDiskSourceResolve(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "greeting"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "greeting", "hello.tmpl")
	if err := os.WriteFile(path, []byte("Hello {{name}}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	source := NewDiskSource(root)
	parsed, err := source.Resolve("greeting/hello")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if parsed.ID != "greeting/hello" {
		t.Errorf("ID = %q", parsed.ID)
	}
	if parsed.Body != "Hello {{name}}\n" {
		t.Errorf("Body = %q", parsed.Body)
	}

	if _, err := source.Resolve("greeting/absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve on missing template: got %v, want ErrNotFound", err)
	}
}

func TestDiskSourceRelativeRoot(t *testing.T) {
	// A root that cleans to "." must still resolve identifiers; the
	// confinement check runs against the absolute root.
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hello.tmpl"), []byte("hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(root); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	source := NewDiskSource(".")
	parsed, err := source.Resolve("hello")
	if err != nil {
		t.Fatalf("Resolve under relative root: %v", err)
	}
	if parsed.Body != "hi\n" {
		t.Errorf("Body = %q", parsed.Body)
	}

	if _, err := source.Resolve("../escape"); !errors.Is(err, ErrNotFound) {
		t.Errorf("escaping identifier under relative root: got %v, want ErrNotFound", err)
	}
}

func TestDiskSourceRejectsEscapingIdentifiers(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "outside.tmpl")
	if err := os.WriteFile(outside, []byte("secret\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	defer os.Remove(outside)

	source := NewDiskSource(root)
	if _, err := source.Resolve("../outside"); !errors.Is(err, ErrNotFound) {
		t.Errorf("escaping identifier: got %v, want ErrNotFound", err)
	}
}
