// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package provenance

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stencil-foundation/stencil/lib/cas"
	"github.com/stencil-foundation/stencil/lib/clock"
	"github.com/stencil-foundation/stencil/lib/graph"
	"github.com/stencil-foundation/stencil/lib/template"
)

var testBuildTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testInputs(t *testing.T) (*template.Template, *graph.Snapshot) {
	t.Helper()
	parsed, err := template.Parse("greeting/hello", "Hello {{name}}\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return parsed, graph.FromBytes("schema.ttl", []byte("ex:a ex:b ex:c .\n"))
}

func testGenerator(t *testing.T, store *cas.Store) *Generator {
	t.Helper()
	generator, err := NewGenerator(GeneratorConfig{
		Store:         store,
		GeneratedAt:   testBuildTime,
		EngineVersion: "stencil/0.1.0+test",
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return generator
}

func TestGenerateAssemblesRecord(t *testing.T) {
	parsed, snapshot := testInputs(t)
	generator := testGenerator(t, nil)

	content := []byte("Hello World\n")
	record, err := generator.Generate(context.Background(), ArtifactInfo{
		Path:    "out/hello.txt",
		Content: content,
	}, parsed, snapshot)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if record.ArtifactHash != cas.FormatHash(cas.HashContent(content)) {
		t.Error("artifact hash does not match content")
	}
	if record.ArtifactSize != int64(len(content)) {
		t.Errorf("ArtifactSize = %d, want %d", record.ArtifactSize, len(content))
	}
	if record.TemplateHash != cas.FormatHash(parsed.Hash) {
		t.Error("template hash does not match parsed template")
	}
	if record.GraphHash != cas.FormatHash(snapshot.Hash) {
		t.Error("graph hash does not match snapshot")
	}
	if record.GeneratedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("GeneratedAt = %q", record.GeneratedAt)
	}
	if record.EngineVersion != "stencil/0.1.0+test" {
		t.Errorf("EngineVersion = %q", record.EngineVersion)
	}

	if validation := Validate(record); !validation.Valid {
		t.Errorf("generated record fails validation: %v", validation.Errors)
	}
}

func TestGenerateBacksArtifactWithStore(t *testing.T) {
	store, err := cas.Open(cas.StoreConfig{
		Root:  t.TempDir(),
		Clock: clock.NewFake(testBuildTime),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	parsed, snapshot := testInputs(t)
	generator := testGenerator(t, store)

	content := []byte("stored alongside the record\n")
	record, err := generator.Generate(context.Background(), ArtifactInfo{
		Path:    "out/backed.txt",
		Content: content,
	}, parsed, snapshot)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	hash, err := cas.ParseHash(record.ArtifactHash)
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	retrieved, err := store.Retrieve(context.Background(), hash)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !bytes.Equal(retrieved, content) {
		t.Error("record's artifact hash is not backed by the stored bytes")
	}
}

func TestValidateRejectsIncompleteRecords(t *testing.T) {
	parsed, snapshot := testInputs(t)
	generator := testGenerator(t, nil)
	complete, err := generator.Generate(context.Background(), ArtifactInfo{
		Path:    "out/hello.txt",
		Content: []byte("Hello World\n"),
	}, parsed, snapshot)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	mutations := []struct {
		name   string
		mutate func(*Record)
	}{
		{"missing artifact hash", func(r *Record) { r.ArtifactHash = "" }},
		{"missing template hash", func(r *Record) { r.TemplateHash = "" }},
		{"missing graph hash", func(r *Record) { r.GraphHash = "" }},
		{"missing generated_at", func(r *Record) { r.GeneratedAt = "" }},
		{"missing engine version", func(r *Record) { r.EngineVersion = "" }},
		{"truncated hash", func(r *Record) { r.ArtifactHash = r.ArtifactHash[:10] }},
		{"uppercase hash", func(r *Record) { r.GraphHash = strings.ToUpper(r.GraphHash) }},
		{"unparseable timestamp", func(r *Record) { r.GeneratedAt = "yesterday" }},
	}
	for _, test := range mutations {
		mutated := *complete
		test.mutate(&mutated)
		validation := Validate(&mutated)
		if validation.Valid {
			t.Errorf("%s: record validated, want rejection", test.name)
		}
		if len(validation.Errors) == 0 {
			t.Errorf("%s: no errors reported", test.name)
		}
	}

	if validation := Validate(complete); !validation.Valid {
		t.Errorf("complete record rejected: %v", validation.Errors)
	}
	if validation := Validate(nil); validation.Valid {
		t.Error("nil record validated")
	}
}

func TestCompare(t *testing.T) {
	parsed, snapshot := testInputs(t)
	generator := testGenerator(t, nil)
	ctx := context.Background()

	first, err := generator.Generate(ctx, ArtifactInfo{Path: "out/a.txt", Content: []byte("same\n")}, parsed, snapshot)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := generator.Generate(ctx, ArtifactInfo{Path: "out/a.txt", Content: []byte("same\n")}, parsed, snapshot)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	comparison := Compare(first, second)
	if !comparison.Identical {
		t.Errorf("identical generations compare as different: %+v", comparison.Differences)
	}

	third, err := generator.Generate(ctx, ArtifactInfo{Path: "out/a.txt", Content: []byte("changed\n")}, parsed, snapshot)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	comparison = Compare(first, third)
	if comparison.Identical {
		t.Error("records with different content compare as identical")
	}

	differing := map[string]bool{}
	for _, delta := range comparison.Differences {
		differing[delta.Field] = true
	}
	if !differing["artifact_hash"] || !differing["artifact_size"] {
		t.Errorf("Differences = %+v, want artifact_hash and artifact_size", comparison.Differences)
	}
	for _, field := range comparison.Similarities {
		if field == "artifact_hash" {
			t.Error("artifact_hash listed as both similarity and difference")
		}
	}
}

func TestCompareNilRecords(t *testing.T) {
	parsed, snapshot := testInputs(t)
	generator := testGenerator(t, nil)

	record, err := generator.Generate(context.Background(), ArtifactInfo{
		Path:    "out/a.txt",
		Content: []byte("content\n"),
	}, parsed, snapshot)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// A nil on either side compares as a zero record instead of
	// panicking.
	if comparison := Compare(record, nil); comparison.Identical {
		t.Error("record compares identical to nil")
	}
	if comparison := Compare(nil, record); comparison.Identical {
		t.Error("nil compares identical to record")
	}
	if comparison := Compare(nil, nil); !comparison.Identical {
		t.Error("two nil records compare as different")
	}
}

func TestAttestationRoundTrip(t *testing.T) {
	parsed, snapshot := testInputs(t)
	generator := testGenerator(t, nil)

	record, err := generator.Generate(context.Background(), ArtifactInfo{
		Path:    "out/hello.txt",
		Content: []byte("Hello World\n"),
	}, parsed, snapshot)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	artifactPath := filepath.Join(t.TempDir(), "hello.txt")
	if err := WriteAttestation(artifactPath, record); err != nil {
		t.Fatalf("WriteAttestation: %v", err)
	}

	loaded, err := ReadAttestation(artifactPath)
	if err != nil {
		t.Fatalf("ReadAttestation: %v", err)
	}
	if comparison := Compare(record, loaded); !comparison.Identical {
		t.Errorf("attestation round trip changed fields: %+v", comparison.Differences)
	}
}

func TestReadAttestationMissing(t *testing.T) {
	_, err := ReadAttestation(filepath.Join(t.TempDir(), "never-written.txt"))
	if !errors.Is(err, ErrAttestationMissing) {
		t.Errorf("ReadAttestation on missing sidecar: got %v, want ErrAttestationMissing", err)
	}
}
