// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package provenance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/stencil-foundation/stencil/lib/cas"
	"github.com/stencil-foundation/stencil/lib/graph"
	"github.com/stencil-foundation/stencil/lib/template"
	"github.com/stencil-foundation/stencil/lib/version"
)

// Record links an artifact's content hash to the hashes of the
// inputs that produced it. Hashes are stored hex-encoded so records
// survive any serialization without re-interpretation.
type Record struct {
	ArtifactPath string `cbor:"artifact_path" json:"artifactPath"`
	ArtifactHash string `cbor:"artifact_hash" json:"artifactHash"`
	ArtifactSize int64  `cbor:"artifact_size" json:"artifactSize"`

	TemplateID   string `cbor:"template_id" json:"templateId"`
	TemplateHash string `cbor:"template_hash" json:"templateHash"`

	GraphPath string `cbor:"graph_path" json:"graphPath"`
	GraphHash string `cbor:"graph_hash" json:"graphHash"`

	// GeneratedAt is the configured build time in RFC 3339 UTC form,
	// not a wall-clock reading: identical builds produce identical
	// records.
	GeneratedAt string `cbor:"generated_at" json:"generatedAt"`

	// EngineVersion identifies the engine build that produced the
	// artifact.
	EngineVersion string `cbor:"engine_version" json:"engineVersion"`
}

// JSON renders the record for display and audit tooling.
func (r *Record) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ArtifactInfo describes the rendered artifact a record covers.
type ArtifactInfo struct {
	Path    string
	Content []byte
}

// GeneratorConfig assembles a Generator.
type GeneratorConfig struct {
	// Store, when set, receives the artifact bytes during generation
	// so the record's artifact hash is always backed by retrievable
	// content.
	Store *cas.Store

	// GeneratedAt is the build time stamped into records. Required.
	GeneratedAt time.Time

	// EngineVersion overrides the compiled-in engine version string.
	EngineVersion string

	// Logger receives generation diagnostics. Defaults to discard.
	Logger *slog.Logger
}

// Generator assembles provenance records for rendered artifacts.
type Generator struct {
	store         *cas.Store
	generatedAt   string
	engineVersion string
	logger        *slog.Logger
}

// NewGenerator validates the configuration and returns a Generator.
func NewGenerator(config GeneratorConfig) (*Generator, error) {
	if config.GeneratedAt.IsZero() {
		return nil, fmt.Errorf("provenance: generated-at time is required")
	}
	engineVersion := config.EngineVersion
	if engineVersion == "" {
		engineVersion = version.Engine()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{
		store:         config.Store,
		generatedAt:   config.GeneratedAt.UTC().Format(time.RFC3339),
		engineVersion: engineVersion,
		logger:        logger,
	}, nil
}

// Generate computes the artifact hash, assembles the record, and —
// when a store is configured — persists the artifact bytes so the
// hash is retrievable. Template and graph bytes are hashed in their
// own domains and live in source control; only the artifact is
// CAS-backed.
func (g *Generator) Generate(ctx context.Context, artifact ArtifactInfo, parsed *template.Template, snapshot *graph.Snapshot) (*Record, error) {
	artifactHash := cas.HashContent(artifact.Content)

	if g.store != nil {
		stored, err := g.store.Store(ctx, artifact.Content)
		if err != nil {
			return nil, fmt.Errorf("provenance: storing artifact %s: %w", artifact.Path, err)
		}
		if stored != artifactHash {
			return nil, fmt.Errorf("provenance: store returned hash %s for artifact hashing to %s",
				cas.FormatHash(stored), cas.FormatHash(artifactHash))
		}
	}

	record := &Record{
		ArtifactPath:  artifact.Path,
		ArtifactHash:  cas.FormatHash(artifactHash),
		ArtifactSize:  int64(len(artifact.Content)),
		TemplateID:    parsed.ID,
		TemplateHash:  cas.FormatHash(parsed.Hash),
		GraphPath:     snapshot.Path,
		GraphHash:     cas.FormatHash(snapshot.Hash),
		GeneratedAt:   g.generatedAt,
		EngineVersion: g.engineVersion,
	}

	g.logger.Debug("provenance: record generated",
		"artifact", artifact.Path,
		"artifact_hash", record.ArtifactHash,
		"template", parsed.ID)

	return record, nil
}
