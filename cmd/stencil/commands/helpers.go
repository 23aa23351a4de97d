// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"log/slog"
	"os"

	"github.com/stencil-foundation/stencil/lib/cas"
	"github.com/stencil-foundation/stencil/lib/clock"
	"github.com/stencil-foundation/stencil/lib/config"
	"github.com/stencil-foundation/stencil/lib/lockfile"
	"github.com/stencil-foundation/stencil/lib/provenance"
)

// loadConfig resolves configuration for a command: an explicit
// --config path wins, then STENCIL_CONFIG, then built-in defaults.
// Commands that only touch the CAS work fine on defaults; render
// needs a seed from either the config file or the plan.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("STENCIL_CONFIG") != "" {
		return config.Load()
	}
	cfg := config.Default()
	return cfg, cfg.Validate()
}

// openStore opens the content-addressable store at the configured
// root. The caller owns the returned store and must Close it.
func openStore(cfg *config.Config, logger *slog.Logger) (*cas.Store, error) {
	return cas.Open(cas.StoreConfig{
		Root:   cfg.Paths.Store,
		Clock:  clock.Real(),
		Logger: logger,
	})
}

// liveSet assembles the hashes protected from garbage collection:
// everything the lockfile references, plus the artifact hashes of any
// attestation sidecars next to tracked paths. A missing lockfile
// yields an empty set — collection then relies on age policy alone.
func liveSet(cfg *config.Config) map[cas.Hash]struct{} {
	manifest, err := lockfile.Read(cfg.Paths.Lockfile)
	if err != nil {
		return map[cas.Hash]struct{}{}
	}

	live := manifest.LiveHashes()
	for _, path := range manifest.Paths() {
		record, err := provenance.ReadAttestation(path)
		if err != nil {
			continue
		}
		hash, err := cas.ParseHash(record.ArtifactHash)
		if err != nil {
			continue
		}
		live[hash] = struct{}{}
	}
	return live
}
