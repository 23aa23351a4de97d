// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete stencil CLI command tree. The
// command surface maps the engine's operations (render, store,
// retrieve, collect, lock, detect) onto subcommands and translates
// their structured results into text output and process exit codes.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stencil-foundation/stencil/cmd/stencil/cli"
	"github.com/stencil-foundation/stencil/lib/version"
)

// Root builds and returns the complete stencil CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "stencil",
		Description: `Stencil: deterministic artifact builds with content-addressed storage.

Render templates against knowledge-graph snapshots with a fixed build
seed, store artifacts by content hash, and track provenance and drift.`,
		Subcommands: []*cli.Command{
			renderCommand(),
			storeCommand(),
			retrieveCommand(),
			existsCommand(),
			verifyCommand(),
			gcCommand(),
			rebuildCommand(),
			lockCommand(),
			driftCommand(),
			attestCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("stencil %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Run a build plan",
				Command:     "stencil render deploy/plans/docs.jsonc",
			},
			{
				Description: "Store a file and print its content hash",
				Command:     "stencil store out/README.md",
			},
			{
				Description: "Check tracked artifacts against the lockfile (exit 3 on drift)",
				Command:     "stencil drift",
			},
			{
				Description: "Preview what garbage collection would reclaim",
				Command:     "stencil gc --dry-run",
			},
			{
				Description: "Inspect an artifact's provenance record",
				Command:     "stencil attest show out/README.md",
			},
		},
	}
}
