// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/stencil-foundation/stencil/cmd/stencil/cli"
	"github.com/stencil-foundation/stencil/lib/cas"
)

func gcCommand() *cli.Command {
	var configPath string
	var dryRun bool
	var minAge time.Duration
	var gracePeriod time.Duration

	return &cli.Command{
		Name:    "gc",
		Summary: "Reclaim unreferenced entries from the store",
		Description: `Garbage-collect the content-addressable store.

Entries referenced by the lockfile or by attestation sidecars of
tracked artifacts are never reclaimed. Neither are entries younger
than the grace period, referenced or not. Per-entry delete failures
are reported at the end; they do not abort the scan.`,
		Usage: "stencil gc [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("gc", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the stencil config file")
			flags.BoolVar(&dryRun, "dry-run", false, "report what would be reclaimed without deleting")
			flags.DurationVar(&minAge, "min-age", 0, "minimum entry age (overrides the config)")
			flags.DurationVar(&gracePeriod, "grace-period", 0, "grace window for fresh entries (overrides the config)")
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Preview a collection",
				Command:     "stencil gc --dry-run",
			},
			{
				Description: "Reclaim entries older than a week",
				Command:     "stencil gc --min-age 168h",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("gc takes no positional arguments")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			policy, err := cfg.GC.Policy()
			if err != nil {
				return err
			}
			if minAge > 0 {
				policy.MinAge = minAge
			}
			if gracePeriod > 0 {
				policy.GracePeriod = gracePeriod
			}
			policy.DryRun = dryRun
			policy.LiveSet = liveSet(cfg)

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := store.Collect(ctx, policy)
			if err != nil {
				return err
			}

			verb := "reclaimed"
			if dryRun {
				verb = "would reclaim"
			}
			fmt.Printf("scanned %d entries, %s %d (%d bytes), %d live\n",
				result.Scanned, verb, result.Reclaimed, result.BytesFreed, len(policy.LiveSet))
			for _, failure := range result.Failures {
				fmt.Printf("failed: %s: %v\n", cas.FormatHash(failure.Hash), failure.Err)
			}
			return nil
		},
	}
}
