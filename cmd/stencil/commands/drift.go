// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/stencil-foundation/stencil/cmd/stencil/cli"
	"github.com/stencil-foundation/stencil/lib/drift"
	"github.com/stencil-foundation/stencil/lib/lockfile"
)

// driftExitCode is the reserved exit code for "drift detected",
// distinct from 1 so automation can tell drift apart from a generic
// failure.
const driftExitCode = 3

func driftCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "drift",
		Summary: "Check tracked artifacts against their recorded hashes",
		Description: `Detect drift between tracked artifacts and their baseline.

The lockfile defines the tracked scope. When no lockfile exists,
attestation sidecars of the given paths serve as the baseline. Each
path classifies as unchanged, modified, missing, or untracked-new;
any modified or missing entry sets the drift flag.

Exit codes: 0 = no drift, 3 = drift detected, 1 = failure.`,
		Usage: "stencil drift [path...] [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("drift", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the stencil config file")
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Check everything the lockfile tracks",
				Command:     "stencil drift",
			},
			{
				Description: "Check against attestations when no lockfile exists",
				Command:     "stencil drift out/README.md out/CHANGELOG.md",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			baseline, err := lockfile.Read(cfg.Paths.Lockfile)
			if errors.Is(err, lockfile.ErrMissing) {
				if len(args) == 0 {
					return fmt.Errorf("no lockfile at %s; pass artifact paths to check against attestations", cfg.Paths.Lockfile)
				}
				logger.Info("drift: no lockfile, using attestation baselines", "paths", len(args))
				baseline, err = drift.BaselineFromAttestations(args)
			}
			if err != nil {
				return err
			}

			report, err := drift.Detect(args, baseline)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			for _, finding := range report.Findings {
				detail := ""
				if finding.Classification == drift.Modified {
					detail = fmt.Sprintf("%s -> %s", shortHash(finding.RecordedHash), shortHash(finding.CurrentHash))
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", finding.Classification, finding.Path, detail)
			}
			tw.Flush()

			if report.DriftDetected {
				return &cli.ExitError{Code: driftExitCode}
			}
			return nil
		},
	}
}

func shortHash(hex string) string {
	if len(hex) > 12 {
		return hex[:12]
	}
	return hex
}
