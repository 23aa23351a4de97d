// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/stencil-foundation/stencil/cmd/stencil/cli"
	"github.com/stencil-foundation/stencil/lib/codec"
	"github.com/stencil-foundation/stencil/lib/provenance"
)

func attestCommand() *cli.Command {
	return &cli.Command{
		Name:    "attest",
		Summary: "Inspect and compare provenance attestations",
		Subcommands: []*cli.Command{
			attestShowCommand(),
			attestVerifyCommand(),
			attestCompareCommand(),
		},
	}
}

func attestShowCommand() *cli.Command {
	var raw bool

	return &cli.Command{
		Name:    "show",
		Summary: "Print an artifact's provenance record as JSON",
		Usage:   "stencil attest show <artifact> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("show", pflag.ContinueOnError)
			flags.BoolVar(&raw, "raw", false, "print the sidecar's CBOR diagnostic notation instead of JSON")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("show requires exactly one artifact path")
			}
			if raw {
				encoded, err := os.ReadFile(provenance.AttestationPath(args[0]))
				if err != nil {
					if os.IsNotExist(err) {
						return fmt.Errorf("%w: %s", provenance.ErrAttestationMissing, args[0])
					}
					return err
				}
				notation, err := codec.Diagnose(encoded)
				if err != nil {
					return fmt.Errorf("diagnosing attestation for %s: %w", args[0], err)
				}
				fmt.Println(notation)
				return nil
			}
			record, err := provenance.ReadAttestation(args[0])
			if err != nil {
				return err
			}
			encoded, err := record.JSON()
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", encoded)
			return nil
		},
	}
}

func attestVerifyCommand() *cli.Command {
	return &cli.Command{
		Name:    "verify",
		Summary: "Validate an attestation's structure (exit 1 if invalid)",
		Description: `Validate the structure of an artifact's attestation: required
fields present and hash fields well-formed. Whether the artifact on
disk still matches its recorded hash is 'stencil drift's job.`,
		Usage: "stencil attest verify <artifact>",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("verify requires exactly one artifact path")
			}
			record, err := provenance.ReadAttestation(args[0])
			if err != nil {
				return err
			}
			validation := provenance.Validate(record)
			if !validation.Valid {
				for _, problem := range validation.Errors {
					fmt.Printf("invalid: %s\n", problem)
				}
				return &cli.ExitError{Code: 1}
			}
			fmt.Println("valid")
			return nil
		},
	}
}

func attestCompareCommand() *cli.Command {
	return &cli.Command{
		Name:    "compare",
		Summary: "Compare two artifacts' provenance records field by field",
		Usage:   "stencil attest compare <artifact-a> <artifact-b>",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return fmt.Errorf("compare requires exactly two artifact paths")
			}
			recordA, err := provenance.ReadAttestation(args[0])
			if err != nil {
				return err
			}
			recordB, err := provenance.ReadAttestation(args[1])
			if err != nil {
				return err
			}

			comparison := provenance.Compare(recordA, recordB)
			if comparison.Identical {
				fmt.Println("identical")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			for _, delta := range comparison.Differences {
				fmt.Fprintf(tw, "differs\t%s\t%s\t%s\n", delta.Field, delta.A, delta.B)
			}
			for _, field := range comparison.Similarities {
				fmt.Fprintf(tw, "same\t%s\t\t\n", field)
			}
			tw.Flush()
			return nil
		},
	}
}
