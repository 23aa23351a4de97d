// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/stencil-foundation/stencil/cmd/stencil/cli"
)

func rebuildCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "rebuild",
		Summary: "Rebuild the store's entry index from the blob tree",
		Description: `Repopulate the store's entry index by scanning the blob tree.

The blob tree is the source of truth; the index only carries the
metadata garbage collection needs. Run this after index loss or
corruption. Blobs already indexed keep their creation stamp; newly
indexed blobs restart their GC aging from now.`,
		Usage: "stencil rebuild [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("rebuild", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the stencil config file")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("rebuild takes no positional arguments")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			scanned, err := store.RebuildIndex(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d blobs\n", scanned)
			return nil
		},
	}
}
