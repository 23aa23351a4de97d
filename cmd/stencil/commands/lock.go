// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/stencil-foundation/stencil/cmd/stencil/cli"
	"github.com/stencil-foundation/stencil/lib/lockfile"
)

func lockCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "lock",
		Summary: "Record tracked artifact hashes in the lockfile",
		Description: `Snapshot tracked paths into the lockfile.

With path arguments, those paths become the tracked set. Without
arguments, the existing lockfile's tracked set is re-hashed in place.
The lockfile is the drift detector's baseline and defines which store
entries the garbage collector treats as live.`,
		Usage: "stencil lock [path...] [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("lock", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the stencil config file")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				existing, err := lockfile.Read(cfg.Paths.Lockfile)
				if errors.Is(err, lockfile.ErrMissing) {
					return fmt.Errorf("no lockfile at %s and no paths given; run 'stencil lock <path>...' first", cfg.Paths.Lockfile)
				}
				if err != nil {
					return err
				}
				paths = existing.Paths()
			}

			manifest, err := lockfile.Snapshot(paths, time.Now().UTC())
			if err != nil {
				return err
			}
			if err := manifest.Write(cfg.Paths.Lockfile); err != nil {
				return err
			}

			logger.Info("lock: wrote manifest", "path", cfg.Paths.Lockfile, "entries", len(manifest.Entries))
			fmt.Printf("locked %d paths in %s\n", len(manifest.Entries), cfg.Paths.Lockfile)
			return nil
		},
	}
}
