// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/stencil-foundation/stencil/cmd/stencil/cli"
	"github.com/stencil-foundation/stencil/lib/cas"
)

func storeCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "store",
		Summary: "Store files in the content-addressable store",
		Description: `Store one or more files by content hash.

Storing the same content twice is a no-op that returns the same hash;
distinct content never collides. Each line of output is the content
hash followed by the file path.`,
		Usage: "stencil store <file>... [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("store", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the stencil config file")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return fmt.Errorf("store requires at least one file argument")
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

			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				hash, err := store.Store(ctx, content)
				if err != nil {
					return err
				}
				fmt.Printf("%s  %s\n", cas.FormatHash(hash), path)
			}
			return nil
		},
	}
}

func retrieveCommand() *cli.Command {
	var configPath string
	var outputPath string

	return &cli.Command{
		Name:    "retrieve",
		Summary: "Retrieve content by hash",
		Description: `Retrieve stored content by its hex hash.

The stored bytes are re-hashed on read; a corrupted entry fails
rather than returning bad bytes. Output goes to stdout unless
--output is given.`,
		Usage: "stencil retrieve <hash> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("retrieve", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the stencil config file")
			flags.StringVarP(&outputPath, "output", "o", "", "write content to this file instead of stdout")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("retrieve requires exactly one hash argument")
			}
			hash, err := cas.ParseHash(args[0])
			if err != nil {
				return err
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

			content, err := store.Retrieve(ctx, hash)
			if err != nil {
				return err
			}
			if outputPath != "" {
				return os.WriteFile(outputPath, content, 0o644)
			}
			_, err = os.Stdout.Write(content)
			return err
		},
	}
}

func existsCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "exists",
		Summary: "Check whether a hash is stored (exit 1 if absent)",
		Usage:   "stencil exists <hash> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("exists", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the stencil config file")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("exists requires exactly one hash argument")
			}
			hash, err := cas.ParseHash(args[0])
			if err != nil {
				return err
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

			if !store.Exists(hash) {
				fmt.Println("absent")
				return &cli.ExitError{Code: 1}
			}
			fmt.Println("present")
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "verify",
		Summary: "Verify a file against a content hash (exit 1 on mismatch)",
		Usage:   "stencil verify <hash> <file> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("verify", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the stencil config file")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return fmt.Errorf("verify requires a hash and a file argument")
			}
			hash, err := cas.ParseHash(args[0])
			if err != nil {
				return err
			}
			content, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[1], err)
			}
			if !cas.Verify(hash, content) {
				fmt.Printf("mismatch: %s hashes to %s\n", args[1], cas.FormatHash(cas.HashContent(content)))
				return &cli.ExitError{Code: 1}
			}
			fmt.Println("ok")
			return nil
		},
	}
}
