// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Stencil commands.
//
// Configuration is loaded from a single file specified by:
//   - STENCIL_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides. A
// build plan may still override the seed and build time per build;
// the config file carries the durable project-level settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stencil-foundation/stencil/lib/cas"
	"github.com/stencil-foundation/stencil/lib/determinism"
)

// Config is the master configuration for Stencil.
type Config struct {
	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Build configures the deterministic build identity.
	Build BuildConfig `yaml:"build"`

	// GC configures garbage collection defaults.
	GC GCConfig `yaml:"gc"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Store is the content-addressable store root.
	// Default: ~/.cache/stencil/cas
	Store string `yaml:"store"`

	// Templates is the template source root.
	// Default: templates
	Templates string `yaml:"templates"`

	// Graphs is the graph snapshot root.
	// Default: graphs
	Graphs string `yaml:"graphs"`

	// Output is where rendered artifacts are written.
	// Default: out
	Output string `yaml:"output"`

	// Lockfile is the tracked-path manifest location.
	// Default: stencil.lock
	Lockfile string `yaml:"lockfile"`
}

// BuildConfig configures the deterministic build identity. Both
// fields may be overridden per build by a plan file.
type BuildConfig struct {
	// Seed is the build seed for the deterministic function library.
	Seed string `yaml:"seed"`

	// BuildTime is the fixed RFC 3339 timestamp for this build.
	BuildTime string `yaml:"build_time"`

	// VolatileKeys replaces the renderer's default volatile-key set
	// when non-empty.
	VolatileKeys []string `yaml:"volatile_keys,omitempty"`
}

// GCConfig configures garbage collection defaults. Durations use Go
// duration syntax ("720h", "15m").
type GCConfig struct {
	// MinAge is the minimum entry age before reclamation.
	// Default: 720h
	MinAge string `yaml:"min_age"`

	// GracePeriod protects recently-created entries regardless of
	// references. Default: 15m
	GracePeriod string `yaml:"grace_period"`
}

// Default returns the default configuration. These defaults ensure
// all fields have sensible zero-values; project settings come from
// the config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Paths: PathsConfig{
			Store:     filepath.Join(homeDir, ".cache", "stencil", "cas"),
			Templates: "templates",
			Graphs:    "graphs",
			Output:    "out",
			Lockfile:  "stencil.lock",
		},
		GC: GCConfig{
			MinAge:      "720h",
			GracePeriod: "15m",
		},
	}
}

// Load loads configuration from the STENCIL_CONFIG environment
// variable. There are no fallbacks: if STENCIL_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	path := os.Getenv("STENCIL_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("STENCIL_CONFIG environment variable not set; " +
			"set it to the path of your stencil.yaml config file, or use --config flag")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merging
// over the defaults. Environment variables do not override config
// values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for malformed values. All
// problems are reported together.
func (c *Config) Validate() error {
	var problems []error

	if c.Paths.Store == "" {
		problems = append(problems, errors.New("paths.store is required"))
	}
	if c.Build.BuildTime != "" {
		if _, err := time.Parse(time.RFC3339, c.Build.BuildTime); err != nil {
			problems = append(problems, fmt.Errorf("build.build_time %q is not an RFC 3339 timestamp", c.Build.BuildTime))
		}
	}
	if c.GC.MinAge != "" {
		if _, err := time.ParseDuration(c.GC.MinAge); err != nil {
			problems = append(problems, fmt.Errorf("gc.min_age %q is not a duration", c.GC.MinAge))
		}
	}
	if c.GC.GracePeriod != "" {
		if _, err := time.ParseDuration(c.GC.GracePeriod); err != nil {
			problems = append(problems, fmt.Errorf("gc.grace_period %q is not a duration", c.GC.GracePeriod))
		}
	}

	return errors.Join(problems...)
}

// Determinism converts the build section into the value the renderer
// and provenance generator consume. Fails when the seed or build time
// is unset: determinism cannot be defaulted from wall clocks.
func (b BuildConfig) Determinism() (determinism.Config, error) {
	if b.Seed == "" {
		return determinism.Config{}, errors.New("build.seed is required (set it in the config or the plan)")
	}
	if b.BuildTime == "" {
		return determinism.Config{}, errors.New("build.build_time is required (set it in the config or the plan)")
	}
	buildTime, err := time.Parse(time.RFC3339, b.BuildTime)
	if err != nil {
		return determinism.Config{}, fmt.Errorf("build.build_time: %w", err)
	}
	return determinism.Config{Seed: b.Seed, BuildTime: buildTime}, nil
}

// Policy converts the GC section into a collection policy. The live
// set is the caller's to supply.
func (g GCConfig) Policy() (cas.Policy, error) {
	var policy cas.Policy
	if g.MinAge != "" {
		minAge, err := time.ParseDuration(g.MinAge)
		if err != nil {
			return cas.Policy{}, fmt.Errorf("gc.min_age: %w", err)
		}
		policy.MinAge = minAge
	}
	if g.GracePeriod != "" {
		grace, err := time.ParseDuration(g.GracePeriod)
		if err != nil {
			return cas.Policy{}, fmt.Errorf("gc.grace_period: %w", err)
		}
		policy.GracePeriod = grace
	}
	return policy, nil
}
