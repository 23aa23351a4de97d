// Copyright 2026 The Stencil Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/stencil-foundation/stencil/cmd/stencil/cli"
	"github.com/stencil-foundation/stencil/lib/cas"
	"github.com/stencil-foundation/stencil/lib/graph"
	"github.com/stencil-foundation/stencil/lib/plan"
	"github.com/stencil-foundation/stencil/lib/provenance"
	"github.com/stencil-foundation/stencil/lib/render"
	"github.com/stencil-foundation/stencil/lib/template"
)

func renderCommand() *cli.Command {
	var configPath string
	var dryRun bool

	return &cli.Command{
		Name:    "render",
		Summary: "Execute a build plan: render templates into artifacts",
		Description: `Execute a build plan.

Each job in the plan renders one template against one graph snapshot
using the plan's build seed. Artifacts are written to the output
directory, stored in the content-addressable store, and attested with
a provenance sidecar. Re-running an unchanged plan reproduces every
artifact bit-for-bit.`,
		Usage: "stencil render <plan.jsonc> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("render", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the stencil config file")
			flags.BoolVar(&dryRun, "dry-run", false, "print artifact hashes without writing anything")
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Render every job in a plan",
				Command:     "stencil render deploy/plans/docs.jsonc",
			},
			{
				Description: "Preview hashes without touching the filesystem",
				Command:     "stencil render deploy/plans/docs.jsonc --dry-run",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("render requires exactly one plan file argument")
			}
			return runRender(ctx, args[0], configPath, dryRun, logger)
		},
	}
}

func runRender(ctx context.Context, planPath, configPath string, dryRun bool, logger *slog.Logger) error {
	buildPlan, err := plan.ReadFile(planPath)
	if err != nil {
		return err
	}
	if issues := plan.Validate(buildPlan); len(issues) > 0 {
		return fmt.Errorf("plan %s is invalid:\n  %s", planPath, strings.Join(issues, "\n  "))
	}

	planName := buildPlan.Name
	if planName == "" {
		planName = plan.NameFromPath(planPath)
	}
	logger.Info("render: executing plan",
		"plan", planName,
		"build_time", buildPlan.ParseTime(),
		"jobs", len(buildPlan.Jobs))

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// The plan's build identity overrides the config file's.
	buildConfig := cfg.Build
	if buildPlan.Seed != "" {
		buildConfig.Seed = buildPlan.Seed
	}
	if buildPlan.BuildTime != "" {
		buildConfig.BuildTime = buildPlan.BuildTime
	}
	build, err := buildConfig.Determinism()
	if err != nil {
		return err
	}

	templates := template.NewDiskSource(cfg.Paths.Templates)
	graphs := graph.NewDiskSource(cfg.Paths.Graphs)

	renderer, err := render.New(render.Config{
		Templates:    templates,
		Build:        build,
		VolatileKeys: cfg.Build.VolatileKeys,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	generatorConfig := provenance.GeneratorConfig{
		GeneratedAt: build.BuildTime,
		Logger:      logger,
	}
	if !dryRun {
		store, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		generatorConfig.Store = store
	}
	generator, err := provenance.NewGenerator(generatorConfig)
	if err != nil {
		return err
	}

	for _, job := range buildPlan.Jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := runJob(ctx, job, cfg.Paths.Output, templates, graphs, renderer, generator, dryRun, logger); err != nil {
			return fmt.Errorf("job %q: %w", job.Name, err)
		}
	}
	return nil
}

func runJob(
	ctx context.Context,
	job plan.Job,
	outputRoot string,
	templates template.Source,
	graphs graph.Source,
	renderer *render.Renderer,
	generator *provenance.Generator,
	dryRun bool,
	logger *slog.Logger,
) error {
	parsed, err := templates.Resolve(job.Template)
	if err != nil {
		return err
	}
	snapshot, err := graphs.Resolve(job.Graph)
	if err != nil {
		return err
	}

	variables := job.Variables
	if variables == nil {
		variables = map[string]any{}
	}
	variables["graph"] = snapshot.Path

	result, err := renderer.RenderTemplate(parsed, variables)
	if err != nil {
		return err
	}
	if result.Skip {
		logger.Info("render: job skipped by skip_if", "job", job.Name, "template", job.Template)
		return nil
	}

	destination := job.Output
	if destination == "" {
		destination = result.Destination
	}
	if destination == "" {
		return fmt.Errorf("no output path: set jobs[].output or a 'to:' pattern in the template frontmatter")
	}
	outputPath := filepath.Join(outputRoot, filepath.FromSlash(destination))

	// Injection modes merge into the current destination content; a
	// whole-file write ignores it.
	var existing []byte
	if result.Frontmatter.Inject != template.InjectWrite {
		existing, err = os.ReadFile(outputPath)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("reading injection destination %s: %w", outputPath, err)
		}
	}
	merged, err := result.Frontmatter.Apply(string(existing), string(result.Content))
	if err != nil {
		return fmt.Errorf("injecting into %s: %w", outputPath, err)
	}

	if dryRun {
		fmt.Printf("%s  %s  (dry run)\n", cas.FormatHash(cas.HashContent([]byte(merged))), outputPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(merged), result.Frontmatter.FileMode()); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	record, err := generator.Generate(ctx, provenance.ArtifactInfo{
		Path:    outputPath,
		Content: []byte(merged),
	}, parsed, snapshot)
	if err != nil {
		return err
	}
	if err := provenance.WriteAttestation(outputPath, record); err != nil {
		return err
	}

	fmt.Printf("%s  %s\n", record.ArtifactHash, outputPath)
	return nil
}
