package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keremk/tutopanda/internal/blobstore"
	"github.com/keremk/tutopanda/internal/blueprint"
	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/inputsrc"
	"github.com/keremk/tutopanda/internal/manifest"
	"github.com/keremk/tutopanda/internal/planner"
	"github.com/keremk/tutopanda/internal/producergraph"
	"github.com/keremk/tutopanda/internal/runner"
	"github.com/keremk/tutopanda/internal/telemetry"
)

var (
	genMovieID     string
	genLast        bool
	genInputsPath  string
	genBlueprint   string
	genDryRun      bool
	genConcurrency int
	genUpToLayer   int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Plan and, unless --dry-run, run the next revision for a movie",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genMovieID, "movie-id", "", "movie to generate (required)")
	generateCmd.Flags().BoolVar(&genLast, "last", false, "reuse the movie's last resolved inputs, ignoring --inputs")
	generateCmd.Flags().StringVar(&genInputsPath, "inputs", "", "path to a YAML file of input overrides")
	generateCmd.Flags().StringVar(&genBlueprint, "blueprint", "", "path to the root blueprint document (required)")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "compute and persist the plan without running it")
	generateCmd.Flags().IntVar(&genConcurrency, "concurrency", 0, "override the configured concurrency")
	generateCmd.Flags().IntVar(&genUpToLayer, "up-to-layer", -1, "stop after this layer index (-1 runs every layer)")
	_ = generateCmd.MarkFlagRequired("movie-id")
	_ = generateCmd.MarkFlagRequired("blueprint")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	concurrency := cfg.Concurrency
	if genConcurrency > 0 {
		concurrency = genConcurrency
	}

	logger, err := telemetry.NewZapLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("generate: build logger: %w", err)
	}

	blobs, err := blobstore.NewLocalStore(storageDirFlag)
	if err != nil {
		return fmt.Errorf("generate: open blob store: %w", err)
	}
	events, err := eventlog.NewLocalStore(storageDirFlag)
	if err != nil {
		return fmt.Errorf("generate: open event log: %w", err)
	}
	manifests := manifest.NewService(blobs)

	base, _, err := manifests.LoadCurrent(ctx, genMovieID)
	if err != nil {
		if !isManifestNotFound(err) {
			return err
		}
		base = manifest.Empty()
	}

	tree, err := blueprint.Load(genBlueprint)
	if err != nil {
		return err
	}
	graph, err := blueprint.Compile(tree)
	if err != nil {
		return err
	}
	sm, err := inputsrc.BuildSourceMap(graph)
	if err != nil {
		return err
	}

	overrides := map[string]any{}
	if !genLast {
		overrides, err = loadInputOverrides(genInputsPath)
		if err != nil {
			return err
		}
	}
	resolvedInputs, err := resolveInputValues(tree, sm, base, overrides)
	if err != nil {
		return err
	}

	pg, err := producergraph.Project(graph, resolvedInputs)
	if err != nil {
		return err
	}

	targetRevision := base.Revision.Next()
	pending, err := pendingInputEvents(base, resolvedInputs, targetRevision)
	if err != nil {
		return err
	}

	plan, err := planner.Compute(base, pending, pg, targetRevision)
	if err != nil {
		return err
	}
	*plan, _, err = planner.Persist(ctx, blobs, genMovieID, *plan)
	if err != nil {
		return err
	}
	if err := planner.WriteInputsYAML(ctx, blobs, genMovieID, resolvedInputs); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "plan %s: %d layer(s)\n", plan.Revision, len(plan.Layers))
	if len(plan.Layers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing dirty, up to date")
		return nil
	}
	if genDryRun {
		for i, layer := range plan.Layers {
			fmt.Fprintf(cmd.OutOrStdout(), "  layer %d: %d job(s)\n", i, len(layer))
		}
		return nil
	}

	for _, ev := range pending {
		if err := events.AppendInput(ctx, genMovieID, ev); err != nil {
			return fmt.Errorf("generate: record input %s: %w", ev.ID, err)
		}
	}

	r := runner.New(events, blobs, newStubInvoker(events, blobs, genMovieID), logger)
	runCfg := runner.Config{Concurrency: concurrency}
	if genUpToLayer >= 0 {
		runCfg.UpToLayer = &genUpToLayer
	}

	result, err := r.Execute(ctx, genMovieID, *plan, base, resolvedInputs, runCfg)
	if err != nil {
		return err
	}

	if _, _, err := manifests.WriteCurrent(ctx, genMovieID, result.Manifest); err != nil {
		return fmt.Errorf("generate: write manifest: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %s (%d failed, %d skipped)\n",
		result.Revision, result.Status, len(result.FailedJobs), len(result.SkippedJobs))

	if result.Status == runner.StatusFailed {
		return fmt.Errorf("generate: run failed: %v", result.FailedJobs)
	}
	return nil
}
