package app

import (
	"context"
	"depmanifest/internal/core/app/helpers"
	"depmanifest/internal/data/history"
	"depmanifest/internal/engine/graph"
	"depmanifest/internal/output"
	"depmanifest/internal/shared/observability"
	"depmanifest/internal/shared/util"
	"depmanifest/internal/shared/version"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type RunResult struct {
	RunID      string
	Stats      ScanStats
	Modules    int
	Edges      int
	Cycles     int
	OutputPath string
	Duration   time.Duration
	// Previous is the last recorded run before this one, nil without history.
	Previous *history.Snapshot
}

// Run performs one full pass: scan all roots, merge through the name map
// once, and write the manifest plus any optional renderings. Nothing is
// written when the scan fails.
func (a *App) Run(ctx context.Context) (RunResult, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	ctx, span := observability.Tracer.Start(ctx, "app.Run")
	defer span.End()
	start := time.Now()

	raw, stats, err := a.Build(ctx)
	if err != nil {
		observability.RunsTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "build")
		return RunResult{Stats: stats}, err
	}

	merged := a.Merge(ctx, raw)
	cycles := merged.DetectCycles()
	for _, cycle := range cycles {
		slog.Warn("require cycle in manifest", "modules", strings.Join(cycle, " -> "))
	}

	if err := a.GenerateOutputs(ctx, merged); err != nil {
		observability.RunsTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "write outputs")
		return RunResult{Stats: stats}, err
	}

	result := RunResult{
		Stats:      stats,
		Modules:    merged.ModuleCount(),
		Edges:      merged.EdgeCount(),
		Cycles:     len(cycles),
		OutputPath: a.Config.Output.Path,
		Duration:   time.Since(start),
	}
	observability.GraphModules.Set(float64(result.Modules))
	observability.GraphEdges.Set(float64(result.Edges))
	observability.RunsTotal.WithLabelValues("ok").Inc()
	span.SetAttributes(
		attribute.Int("modules", result.Modules),
		attribute.Int("edges", result.Edges),
		attribute.Int("cycles", result.Cycles),
	)

	if a.history != nil {
		result.Previous = a.previousRun()
		id, err := a.history.SaveSnapshot(a.Config.History.ProjectKey, history.Snapshot{
			ToolVersion:      version.Version,
			FileCount:        stats.Files,
			DeclarationCount: stats.Declarations,
			ModuleCount:      result.Modules,
			EdgeCount:        result.Edges,
			UnresolvedCount:  stats.Unresolved,
			FixedNameCount:   stats.FixedNames,
			OutputPath:       result.OutputPath,
			Duration:         result.Duration,
		})
		if err != nil {
			slog.Warn("failed to record run history", "path", a.history.Path(), "error", err)
		} else {
			result.RunID = id
		}
	}

	a.emitRun(result)
	return result, nil
}

func (a *App) previousRun() *history.Snapshot {
	runs, err := a.history.LoadSnapshots(a.Config.History.ProjectKey, time.Time{}, 1)
	if err != nil {
		slog.Warn("failed to load previous run", "path", a.history.Path(), "error", err)
		return nil
	}
	if len(runs) == 0 {
		return nil
	}
	return &runs[0]
}

// Merge canonicalizes the raw graph through the configured name map.
func (a *App) Merge(ctx context.Context, raw *graph.DependencyGraph) *graph.DependencyGraph {
	_, span := observability.Tracer.Start(ctx, "app.Merge")
	defer span.End()
	start := time.Now()
	defer func() {
		observability.RunDuration.WithLabelValues("merge").Observe(time.Since(start).Seconds())
	}()

	span.SetAttributes(attribute.Int("rules", len(a.Rules)))
	return graph.Merge(raw, a.Rules)
}

// GenerateOutputs writes the manifest in the output encoding and, when
// configured, the DOT and TSV renderings in UTF-8.
func (a *App) GenerateOutputs(ctx context.Context, g *graph.DependencyGraph) error {
	_, span := observability.Tracer.Start(ctx, "app.GenerateOutputs")
	defer span.End()
	start := time.Now()
	defer func() {
		observability.RunDuration.WithLabelValues("serialize").Observe(time.Since(start).Seconds())
	}()

	out := a.Config.Output
	manifest := output.NewManifestGenerator(g).Generate()
	if err := helpers.WriteArtifact(out.Path, manifest, out.Encoding); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	if out.DOT != "" {
		dot, err := output.NewDOTGenerator(g).Generate()
		if err != nil {
			return fmt.Errorf("generate DOT output: %w", err)
		}
		if err := helpers.WriteArtifact(out.DOT, dot, util.DefaultEncoding); err != nil {
			return fmt.Errorf("write DOT output: %w", err)
		}
	}

	if out.TSV != "" {
		tsv, err := output.NewTSVGenerator(g).Generate()
		if err != nil {
			return fmt.Errorf("generate TSV output: %w", err)
		}
		if err := helpers.WriteArtifact(out.TSV, tsv, util.DefaultEncoding); err != nil {
			return fmt.Errorf("write TSV output: %w", err)
		}
	}
	return nil
}
