package app

import (
	"context"
	"depmanifest/internal/core/app/helpers"
	"depmanifest/internal/core/errors"
	"depmanifest/internal/engine/graph"
	"depmanifest/internal/engine/parser"
	"depmanifest/internal/shared/observability"
	"depmanifest/internal/shared/util"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ScanStats counts what a build saw.
type ScanStats struct {
	Files        int
	Declarations int
	Recorded     int
	Unresolved   int
	Filtered     int
	FixedNames   int
	CacheHits    int
}

// Build scans every configured root in order and returns the unmerged
// dependency graph. A later file overwrites an earlier entry with the same
// module name. Any file that fails to parse aborts the build.
func (a *App) Build(ctx context.Context) (*graph.DependencyGraph, ScanStats, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Build")
	defer span.End()
	start := time.Now()
	defer func() {
		observability.RunDuration.WithLabelValues("scan").Observe(time.Since(start).Seconds())
	}()

	g := graph.NewDependencyGraph()
	var stats ScanStats
	for _, root := range a.Config.Roots {
		files, err := a.ScanRoot(root.Path)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan root")
			return nil, stats, err
		}
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
			if err := a.ProcessFile(g, path, root.Encoding, &stats); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "process file")
				return nil, stats, err
			}
		}
	}

	span.SetAttributes(
		attribute.Int("files", stats.Files),
		attribute.Int("declarations", stats.Declarations),
		attribute.Int("modules", g.ModuleCount()),
	)
	return g, stats, nil
}

// ScanRoot lists the supported source files below root in lexical order,
// honoring the directory and file exclusion globs.
func (a *App) ScanRoot(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && helpers.MatchesAny(a.excludeDirs, path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !a.Parser.IsSupportedPath(path) {
			return nil
		}
		if helpers.MatchesAny(a.excludeFiles, path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan root %q: %w", root, err)
	}
	return files, nil
}

// ProcessFile adds one file's contribution to g.
func (a *App) ProcessFile(g *graph.DependencyGraph, path, encoding string, stats *ScanStats) error {
	stats.Files++
	res, err := a.analyzeFile(path, encoding, stats)
	if err != nil {
		return err
	}

	if !res.Declaration {
		slog.Debug("skipping file without module declaration", "path", path)
		observability.FilesSkippedTotal.WithLabelValues(observability.SkipNotDeclaration).Inc()
		return nil
	}
	stats.Declarations++

	if res.Name == "" {
		err := errors.AddContext(errors.New(errors.CodeUnresolvedName, "cannot resolve module name"), errors.CtxPath, path)
		slog.Warn("skipping module with unresolved name", "path", path, "error", err)
		observability.FilesSkippedTotal.WithLabelValues(observability.SkipUnresolvedName).Inc()
		stats.Unresolved++
		return nil
	}

	if !a.NameAllowed(res.Name) {
		slog.Debug("skipping filtered module", "path", path, "module", res.Name)
		observability.FilesSkippedTotal.WithLabelValues(observability.SkipFiltered).Inc()
		stats.Filtered++
		return nil
	}

	if len(res.Requires) == 0 {
		observability.FilesSkippedTotal.WithLabelValues(observability.SkipNoRequires).Inc()
		return nil
	}
	g.Record(res.Name, res.Requires)
	stats.Recorded++
	return nil
}

// NameAllowed applies the module filters. Both patterns must match the whole
// name and exclude wins over include.
func (a *App) NameAllowed(name string) bool {
	if a.exclude != nil && a.exclude.MatchString(name) {
		return false
	}
	if a.include != nil && !a.include.MatchString(name) {
		return false
	}
	return true
}

func (a *App) analyzeFile(path, encoding string, stats *ScanStats) (fileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileResult{}, fmt.Errorf("stat %q: %w", path, err)
	}
	if res, ok := a.cache.Get(path, encoding, info.ModTime(), info.Size()); ok {
		stats.CacheHits++
		return res, nil
	}

	content, err := util.ReadFileEncoded(path, encoding)
	if err != nil {
		return fileResult{}, fmt.Errorf("read %q: %w", path, err)
	}
	observability.FilesScannedTotal.Inc()

	src, err := a.Parser.ParseFile(path, content)
	if err != nil {
		return fileResult{}, err
	}
	defer src.Close()

	decl, ok := parser.MatchDeclaration(src)
	if !ok {
		res := fileResult{}
		a.cache.Put(path, encoding, info.ModTime(), info.Size(), res)
		return res, nil
	}

	res := fileResult{Declaration: true, Name: decl.Name}
	rewritten := false
	if res.Name == "" {
		name, ok := a.Namer.ModuleName(path)
		if ok {
			res.Name = name
			if a.Config.FixModuleName {
				if err := a.fixModuleName(src, decl, name, encoding); err != nil {
					return fileResult{}, err
				}
				stats.FixedNames++
				rewritten = true
			}
		}
	}
	if res.Name != "" {
		res.Requires = parser.ExtractRequires(src, decl, res.Name)
	}

	if !rewritten {
		a.cache.Put(path, encoding, info.ModTime(), info.Size(), res)
	}
	return res, nil
}

func (a *App) fixModuleName(src *parser.Source, decl *parser.Declaration, name, encoding string) error {
	fixed, err := parser.InsertModuleName(src, decl, name)
	if err != nil {
		return errors.AddContext(err, errors.CtxPath, src.Path)
	}
	if err := util.WriteFileEncoded(src.Path, fixed, encoding); err != nil {
		return fmt.Errorf("write module name into %q: %w", src.Path, err)
	}
	slog.Info("wrote module name into source", "path", src.Path, "module", name)
	observability.NamesFixedTotal.Inc()
	return nil
}
