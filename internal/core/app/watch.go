package app

import (
	"context"
	"depmanifest/internal/core/app/helpers"
	"depmanifest/internal/core/watcher"
	"depmanifest/internal/shared/util"
	"log/slog"
)

// StartWatcher rebuilds the manifest whenever module sources below the
// roots change. Rebuilds are serial and throttled to one per
// watch.min_interval; a failed rebuild is logged and the previous manifest
// is left in place.
func (a *App) StartWatcher(ctx context.Context) error {
	a.limiter = util.NewLimiter(a.Config.Watch.MinInterval, 1)
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		func(paths []string) { a.HandleChanges(ctx, paths) },
	)
	if err != nil {
		return err
	}
	w.SetExtensions(a.Parser.SupportedExtensions())
	a.activeWatcher = w
	return w.Watch(helpers.UniqueRoots(a.Config.RootPaths()))
}

// HandleChanges evicts the changed paths from the scan cache and runs a full
// rebuild.
func (a *App) HandleChanges(ctx context.Context, paths []string) {
	for _, p := range paths {
		a.cache.Evict(p)
	}
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return
		}
	}

	slog.Info("sources changed, rebuilding manifest", "files", len(paths))
	result, err := a.Run(ctx)
	if err != nil {
		slog.Error("rebuild failed", "error", err)
		return
	}
	slog.Info("manifest rebuilt",
		"output", result.OutputPath,
		"modules", result.Modules,
		"duration", result.Duration,
	)
}
