package cli

import (
	"context"
	coreapp "depmanifest/internal/core/app"
	"depmanifest/internal/core/config"
	"depmanifest/internal/shared/observability"
	"depmanifest/internal/shared/version"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 5 * time.Second

// Run executes the command line and returns the process exit code: 0 on
// success, 1 on a failed run or invalid configuration, 2 on bad flags.
func Run(args []string) int {
	return run(args, os.Stdout)
}

func run(args []string, stdout io.Writer) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "KISSY Dependency Extractor %s\n", version.Version)
		return 0
	}

	configureLogging(opts.verbose)

	cfg, err := loadConfig(opts)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, version.Version)
	if err != nil {
		slog.Warn("tracing disabled", "endpoint", cfg.Observability.OTLPEndpoint, "error", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				slog.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	a, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer a.Close()

	status := newRunStatus()
	a.SetRunHandler(status.record)

	result, err := a.Run(ctx)
	if err != nil {
		slog.Error("manifest run failed", "error", err)
		return 1
	}
	fmt.Fprintln(stdout, renderSummary(result))

	if !cfg.Watch.Enabled {
		return 0
	}
	return runWatch(ctx, a, cfg, status)
}

func runWatch(ctx context.Context, a *coreapp.App, cfg *config.Config, status *runStatus) int {
	if cfg.Observability.MetricsAddr != "" {
		server := NewObservabilityServer(cfg.Observability.MetricsAddr, status.snapshot)
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = server.Stop(shutdownCtx)
		}()
	}

	if err := a.StartWatcher(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}
	slog.Info("watching for changes", "roots", cfg.RootPaths(), "debounce", cfg.Watch.Debounce)

	<-ctx.Done()
	slog.Info("shutting down")
	return 0
}

func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
