package app

import (
	"depmanifest/internal/core/app/helpers"
	"depmanifest/internal/core/config"
	"depmanifest/internal/core/errors"
	"depmanifest/internal/core/watcher"
	"depmanifest/internal/data/history"
	"depmanifest/internal/engine/graph"
	"depmanifest/internal/engine/parser"
	"depmanifest/internal/engine/resolver"
	"depmanifest/internal/shared/util"
	"regexp"
	"sync"

	"github.com/gobwas/glob"
)

// defaultCacheCapacity bounds the number of per-file scan results kept
// between watch-mode passes.
const defaultCacheCapacity = 4096

type App struct {
	Config *config.Config
	Parser *parser.Parser
	Namer  *resolver.PathNamer
	Rules  graph.RuleSet

	include      *regexp.Regexp
	exclude      *regexp.Regexp
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob

	cache   *scanCache
	history *history.Store

	runMu         sync.Mutex
	updateMu      sync.RWMutex
	onRun         func(RunResult)
	activeWatcher *watcher.Watcher
	limiter       *util.Limiter
}

// New compiles everything a run needs from cfg. cfg is expected to have
// passed config.Validate; compile failures are still reported as
// VALIDATION_ERROR.
func New(cfg *config.Config) (*App, error) {
	loader, err := parser.NewGrammarLoader(buildParserRegistry(cfg))
	if err != nil {
		return nil, err
	}
	p := parser.NewParser(loader)

	rules, err := cfg.RuleSet()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "compile name map")
	}
	include, err := config.CompileNamePattern(cfg.Filter.Include)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "compile include pattern")
	}
	exclude, err := config.CompileNamePattern(cfg.Filter.Exclude)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "compile exclude pattern")
	}
	excludeDirs, err := helpers.CompileGlobs(cfg.Exclude.Dirs, "exclude dir")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "compile exclude dirs")
	}
	excludeFiles, err := helpers.CompileGlobs(cfg.Exclude.Files, "exclude file")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "compile exclude files")
	}

	a := &App{
		Config:       cfg,
		Parser:       p,
		Namer:        resolver.NewPathNamer(cfg.RootPaths(), p.SupportedExtensions()),
		Rules:        rules,
		include:      include,
		exclude:      exclude,
		excludeDirs:  excludeDirs,
		excludeFiles: excludeFiles,
		cache:        newScanCache(defaultCacheCapacity),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.history = store
	}
	return a, nil
}

func buildParserRegistry(cfg *config.Config) map[string]parser.LanguageSpec {
	registry := parser.DefaultLanguageRegistry()
	for lang, languageCfg := range cfg.Languages {
		spec, ok := registry[lang]
		if !ok {
			continue
		}
		if languageCfg.Enabled != nil {
			spec.Enabled = *languageCfg.Enabled
		}
		if len(languageCfg.Extensions) > 0 {
			spec.Extensions = append([]string(nil), languageCfg.Extensions...)
		}
		registry[lang] = spec
	}
	return registry
}

// SetRunHandler registers a callback invoked after every completed run,
// including watch-mode rebuilds.
func (a *App) SetRunHandler(handler func(RunResult)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onRun = handler
}

func (a *App) emitRun(result RunResult) {
	a.updateMu.RLock()
	handler := a.onRun
	a.updateMu.RUnlock()
	if handler != nil {
		handler(result)
	}
}

func (a *App) Close() error {
	var firstErr error
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			firstErr = err
		}
		a.activeWatcher = nil
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.history = nil
	}
	if a.Parser != nil {
		a.Parser.Close()
	}
	return firstErr
}
