package config

import (
	"depmanifest/internal/engine/parser"
	"depmanifest/internal/shared/util"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateRoots(cfg *Config) []error {
	if len(cfg.Roots) == 0 {
		return []error{fmt.Errorf("at least one root is required")}
	}
	var errs []error
	seen := make(map[string]bool, len(cfg.Roots))
	for i, root := range cfg.Roots {
		ref := fmt.Sprintf("roots[%d]", i)
		if root.Path == "" {
			errs = append(errs, fmt.Errorf("%s.path must not be empty", ref))
			continue
		}
		key := filepath.Clean(root.Path)
		if seen[key] {
			errs = append(errs, fmt.Errorf("duplicate root %q", root.Path))
		}
		seen[key] = true

		info, err := os.Stat(root.Path)
		if os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("%s %q does not exist", ref, root.Path))
		} else if err == nil && !info.IsDir() {
			errs = append(errs, fmt.Errorf("%s %q is not a directory", ref, root.Path))
		}
		if _, err := util.LookupEncoding(root.Encoding); err != nil {
			errs = append(errs, fmt.Errorf("%s.encoding: %w", ref, err))
		}
	}
	return errs
}

func validateFilter(cfg *Config) error {
	if _, err := CompileNamePattern(cfg.Filter.Include); err != nil {
		return fmt.Errorf("filter.include: %w", err)
	}
	if _, err := CompileNamePattern(cfg.Filter.Exclude); err != nil {
		return fmt.Errorf("filter.exclude: %w", err)
	}
	return nil
}

func validateNameMap(cfg *Config) error {
	if _, err := cfg.RuleSet(); err != nil {
		return fmt.Errorf("name_map: %w", err)
	}
	return nil
}

func validateOutput(cfg *Config) []error {
	var errs []error
	if cfg.Output.Path == "" {
		errs = append(errs, fmt.Errorf("output.path must not be empty"))
	}
	if _, err := util.LookupEncoding(cfg.Output.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("output.encoding: %w", err))
	}

	targets := []struct {
		name string
		path string
	}{
		{"output.path", cfg.Output.Path},
		{"output.dot", cfg.Output.DOT},
		{"output.tsv", cfg.Output.TSV},
	}
	seen := make(map[string]string, len(targets))
	for _, t := range targets {
		if t.path == "" {
			continue
		}
		key := filepath.Clean(t.path)
		if prev, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("output conflict: %s and %s share the same path %q", prev, t.name, t.path))
			continue
		}
		seen[key] = t.name
	}
	return errs
}

func validateLanguages(cfg *Config) error {
	enabled := 0
	for name, lang := range cfg.Languages {
		if !parser.IsKnownLanguage(name) {
			return fmt.Errorf("languages.%s: no grammar is bundled for this language", name)
		}
		if !lang.IsEnabled() {
			continue
		}
		enabled++
		for _, ext := range lang.Extensions {
			if !strings.HasPrefix(ext, ".") {
				return fmt.Errorf("languages.%s.extensions: %q must start with '.'", name, ext)
			}
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one language must be enabled")
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, p := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
	}
	for _, p := range cfg.Exclude.Files {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.MinInterval < 0 {
		return fmt.Errorf("watch.min_interval must not be negative")
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if cfg.History.Path == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	if filepath.Clean(cfg.History.Path) == filepath.Clean(cfg.Output.Path) {
		return fmt.Errorf("history.path must differ from output.path")
	}
	return nil
}

// Validate returns every configuration problem found. All of them are
// detected before any file is scanned.
func Validate(cfg *Config) []error {
	var errs []error

	if err := validateVersion(cfg); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateRoots(cfg)...)
	if err := validateFilter(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateNameMap(cfg); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateOutput(cfg)...)
	if err := validateLanguages(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateExclude(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateWatch(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateHistory(cfg); err != nil {
		errs = append(errs, err)
	}

	return errs
}
