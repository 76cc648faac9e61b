package config

import (
	"depmanifest/internal/engine/graph"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type Config struct {
	Version       int                 `toml:"version" yaml:"version"`
	Roots         []Root              `toml:"roots" yaml:"roots"`
	Filter        Filter              `toml:"filter" yaml:"filter"`
	NameMap       NameMap             `toml:"name_map" yaml:"name_map"`
	Output        Output              `toml:"output" yaml:"output"`
	FixModuleName bool                `toml:"fix_module_name" yaml:"fix_module_name"`
	Languages     map[string]Language `toml:"languages" yaml:"languages"`
	Exclude       Exclude             `toml:"exclude" yaml:"exclude"`
	Watch         Watch               `toml:"watch" yaml:"watch"`
	History       History             `toml:"history" yaml:"history"`
	Observability Observability       `toml:"observability" yaml:"observability"`
}

// Root is a directory scanned for module sources. Paths below it derive
// their module name relative to it when they do not declare one.
type Root struct {
	Path     string `toml:"path" yaml:"path"`
	Encoding string `toml:"encoding" yaml:"encoding"`
}

// Filter holds include/exclude regexes applied to resolved module names.
// Both must match the whole name; exclude wins.
type Filter struct {
	Include string `toml:"include" yaml:"include"`
	Exclude string `toml:"exclude" yaml:"exclude"`
}

// NameMap rules canonicalize module names before the manifest is written.
// Rules uses the "pattern||replacement,,pattern||replacement" form and is
// applied before Entries.
type NameMap struct {
	Rules   string         `toml:"rules" yaml:"rules"`
	Entries []NameMapEntry `toml:"entries" yaml:"entries"`
}

type NameMapEntry struct {
	Pattern     string `toml:"pattern" yaml:"pattern"`
	Replacement string `toml:"replacement" yaml:"replacement"`
}

type Output struct {
	Path     string `toml:"path" yaml:"path"`
	Encoding string `toml:"encoding" yaml:"encoding"`
	DOT      string `toml:"dot" yaml:"dot"`
	TSV      string `toml:"tsv" yaml:"tsv"`
}

type Language struct {
	Enabled    *bool    `toml:"enabled" yaml:"enabled"`
	Extensions []string `toml:"extensions" yaml:"extensions"`
}

func (l Language) IsEnabled() bool {
	return l.Enabled != nil && *l.Enabled
}

type Exclude struct {
	Dirs  []string `toml:"dirs" yaml:"dirs"`
	Files []string `toml:"files" yaml:"files"`
}

type Watch struct {
	Enabled     bool          `toml:"enabled" yaml:"enabled"`
	Debounce    time.Duration `toml:"debounce" yaml:"debounce"`
	MinInterval time.Duration `toml:"min_interval" yaml:"min_interval"`
}

type History struct {
	Enabled    bool   `toml:"enabled" yaml:"enabled"`
	Path       string `toml:"path" yaml:"path"`
	ProjectKey string `toml:"project_key" yaml:"project_key"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr" yaml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint" yaml:"otlp_endpoint"`
}

// DefaultConfig returns a config with every default applied and no roots or
// output configured.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// RootPaths returns the root paths in configured order.
func (c *Config) RootPaths() []string {
	out := make([]string, 0, len(c.Roots))
	for _, r := range c.Roots {
		out = append(out, r.Path)
	}
	return out
}

// RuleSet compiles the name map in order: the rule string first, then the
// entries.
func (c *Config) RuleSet() (graph.RuleSet, error) {
	rules, err := graph.ParseRules(c.NameMap.Rules)
	if err != nil {
		return nil, err
	}
	for i, e := range c.NameMap.Entries {
		rule, err := graph.NewRule(e.Pattern, e.Replacement)
		if err != nil {
			return nil, fmt.Errorf("name_map.entries[%d]: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// CompileNamePattern compiles a filter regex that must match a whole module
// name. An empty pattern yields nil.
func CompileNamePattern(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	return regexp.Compile(`^(?:` + pattern + `)$`)
}
