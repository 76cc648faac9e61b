package config

import (
	"bytes"
	"depmanifest/internal/core/errors"
	"depmanifest/internal/shared/util"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load decodes, defaults and validates the config at path.
func Load(path string) (*Config, error) {
	cfg, err := Decode(path)
	if err != nil {
		return nil, err
	}
	if err := Check(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode reads the config file at path and applies defaults without
// validating, so environment and command-line overrides can be layered on
// before Check. Files ending in .yaml or .yml are read as YAML, anything
// else as TOML.
func Decode(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := decodeBytes(path, data, &cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}

	applyDefaults(&cfg)
	Normalize(&cfg)
	return &cfg, nil
}

func decodeBytes(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to the zero config.
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return err
		}
		return nil
	default:
		_, err := toml.Decode(string(data), cfg)
		return err
	}
}

// Check runs Validate and reports the first problem as a VALIDATION_ERROR.
func Check(cfg *Config) error {
	errs := Validate(cfg)
	if len(errs) == 0 {
		return nil
	}
	return errors.Wrap(errs[0], errors.CodeValidationError, "invalid configuration")
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Output.Encoding) == "" {
		cfg.Output.Encoding = util.DefaultEncoding
	}

	defaults := map[string]Language{
		"javascript": {Enabled: boolPtr(true), Extensions: []string{".js"}},
		"typescript": {Enabled: boolPtr(false), Extensions: []string{".ts"}},
	}
	if cfg.Languages == nil {
		cfg.Languages = make(map[string]Language, len(defaults))
	}
	for name, def := range defaults {
		lang, ok := cfg.Languages[name]
		if !ok {
			cfg.Languages[name] = def
			continue
		}
		if lang.Enabled == nil {
			lang.Enabled = boolPtr(true)
		}
		if len(lang.Extensions) == 0 {
			lang.Extensions = def.Extensions
		}
		cfg.Languages[name] = lang
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", ".svn"}
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MinInterval == 0 {
		cfg.Watch.MinInterval = time.Second
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "data/state/history.db"
	}
	if strings.TrimSpace(cfg.History.ProjectKey) == "" {
		cfg.History.ProjectKey = "default"
	}
}

// Normalize trims values, fills missing root encodings and strips whitespace
// from the name filters. It is safe to call more than once.
func Normalize(cfg *Config) {
	for i := range cfg.Roots {
		root := &cfg.Roots[i]
		root.Path = strings.TrimSpace(root.Path)
		root.Encoding = strings.TrimSpace(root.Encoding)
		if root.Encoding == "" {
			root.Encoding = util.DefaultEncoding
		}
	}
	cfg.Filter.Include = util.StripWhitespace(cfg.Filter.Include)
	cfg.Filter.Exclude = util.StripWhitespace(cfg.Filter.Exclude)
	cfg.NameMap.Rules = strings.TrimSpace(cfg.NameMap.Rules)
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
	cfg.Output.Encoding = strings.TrimSpace(cfg.Output.Encoding)
	if cfg.Output.Encoding == "" {
		cfg.Output.Encoding = util.DefaultEncoding
	}
	cfg.Output.DOT = strings.TrimSpace(cfg.Output.DOT)
	cfg.Output.TSV = strings.TrimSpace(cfg.Output.TSV)
	cfg.History.Path = strings.TrimSpace(cfg.History.Path)
	cfg.Observability.MetricsAddr = strings.TrimSpace(cfg.Observability.MetricsAddr)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
}

func boolPtr(v bool) *bool { return &v }
