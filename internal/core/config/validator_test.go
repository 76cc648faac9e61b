package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Roots = []Root{{Path: t.TempDir()}}
	cfg.Output.Path = filepath.Join(t.TempDir(), "deps.js")
	Normalize(cfg)
	return cfg
}

func containsError(errs []error, substr string) bool {
	for _, err := range errs {
		if err != nil && strings.Contains(err.Error(), substr) {
			return true
		}
	}
	return false
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig(t)
	assert.Empty(t, Validate(cfg))
	assert.NoError(t, Check(cfg))
}

func TestValidateRequiresRootsAndOutput(t *testing.T) {
	cfg := DefaultConfig()
	errs := Validate(cfg)
	assert.True(t, containsError(errs, "at least one root is required"), "%v", errs)
	assert.True(t, containsError(errs, "output.path must not be empty"), "%v", errs)
}

func TestValidateRoots(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "file.js")
	require.NoError(t, os.WriteFile(file, []byte(""), 0o644))

	cfg.Roots = append(cfg.Roots,
		Root{Path: "/non/existent/path", Encoding: "utf-8"},
		Root{Path: file, Encoding: "utf-8"},
		Root{Path: cfg.Roots[0].Path, Encoding: "klingon"},
	)
	errs := Validate(cfg)
	assert.True(t, containsError(errs, `roots[1] "/non/existent/path" does not exist`), "%v", errs)
	assert.True(t, containsError(errs, "is not a directory"), "%v", errs)
	assert.True(t, containsError(errs, "duplicate root"), "%v", errs)
	assert.True(t, containsError(errs, "roots[3].encoding"), "%v", errs)
}

func TestValidateFilters(t *testing.T) {
	cfg := validConfig(t)
	cfg.Filter.Include = "dom("
	errs := Validate(cfg)
	assert.True(t, containsError(errs, "filter.include"), "%v", errs)
}

func TestValidateOutputConflicts(t *testing.T) {
	cfg := validConfig(t)
	cfg.Output.DOT = "graph.dot"
	cfg.Output.TSV = "graph.dot"
	errs := Validate(cfg)
	assert.True(t, containsError(errs, `output conflict: output.dot and output.tsv share the same path "graph.dot"`), "%v", errs)
}

func TestValidateLanguages(t *testing.T) {
	cfg := validConfig(t)
	off := false
	cfg.Languages["javascript"] = Language{Enabled: &off, Extensions: []string{".js"}}
	errs := Validate(cfg)
	assert.True(t, containsError(errs, "at least one language must be enabled"), "%v", errs)

	cfg = validConfig(t)
	on := true
	cfg.Languages["coffee"] = Language{Enabled: &on, Extensions: []string{".coffee"}}
	errs = Validate(cfg)
	assert.True(t, containsError(errs, "languages.coffee"), "%v", errs)

	cfg = validConfig(t)
	cfg.Languages["javascript"] = Language{Enabled: &on, Extensions: []string{"js"}}
	errs = Validate(cfg)
	assert.True(t, containsError(errs, "must start with '.'"), "%v", errs)
}

func TestValidateExcludeGlobs(t *testing.T) {
	cfg := validConfig(t)
	cfg.Exclude.Files = []string{"[unterminated"}
	errs := Validate(cfg)
	assert.True(t, containsError(errs, "invalid exclude file pattern"), "%v", errs)
}

func TestValidateHistory(t *testing.T) {
	cfg := validConfig(t)
	cfg.History.Enabled = true
	cfg.History.Path = cfg.Output.Path
	errs := Validate(cfg)
	assert.True(t, containsError(errs, "history.path must differ from output.path"), "%v", errs)
}
