package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DEPMANIFEST_ROOTS", "src/, lib/")
	t.Setenv("DEPMANIFEST_ENCODINGS", "gbk")
	t.Setenv("DEPMANIFEST_OUTPUT_PATH", "out/deps.js")
	t.Setenv("DEPMANIFEST_NAME_MAP_RULES", `(\w+)/.*||$1`)
	t.Setenv("DEPMANIFEST_FIX_MODULE_NAME", "false")
	t.Setenv("DEPMANIFEST_WATCH_DEBOUNCE", "250ms")
	t.Setenv("DEPMANIFEST_HISTORY_ENABLED", "true")
	t.Setenv("DEPMANIFEST_OBSERVABILITY_METRICS_ADDR", "127.0.0.1:9464")

	cfg := DefaultConfig()
	cfg.FixModuleName = true
	ApplyEnvOverrides(cfg)

	assert.Equal(t, []Root{{Path: "src/", Encoding: "gbk"}, {Path: "lib/"}}, cfg.Roots)
	assert.Equal(t, "out/deps.js", cfg.Output.Path)
	assert.Equal(t, `(\w+)/.*||$1`, cfg.NameMap.Rules)
	assert.False(t, cfg.FixModuleName)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "127.0.0.1:9464", cfg.Observability.MetricsAddr)
}

func TestApplyEnvOverridesIgnoresInvalidValues(t *testing.T) {
	t.Setenv("DEPMANIFEST_WATCH_ENABLED", "sometimes")
	t.Setenv("DEPMANIFEST_WATCH_MIN_INTERVAL", "soon")

	cfg := DefaultConfig()
	before := cfg.Watch
	ApplyEnvOverrides(cfg)
	assert.Equal(t, before, cfg.Watch)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DEPMANIFEST_OUTPUT_ENCODING=gbk\nDEPMANIFEST_OUTPUT_PATH=from-file.js\n"), 0o644))
	t.Setenv("DEPMANIFEST_OUTPUT_PATH", "from-env.js")
	// Registered so the variable loaded from the file is cleaned up.
	t.Setenv("DEPMANIFEST_OUTPUT_ENCODING", "")
	require.NoError(t, os.Unsetenv("DEPMANIFEST_OUTPUT_ENCODING"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)
	assert.Equal(t, "gbk", cfg.Output.Encoding)
	assert.Equal(t, "from-env.js", cfg.Output.Path, "existing variables are not overwritten")
}
