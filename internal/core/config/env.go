package config

import (
	"depmanifest/internal/shared/util"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix starts every environment override, e.g. DEPMANIFEST_OUTPUT_PATH.
const EnvPrefix = "DEPMANIFEST_"

// LoadDotEnv loads variables from the given .env files into the process
// environment without overwriting variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Pattern: DEPMANIFEST_[SECTION]_[KEY].
func ApplyEnvOverrides(cfg *Config) {
	// Roots are a comma-separated list, matched to encodings by position.
	if val, ok := lookupEnv("ROOTS"); ok {
		roots := make([]Root, 0)
		for _, p := range util.SplitList(val) {
			roots = append(roots, Root{Path: p})
		}
		cfg.Roots = roots
	}
	if val, ok := lookupEnv("ENCODINGS"); ok {
		for i, enc := range util.SplitList(val) {
			if i < len(cfg.Roots) {
				cfg.Roots[i].Encoding = enc
			}
		}
	}

	setEnvString(&cfg.Filter.Include, "FILTER_INCLUDE")
	setEnvString(&cfg.Filter.Exclude, "FILTER_EXCLUDE")
	setEnvString(&cfg.NameMap.Rules, "NAME_MAP_RULES")

	setEnvString(&cfg.Output.Path, "OUTPUT_PATH")
	setEnvString(&cfg.Output.Encoding, "OUTPUT_ENCODING")
	setEnvString(&cfg.Output.DOT, "OUTPUT_DOT")
	setEnvString(&cfg.Output.TSV, "OUTPUT_TSV")
	setEnvBool(&cfg.FixModuleName, "FIX_MODULE_NAME")

	// Watch
	setEnvBool(&cfg.Watch.Enabled, "WATCH_ENABLED")
	setEnvDuration(&cfg.Watch.Debounce, "WATCH_DEBOUNCE")
	setEnvDuration(&cfg.Watch.MinInterval, "WATCH_MIN_INTERVAL")

	// History
	setEnvBool(&cfg.History.Enabled, "HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "HISTORY_PATH")
	setEnvString(&cfg.History.ProjectKey, "HISTORY_PROJECT_KEY")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "OBSERVABILITY_OTLP_ENDPOINT")
}

func lookupEnv(key string) (string, bool) {
	val, ok := os.LookupEnv(EnvPrefix + key)
	if ok {
		slog.Debug("applying env override", "key", EnvPrefix+key)
	}
	return val, ok
}

func setEnvString(target *string, key string) {
	if val, ok := lookupEnv(key); ok {
		*target = val
	}
}

func setEnvBool(target *bool, key string) {
	val, ok := lookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		slog.Warn("ignoring invalid boolean env override", "key", EnvPrefix+key, "value", val)
		return
	}
	*target = b
}

func setEnvDuration(target *time.Duration, key string) {
	val, ok := lookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		slog.Warn("ignoring invalid duration env override", "key", EnvPrefix+key, "value", val)
		return
	}
	*target = d
}
