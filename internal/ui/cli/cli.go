package cli

import (
	"depmanifest/internal/core/config"
	"depmanifest/internal/shared/util"
	"flag"
	"fmt"
	"strconv"
	"strings"
)

type cliOptions struct {
	configPath     string
	baseURLs       string
	encodings      string
	excludeReg     string
	includeReg     string
	nameMap        string
	output         string
	outputEncoding string
	fixModuleName  string
	watch          bool
	verbose        bool
	version        bool
	set            map[string]bool
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("depmanifest", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", "", "Path to TOML config file")
	fs.StringVar(&opts.baseURLs, "baseUrls", "", "Comma-separated source roots, scanned in order")
	fs.StringVar(&opts.encodings, "encodings", "", "Comma-separated encodings, one per root (default utf-8)")
	fs.StringVar(&opts.excludeReg, "excludeReg", "", "Skip modules whose whole name matches this regex")
	fs.StringVar(&opts.includeReg, "includeReg", "", "Keep only modules whose whole name matches this regex")
	fs.StringVar(&opts.nameMap, "nameMap", "", "Name map rules: pattern||replacement,,pattern||replacement")
	fs.StringVar(&opts.output, "output", "", "Manifest output path")
	fs.StringVar(&opts.outputEncoding, "outputEncoding", "", "Manifest output encoding (default utf-8)")
	fs.StringVar(&opts.fixModuleName, "fixModuleName", "", "Write path-derived module names back into their sources")
	fs.BoolVar(&opts.watch, "watch", false, "Rebuild the manifest when sources change")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	fs.BoolVar(&opts.version, "v", false, "Print version and exit (shorthand)")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if fs.NArg() > 0 {
		return cliOptions{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// applyOverrides layers explicitly set flags over cfg. -baseUrls replaces
// the configured roots; -encodings is matched to roots by position.
func applyOverrides(opts cliOptions, cfg *config.Config) error {
	if opts.set["baseUrls"] {
		roots := make([]config.Root, 0)
		for _, p := range util.SplitList(opts.baseURLs) {
			roots = append(roots, config.Root{Path: p})
		}
		cfg.Roots = roots
	}
	if opts.set["encodings"] {
		encodings := util.SplitList(opts.encodings)
		if len(encodings) > len(cfg.Roots) {
			return fmt.Errorf("-encodings lists %d encodings for %d roots", len(encodings), len(cfg.Roots))
		}
		for i, enc := range encodings {
			cfg.Roots[i].Encoding = enc
		}
	}
	if opts.set["excludeReg"] {
		cfg.Filter.Exclude = opts.excludeReg
	}
	if opts.set["includeReg"] {
		cfg.Filter.Include = opts.includeReg
	}
	if opts.set["nameMap"] {
		cfg.NameMap.Rules = opts.nameMap
		cfg.NameMap.Entries = nil
	}
	if opts.set["output"] {
		cfg.Output.Path = opts.output
	}
	if opts.set["outputEncoding"] {
		cfg.Output.Encoding = opts.outputEncoding
	}
	if opts.set["fixModuleName"] {
		cfg.FixModuleName = fixModuleNameEnabled(opts.fixModuleName)
	}
	if opts.set["watch"] {
		cfg.Watch.Enabled = opts.watch
	}
	return nil
}

// fixModuleNameEnabled treats any value as enabling except an explicit
// boolean false.
func fixModuleNameEnabled(value string) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
		return b
	}
	return true
}

func loadConfig(opts cliOptions) (*config.Config, error) {
	var cfg *config.Config
	if strings.TrimSpace(opts.configPath) != "" {
		decoded, err := config.Decode(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = decoded
	} else {
		cfg = config.DefaultConfig()
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	config.ApplyEnvOverrides(cfg)
	if err := applyOverrides(opts, cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	if err := config.Check(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
