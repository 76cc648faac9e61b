package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"depmanifest/internal/core/config"
	"depmanifest/internal/core/errors"
	"depmanifest/internal/output"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestApp(t *testing.T, roots []string, mutate func(*config.Config)) (*App, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	for _, r := range roots {
		cfg.Roots = append(cfg.Roots, config.Root{Path: r})
	}
	cfg.Output.Path = filepath.Join(t.TempDir(), "out", "deps.js")
	if mutate != nil {
		mutate(cfg)
	}
	config.Normalize(cfg)

	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, cfg
}

func readManifestBody(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.HasPrefix(text, output.ManifestPrologue), text)
	require.True(t, strings.HasSuffix(text, output.ManifestEpilogue), text)
	return strings.TrimSuffix(strings.TrimPrefix(text, output.ManifestPrologue), output.ManifestEpilogue)
}

func TestRunFoldsModulesThroughNameMap(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "dom", "base.js"),
		`KISSY.add("dom/base", function (S, UA) {}, {requires: ["ua", "dom/base"]});`)
	writeSource(t, filepath.Join(root, "dom", "event.js"),
		`KISSY.add(function (S) {}, {requires: ["dom/base", "./traversal"]});`)
	writeSource(t, filepath.Join(root, "overlay.js"),
		`KISSY.add("overlay", function (S) {}, {requires: ["dom/base", S.UA.ie ? 'ie' : 'w3c']});`)
	writeSource(t, filepath.Join(root, "plain.js"), `var notAModule = 1;`)

	a, cfg := newTestApp(t, []string{root}, func(cfg *config.Config) {
		cfg.NameMap.Rules = `(\w+)(/.*)?||$1`
	})

	result, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Stats.Files)
	assert.Equal(t, 3, result.Stats.Declarations)
	assert.Equal(t, 2, result.Modules)
	assert.Equal(t, cfg.Output.Path, result.OutputPath)

	body := readManifestBody(t, cfg.Output.Path)
	assert.Equal(t, "'dom': {requires: ['ua']},\n'overlay': {requires: ['dom',S.UA.ie ? 'ie' : 'w3c']}", body)
}

func TestRunWithoutRulesKeepsNames(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "dom", "event.js"),
		`KISSY.add(function (S) {}, {requires: ["dom/base", "./traversal", "../ua"]});`)
	writeSource(t, filepath.Join(root, "empty.js"),
		`KISSY.add("empty", function (S) {}, {requires: []});`)

	a, cfg := newTestApp(t, []string{root}, nil)
	_, err := a.Run(context.Background())
	require.NoError(t, err)

	body := readManifestBody(t, cfg.Output.Path)
	assert.Equal(t, "'dom/event': {requires: ['dom/base','dom/traversal','ua']}", body)
}

func TestRunSyntaxErrorWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "a.js"), `KISSY.add("a", function () {}, {requires: ["b"]});`)
	writeSource(t, filepath.Join(root, "broken.js"), `KISSY.add("broken", function ( {`)

	a, cfg := newTestApp(t, []string{root}, nil)
	_, err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeSyntaxError))

	_, statErr := os.Stat(cfg.Output.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildLaterRootWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeSource(t, filepath.Join(first, "a.js"), `KISSY.add("a", function () {}, {requires: ["one"]});`)
	writeSource(t, filepath.Join(second, "a.js"), `KISSY.add("a", function () {}, {requires: ["two"]});`)

	a, _ := newTestApp(t, []string{first, second}, nil)
	g, stats, err := a.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Recorded)
	assert.Equal(t, []string{"two"}, g.Requires("a"))
}

func TestBuildNestedRootsUseDeepestRoot(t *testing.T) {
	base := t.TempDir()
	nested := filepath.Join(base, "sub")
	writeSource(t, filepath.Join(nested, "x.js"), `KISSY.add(function () {}, {requires: ["y"]});`)

	a, _ := newTestApp(t, []string{base, nested}, nil)
	g, _, err := a.Build(context.Background())
	require.NoError(t, err)

	// Both roots walk x.js; either way the nested root names it.
	assert.Equal(t, []string{"x"}, g.Modules())
	assert.Equal(t, []string{"y"}, g.Requires("x"))
}

func TestBuildNestedRootsDecodeWithEachRootEncoding(t *testing.T) {
	base := t.TempDir()
	nested := filepath.Join(base, "sub")
	// "\xd6\xd0" is 中 in GBK.
	writeSource(t, filepath.Join(nested, "x.js"), "KISSY.add(function () {}, {requires: [\"\xd6\xd0\"]});")

	a, _ := newTestApp(t, []string{base, nested}, func(cfg *config.Config) {
		cfg.Roots[0].Encoding = "utf-8"
		cfg.Roots[1].Encoding = "gbk"
	})
	g, stats, err := a.Build(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.CacheHits)
	assert.Equal(t, []string{"中"}, g.Requires("x"))

	// A rebuild hits the cache per encoding and keeps the gbk result.
	g, stats, err = a.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CacheHits)
	assert.Equal(t, []string{"中"}, g.Requires("x"))
}

func TestBuildFiltersExcludeWins(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "dom.js"), `KISSY.add("dom", function () {}, {requires: ["ua"]});`)
	writeSource(t, filepath.Join(root, "dom-test.js"), `KISSY.add("dom-test", function () {}, {requires: ["dom"]});`)
	writeSource(t, filepath.Join(root, "event.js"), `KISSY.add("event", function () {}, {requires: ["dom"]});`)

	a, _ := newTestApp(t, []string{root}, func(cfg *config.Config) {
		cfg.Filter.Include = "dom.*"
		cfg.Filter.Exclude = ".*-test"
	})
	g, stats, err := a.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dom"}, g.Modules())
	assert.Equal(t, 2, stats.Filtered)
}

func TestNameAllowedRequiresFullMatch(t *testing.T) {
	a, _ := newTestApp(t, []string{t.TempDir()}, func(cfg *config.Config) {
		cfg.Filter.Include = "dom"
	})
	assert.True(t, a.NameAllowed("dom"))
	assert.False(t, a.NameAllowed("dom/base"))
}

func TestBuildUnresolvedNameContinues(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, ".js"), `KISSY.add(function () {}, {requires: ["a"]});`)
	writeSource(t, filepath.Join(root, "ok.js"), `KISSY.add("ok", function () {}, {requires: ["a"]});`)

	a, _ := newTestApp(t, []string{root}, nil)
	g, stats, err := a.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unresolved)
	assert.Equal(t, []string{"ok"}, g.Modules())
}

func TestBuildExcludesDirsAndFiles(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "build", "a.js"), `KISSY.add("a", function () {}, {requires: ["x"]});`)
	writeSource(t, filepath.Join(root, "b-min.js"), `KISSY.add("b",function(){},{requires:["x"]});`)
	writeSource(t, filepath.Join(root, "c.js"), `KISSY.add("c", function () {}, {requires: ["x"]});`)
	writeSource(t, filepath.Join(root, "d.ts"), `KISSY.add("d", function () {}, {requires: ["x"]});`)

	a, _ := newTestApp(t, []string{root}, func(cfg *config.Config) {
		cfg.Exclude.Dirs = []string{"build"}
		cfg.Exclude.Files = []string{"*-min.js"}
	})
	g, stats, err := a.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, []string{"c"}, g.Modules())
}

func TestFixModuleNameWritesBack(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "overlay", "dialog.js")
	writeSource(t, path, `KISSY.add(function (S) {}, {requires: ["overlay/base"]});`)

	a, cfg := newTestApp(t, []string{root}, func(cfg *config.Config) {
		cfg.FixModuleName = true
	})
	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.FixedNames)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `KISSY.add('overlay/dialog', function (S) {}, {requires: ["overlay/base"]});`, string(data))
	assert.Equal(t, "'overlay/dialog': {requires: ['overlay/base']}", readManifestBody(t, cfg.Output.Path))

	// The second pass sees a declared name and leaves the file alone.
	result, err = a.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Stats.FixedNames)
}

func TestFixModuleNameReplacesEmptyName(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.js")
	writeSource(t, path, `KISSY.add('', function (S) {}, {requires: ["b"]});`)

	a, cfg := newTestApp(t, []string{root}, func(cfg *config.Config) {
		cfg.FixModuleName = true
	})
	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.FixedNames)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `KISSY.add('a', function (S) {}, {requires: ["b"]});`, string(data))
	assert.Equal(t, "'a': {requires: ['b']}", readManifestBody(t, cfg.Output.Path))
}

func TestRunReusesCachedResults(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "a.js"), `KISSY.add("a", function () {}, {requires: ["b"]});`)
	writeSource(t, filepath.Join(root, "b.js"), `KISSY.add("b", function () {}, {requires: ["c"]});`)

	a, _ := newTestApp(t, []string{root}, nil)
	first, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, first.Stats.CacheHits)

	second, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Stats.CacheHits)
	assert.Equal(t, first.Modules, second.Modules)
}

func TestRunWritesOptionalRenderings(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "a.js"), `KISSY.add("a", function () {}, {requires: ["b"]});`)
	outDir := t.TempDir()

	a, _ := newTestApp(t, []string{root}, func(cfg *config.Config) {
		cfg.Output.DOT = filepath.Join(outDir, "graph.dot")
		cfg.Output.TSV = filepath.Join(outDir, "deps.tsv")
	})
	_, err := a.Run(context.Background())
	require.NoError(t, err)

	dot, err := os.ReadFile(filepath.Join(outDir, "graph.dot"))
	require.NoError(t, err)
	assert.Contains(t, string(dot), `"a" -> "b"`)

	tsv, err := os.ReadFile(filepath.Join(outDir, "deps.tsv"))
	require.NoError(t, err)
	assert.Contains(t, string(tsv), "a\tb\tmodule\t0")
}

func TestRunReportsCycles(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "a.js"), `KISSY.add("a", function () {}, {requires: ["b"]});`)
	writeSource(t, filepath.Join(root, "b.js"), `KISSY.add("b", function () {}, {requires: ["a"]});`)

	a, _ := newTestApp(t, []string{root}, nil)
	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Cycles)
}

func TestRunRecordsHistory(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "a.js"), `KISSY.add("a", function () {}, {requires: ["b", "c"]});`)

	a, _ := newTestApp(t, []string{root}, func(cfg *config.Config) {
		cfg.History.Enabled = true
		cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
		cfg.History.ProjectKey = "kissy"
	})
	var handled RunResult
	a.SetRunHandler(func(r RunResult) { handled = r })

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)
	assert.Equal(t, result.RunID, handled.RunID)

	assert.Nil(t, result.Previous)

	snapshots, err := a.history.LoadSnapshots("kissy", time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, result.RunID, snapshots[0].RunID)
	assert.Equal(t, 1, snapshots[0].ModuleCount)
	assert.Equal(t, 2, snapshots[0].EdgeCount)

	writeSource(t, filepath.Join(root, "b.js"), `KISSY.add("b", function () {}, {requires: ["c"]});`)
	second, err := a.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, second.Previous)
	assert.Equal(t, result.RunID, second.Previous.RunID)
	assert.Equal(t, 1, second.Previous.ModuleCount)
	assert.Equal(t, 2, second.Modules)
}

func TestRunHonorsCanceledContext(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "a.js"), `KISSY.add("a", function () {}, {requires: ["b"]});`)

	a, cfg := newTestApp(t, []string{root}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(cfg.Output.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestHandleChangesRebuilds(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.js")
	writeSource(t, path, `KISSY.add("a", function () {}, {requires: ["b"]});`)

	a, cfg := newTestApp(t, []string{root}, nil)
	_, err := a.Run(context.Background())
	require.NoError(t, err)

	writeSource(t, path, `KISSY.add("a", function () {}, {requires: ["c"]});`)
	a.HandleChanges(context.Background(), []string{path})

	assert.Equal(t, "'a': {requires: ['c']}", readManifestBody(t, cfg.Output.Path))
}
