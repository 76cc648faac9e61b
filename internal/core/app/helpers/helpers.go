package helpers

import (
	"depmanifest/internal/shared/util"
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

func CompileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// MatchesAny reports whether the base name of path matches one of globs.
func MatchesAny(globs []glob.Glob, path string) bool {
	base := filepath.Base(path)
	for _, g := range globs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// UniqueRoots drops repeated roots and keeps the first occurrence, so the
// configured scan order survives.
func UniqueRoots(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized := filepath.Clean(p)
		if abs, err := filepath.Abs(normalized); err == nil {
			normalized = filepath.Clean(abs)
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		roots = append(roots, p)
	}
	return roots
}

// WriteArtifact writes content to path in the given encoding, creating
// parent directories as needed.
func WriteArtifact(path, content, encoding string) error {
	if err := util.WriteFileEncoded(path, []byte(content), encoding); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}
