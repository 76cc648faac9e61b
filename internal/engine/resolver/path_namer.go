package resolver

import (
	"path"
	"strings"
)

// PathNamer derives a module name from a file's location below one of the
// configured roots.
type PathNamer struct {
	roots    []string
	suffixes []string
}

// NewPathNamer takes the roots in configured order and the naming suffixes
// (source extensions) stripped from the end of a derived name.
func NewPathNamer(roots []string, suffixes []string) *PathNamer {
	n := &PathNamer{}
	for _, r := range roots {
		if r = normalizeSeparators(r); r != "" {
			n.roots = append(n.roots, r)
		}
	}
	for _, s := range suffixes {
		if s = strings.TrimSpace(s); s != "" {
			n.suffixes = append(n.suffixes, s)
		}
	}
	return n
}

// MatchRoot returns the root whose text first occurs at the greatest offset in
// filePath, with the longer root winning ties, and that offset.
func (n *PathNamer) MatchRoot(filePath string) (string, int, bool) {
	filePath = normalizeSeparators(filePath)
	best, bestIdx := "", -1
	for _, root := range n.roots {
		idx := strings.Index(filePath, root)
		if idx < 0 {
			continue
		}
		if idx > bestIdx || (idx == bestIdx && len(root) > len(best)) {
			best, bestIdx = root, idx
		}
	}
	return best, bestIdx, bestIdx >= 0
}

// ModuleName strips everything up to the end of the matched root and then
// the naming suffix. It returns false when no root matches or nothing is
// left.
func (n *PathNamer) ModuleName(filePath string) (string, bool) {
	root, idx, ok := n.MatchRoot(filePath)
	if !ok {
		return "", false
	}
	rel := normalizeSeparators(filePath)[idx+len(root):]
	rel = strings.TrimLeft(rel, "/")
	for _, suffix := range n.suffixes {
		if strings.HasSuffix(strings.ToLower(rel), strings.ToLower(suffix)) {
			rel = rel[:len(rel)-len(suffix)]
			break
		}
	}
	if rel == "" {
		return "", false
	}
	return rel, true
}

func normalizeSeparators(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	trailing := strings.HasSuffix(p, "/")
	p = path.Clean(p)
	if trailing && p != "/" {
		p += "/"
	}
	return p
}
