package graph

// Merge canonicalizes every key and require of g through rules and folds
// entries that land on the same canonical name into one list. Self references
// created by canonicalization are dropped and duplicates are not appended
// twice.
//
// Source keys are visited in map order, so the set of requires per key is
// stable but the relative order of entries contributed by different source
// keys is not.
func Merge(g *DependencyGraph, rules RuleSet) *DependencyGraph {
	out := NewDependencyGraph()
	for name, requires := range g.requires {
		canonical := rules.Canonicalize(name)
		mapped := make([]string, 0, len(requires))
		for _, r := range requires {
			mapped = append(mapped, rules.CanonicalizeRequire(r))
		}
		out.Fold(canonical, mapped)
	}
	return out
}
