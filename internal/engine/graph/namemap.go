package graph

import (
	"depmanifest/internal/core/errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	ruleSeparator        = ",,"
	replacementSeparator = "||"
)

// Rule rewrites a module name that fully matches Pattern into Replacement.
// Replacement may reference capture groups as $1 or ${1}.
type Rule struct {
	Source      string
	Pattern     *regexp.Regexp
	Replacement string
}

// RuleSet is an ordered list of name-map rules; the first full match wins.
type RuleSet []Rule

var bareGroupRef = regexp.MustCompile(`\$(\d+)`)

// NewRule compiles pattern anchored at both ends. Numeric group references
// are bracketed so "$1-x" means group 1 followed by "-x".
func NewRule(pattern, replacement string) (Rule, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return Rule{}, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid name map pattern %q", pattern))
	}
	return Rule{
		Source:      pattern,
		Pattern:     re,
		Replacement: bareGroupRef.ReplaceAllString(replacement, "$${$1}"),
	}, nil
}

// ParseRules parses "pattern1||replacement1,,pattern2||replacement2".
// Empty input yields an empty RuleSet and empty entries, such as a trailing
// ",,", are skipped.
func ParseRules(spec string) (RuleSet, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	parts := strings.Split(spec, ruleSeparator)
	rules := make(RuleSet, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		pattern, replacement, ok := strings.Cut(part, replacementSeparator)
		if !ok {
			return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("name map entry %q is missing %q", part, replacementSeparator))
		}
		if strings.TrimSpace(pattern) == "" {
			return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("name map entry %q has an empty pattern", part))
		}
		rule, err := NewRule(pattern, replacement)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Canonicalize rewrites name with the first rule that fully matches it.
func (rs RuleSet) Canonicalize(name string) string {
	for _, rule := range rs {
		m := rule.Pattern.FindStringSubmatchIndex(name)
		if m == nil {
			continue
		}
		return string(rule.Pattern.ExpandString(nil, rule.Replacement, name, m))
	}
	return name
}

// CanonicalizeRequire canonicalizes a require entry. For raw entries only the
// text after the marker is rewritten.
func (rs RuleSet) CanonicalizeRequire(require string) string {
	if IsRaw(require) {
		return RawMarker + rs.Canonicalize(strings.TrimPrefix(require, RawMarker))
	}
	return rs.Canonicalize(require)
}
