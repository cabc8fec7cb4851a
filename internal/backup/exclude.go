package backup

import (
	"path/filepath"
	"strings"
)

const extensionRulePrefix = "*."

// ExclusionRule suppresses files from an archive. A rule is either a literal
// file name or an extension wildcard written as "*.<ext>".
type ExclusionRule struct {
	pattern   string
	extension string
	literal   bool
}

// ParseExclusionRule builds a rule from a raw pattern.
func ParseExclusionRule(pattern string) ExclusionRule {
	if strings.HasPrefix(pattern, extensionRulePrefix) {
		return ExclusionRule{
			pattern:   pattern,
			extension: strings.TrimPrefix(pattern, extensionRulePrefix),
		}
	}
	return ExclusionRule{pattern: pattern, literal: true}
}

// CompileExclusionRules parses every non-blank pattern.
func CompileExclusionRules(patterns []string) []ExclusionRule {
	if len(patterns) == 0 {
		return nil
	}
	rules := make([]ExclusionRule, 0, len(patterns))
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		rules = append(rules, ParseExclusionRule(p))
	}
	return rules
}

// String returns the original pattern.
func (r ExclusionRule) String() string {
	return r.pattern
}

// IsExtensionRule reports whether the rule matches by extension.
func (r ExclusionRule) IsExtensionRule() bool {
	return !r.literal
}

// Matches reports whether the rule applies to name. Only the base name is
// considered and matching is case-sensitive.
func (r ExclusionRule) Matches(name string) bool {
	base := filepath.Base(name)
	if r.literal {
		return base == r.pattern
	}
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return false
	}
	return base[dot+1:] == r.extension
}

// IsExcluded reports whether any rule matches name.
func IsExcluded(name string, rules []ExclusionRule) bool {
	for _, rule := range rules {
		if rule.Matches(name) {
			return true
		}
	}
	return false
}
