// Package ignore implements the per-(rule-id, file-path) suppression
// matcher described in §4.G: a rule is suppressed for a file when any
// configured glob for that rule-id matches the path, using "**" for
// any sub-path, "*" for a single path segment, and a basename fallback
// so a bare filename matches anywhere in the tree.
package ignore

import (
	"path"
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"slopcheck/internal/shared/util"
)

type compiledPattern struct {
	raw  string
	glob glob.Glob
}

// Matcher answers IsIgnored(ruleID, path) against a fixed rule configuration.
type Matcher struct {
	mu       sync.Mutex
	patterns map[string][]compiledPattern
	cache    map[string]map[string]bool
}

// New compiles the ignoreRules mapping (rule-id -> glob patterns) from §6.
func New(ignoreRules map[string][]string) *Matcher {
	m := &Matcher{
		patterns: make(map[string][]compiledPattern, len(ignoreRules)),
		cache:    make(map[string]map[string]bool),
	}
	for ruleID, patterns := range ignoreRules {
		compiled := make([]compiledPattern, 0, len(patterns))
		for _, p := range patterns {
			norm := util.NormalizePatternPath(p)
			if norm == "" {
				continue
			}
			g, err := glob.Compile(norm, '/')
			if err != nil {
				continue
			}
			compiled = append(compiled, compiledPattern{raw: norm, glob: g})
		}
		if len(compiled) > 0 {
			m.patterns[ruleID] = compiled
		}
	}
	return m
}

// IsIgnored reports whether ruleID is suppressed for filePath, which must be
// relative to the scan root (§4.G: "matching is always relative to the scan
// root").
func (m *Matcher) IsIgnored(ruleID, filePath string) bool {
	if m == nil {
		return false
	}
	patterns, ok := m.patterns[ruleID]
	if !ok || len(patterns) == 0 {
		return false
	}

	m.mu.Lock()
	if byPath, ok := m.cache[ruleID]; ok {
		if result, ok := byPath[filePath]; ok {
			m.mu.Unlock()
			return result
		}
	}
	m.mu.Unlock()

	normPath := util.NormalizePatternPath(filePath)
	base := path.Base(normPath)
	result := false
	for _, p := range patterns {
		if p.glob.Match(normPath) {
			result = true
			break
		}
		// Basename fallback: a bare filename pattern (no separators, no
		// wildcard segments beyond the name itself) matches anywhere.
		if !strings.Contains(p.raw, "/") && p.glob.Match(base) {
			result = true
			break
		}
	}

	m.mu.Lock()
	if m.cache[ruleID] == nil {
		m.cache[ruleID] = make(map[string]bool)
	}
	m.cache[ruleID][filePath] = result
	m.mu.Unlock()

	return result
}
