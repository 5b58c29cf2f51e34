package ignore

import "testing"

func TestIsIgnoredGlob(t *testing.T) {
	m := New(map[string][]string{
		"phantom-package": {"**/vendor-manifests/**"},
		"magic-number":    {"*.generated.go"},
	})

	if !m.IsIgnored("phantom-package", "pkg/vendor-manifests/package.json") {
		t.Error("expected ** pattern to match nested path")
	}
	if m.IsIgnored("phantom-package", "pkg/package.json") {
		t.Error("did not expect unrelated path to match")
	}
	if !m.IsIgnored("magic-number", "deep/nested/types.generated.go") {
		t.Error("expected basename-fallback pattern to match anywhere in the tree")
	}
	if m.IsIgnored("unused-export", "anything.go") {
		t.Error("rule with no configured patterns must never be ignored")
	}
}

func TestIsIgnoredCachesResult(t *testing.T) {
	m := New(map[string][]string{"rule": {"**/*.tmp"}})
	first := m.IsIgnored("rule", "a/b/c.tmp")
	second := m.IsIgnored("rule", "a/b/c.tmp")
	if first != second || !first {
		t.Fatal("expected stable cached result")
	}
}
