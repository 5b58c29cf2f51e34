package architecture

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slopcheck/internal/core/types"
	"slopcheck/internal/engine/graph"
	"slopcheck/internal/rules"
)

func readerFor(files map[string]string) rules.ReadFileFunc {
	return func(path string) ([]byte, error) {
		content, ok := files[path]
		if !ok {
			return nil, errNotFound(path)
		}
		return []byte(content), nil
	}
}

type errNotFound string

func (e errNotFound) Error() string { return "not found: " + string(e) }

func hasRule(alerts []types.Alert, ruleID string) bool {
	for _, a := range alerts {
		if a.RuleID == ruleID {
			return true
		}
	}
	return false
}

func TestDetectMagicNumber(t *testing.T) {
	src := "function computeFee(x) {\n  return x * 47 + 3\n}\n"
	alerts := detectMagicNumbers(types.FileRecord{Path: "/proj/a.js", Language: types.LangJavaScript}, src, "architecture")
	require.True(t, hasRule(alerts, "magic-number"))
}

func TestDetectMagicNumberIgnoresSafeSet(t *testing.T) {
	src := "function bump(x) {\n  return x + 1\n}\n"
	alerts := detectMagicNumbers(types.FileRecord{Path: "/proj/a.js", Language: types.LangJavaScript}, src, "architecture")
	assert.False(t, hasRule(alerts, "magic-number"))
}

func TestDetectMagicNumberSkipsStringLiterals(t *testing.T) {
	src := "const msg = \"error code 4291\"\n"
	alerts := detectMagicNumbers(types.FileRecord{Path: "/proj/a.js", Language: types.LangJavaScript}, src, "architecture")
	assert.False(t, hasRule(alerts, "magic-number"))
}

func TestDetectMagicNumberSkipsDeclarations(t *testing.T) {
	src := "const MAX_RETRIES = 47\n"
	alerts := detectMagicNumbers(types.FileRecord{Path: "/proj/a.js", Language: types.LangJavaScript}, src, "architecture")
	assert.False(t, hasRule(alerts, "magic-number"))
}

func TestDetectMixedNaming(t *testing.T) {
	src := "const userName = getUserId(user_id)\n"
	alerts := detectMixedNaming(types.FileRecord{Path: "/proj/a.ts"}, src, "architecture")
	require.True(t, hasRule(alerts, "mixed-naming"))
}

func TestDetectMixedNamingSkipsInterfaceBlock(t *testing.T) {
	src := "interface Foo {\n  user_id: string\n  userName: string\n}\n"
	alerts := detectMixedNaming(types.FileRecord{Path: "/proj/a.ts"}, src, "architecture")
	assert.False(t, hasRule(alerts, "mixed-naming"))
}

func TestDetectGodFunction(t *testing.T) {
	var b strings.Builder
	b.WriteString("function doEverything(x) {\n")
	for i := 0; i < 60; i++ {
		b.WriteString("  if (x > 1) { x = x + 1 } else if (x < 1 || x == 2 && x != 3) { x = x - 1 }\n")
	}
	b.WriteString("}\n")
	alerts := detectGodFunctions(types.FileRecord{Path: "/proj/a.js", Language: types.LangJavaScript}, b.String(),
		types.ArchitectureConfig{CyclomaticComplexityThreshold: 25, LinesOfCodeThreshold: 50}, "architecture")
	require.True(t, hasRule(alerts, "god-function"))
}

func TestDetectGodFunctionBelowThreshold(t *testing.T) {
	src := "function small(x) {\n  if (x > 1) {\n    return x\n  }\n  return 0\n}\n"
	alerts := detectGodFunctions(types.FileRecord{Path: "/proj/a.js", Language: types.LangJavaScript}, src,
		types.ArchitectureConfig{CyclomaticComplexityThreshold: 25, LinesOfCodeThreshold: 100}, "architecture")
	assert.False(t, hasRule(alerts, "god-function"))
}

func buildGraph(nodes map[string]types.ImportNode) *graph.Graph {
	order := make([]string, 0, len(nodes))
	for k := range nodes {
		order = append(order, k)
	}
	return graph.Build("/proj", nodes, order)
}

func TestCircularDependency(t *testing.T) {
	nodes := map[string]types.ImportNode{
		"/proj/a.ts": {File: "/proj/a.ts", Imports: []string{"./b"}, Symbols: map[string][]string{"./b": {"default"}}},
		"/proj/b.ts": {File: "/proj/b.ts", Imports: []string{"./a"}, Symbols: map[string][]string{"./a": {"default"}}},
	}
	g := buildGraph(nodes)
	in := rules.Input{Root: "/proj", Graph: g, Config: types.DefaultConfig()}
	alerts := New().Analyze(context.Background(), in)
	require.True(t, hasRule(alerts, "circular-dependency"))
}

func TestUnusedExport(t *testing.T) {
	nodes := map[string]types.ImportNode{
		"/proj/a.ts": {File: "/proj/a.ts", Exports: []string{"helper", "unused"}},
		"/proj/b.ts": {File: "/proj/b.ts", Imports: []string{"./a"}, Symbols: map[string][]string{"./a": {"helper"}}},
	}
	g := buildGraph(nodes)
	in := rules.Input{
		Root:     "/proj",
		Graph:    g,
		Files:    []types.FileRecord{{Path: "/proj/a.ts", IsSource: true}, {Path: "/proj/b.ts", IsSource: true}},
		ReadFile: readerFor(map[string]string{"/proj/a.ts": "", "/proj/b.ts": ""}),
		Config:   types.DefaultConfig(),
	}
	alerts := New().Analyze(context.Background(), in)
	require.True(t, hasRule(alerts, "unused-export"))
	for _, a := range alerts {
		if a.RuleID == "unused-export" {
			assert.Contains(t, a.Message, "unused")
		}
	}
}
