package cost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slopcheck/internal/core/types"
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

func analyze(t *testing.T, path, src string) []types.Alert {
	t.Helper()
	in := rules.Input{
		Root:     "/proj",
		Files:    []types.FileRecord{{Path: path, Language: types.LangJavaScript, IsSource: true}},
		ReadFile: readerFor(map[string]string{path: src}),
		Config:   types.DefaultConfig(),
	}
	return New().Analyze(context.Background(), in)
}

func TestExpensiveAPIInLoopFlagged(t *testing.T) {
	src := "for (const item of items) {\n  await openai.chat.completions.create(item)\n}\n"
	alerts := analyze(t, "/proj/a.js", src)
	require.True(t, hasRule(alerts, "expensive-api-in-loop"))
}

func TestExpensiveAPIInLoopSuppressedByRateLimit(t *testing.T) {
	src := "for (const item of items) {\n  await sleep(100)\n  await openai.chat.completions.create(item)\n}\n"
	alerts := analyze(t, "/proj/a.js", src)
	assert.False(t, hasRule(alerts, "expensive-api-in-loop"))
}

func TestMissingCacheForExpensiveCall(t *testing.T) {
	src := "function summarize(text) {\n  return anthropic.messages.create({ text })\n}\n"
	alerts := analyze(t, "/proj/a.js", src)
	require.True(t, hasRule(alerts, "missing-cache-for-expensive-call"))
}

func TestCacheMarkerSuppressesCall(t *testing.T) {
	src := "function summarize(text) {\n  const hit = cache.get(text)\n  if (hit) return hit\n  return anthropic.messages.create({ text })\n}\n"
	alerts := analyze(t, "/proj/a.js", src)
	assert.False(t, hasRule(alerts, "missing-cache-for-expensive-call"))
}
