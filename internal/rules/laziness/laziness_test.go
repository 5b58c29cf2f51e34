package laziness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slopcheck/internal/core/types"
	"slopcheck/internal/engine/parser"
	"slopcheck/internal/rules"
)

func readerFor(files map[string]string) rules.ReadFileFunc {
	return func(path string) ([]byte, error) {
		content, ok := files[path]
		if !ok {
			return nil, assertErr(path)
		}
		return []byte(content), nil
	}
}

type notFoundErr string

func (e notFoundErr) Error() string { return "not found: " + string(e) }

func assertErr(path string) error { return notFoundErr(path) }

func TestAnalyzePlaceholderComment(t *testing.T) {
	src := "function foo() {\n  // TODO: implement this properly\n  return 1\n}\n"
	files := map[string]string{"/proj/a.js": src}
	in := rules.Input{
		Root:     "/proj",
		Files:    []types.FileRecord{{Path: "/proj/a.js", Language: types.LangJavaScript, IsSource: true}},
		ReadFile: readerFor(files),
		Config:   types.DefaultConfig(),
	}
	alerts := New().Analyze(context.Background(), in)
	require.NotEmpty(t, alerts)
	assert.Equal(t, "placeholder-comment", alerts[0].RuleID)
	assert.Equal(t, types.SeverityHigh, alerts[0].Severity)
}

func TestAnalyzeAIPreamble(t *testing.T) {
	src := "// Here is the updated code for your review\nfunction foo() { return 1 }\n"
	files := map[string]string{"/proj/a.js": src}
	in := rules.Input{
		Root:     "/proj",
		Files:    []types.FileRecord{{Path: "/proj/a.js", Language: types.LangJavaScript, IsSource: true}},
		ReadFile: readerFor(files),
		Config:   types.DefaultConfig(),
	}
	alerts := New().Analyze(context.Background(), in)
	found := false
	for _, a := range alerts {
		if a.RuleID == "ai-preamble" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckOverCommenting(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, "// a comment line")
		lines = append(lines, "doSomething()")
		lines = append(lines, "// another comment")
	}
	alert, ok := checkOverCommenting("/proj/a.js", lines, 0.20, "laziness")
	require.True(t, ok)
	assert.Equal(t, "over-commenting", alert.RuleID)
}

func TestCheckOverCommentingBelowThreshold(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "doSomething()")
	}
	lines = append(lines, "// a single comment")
	_, ok := checkOverCommenting("/proj/a.js", lines, 0.20, "laziness")
	assert.False(t, ok)
}

func TestAnalyzeHollowFunctionJS(t *testing.T) {
	src := "function doWork() {\n  // nothing to see here\n}\n"
	files := map[string]string{"/proj/a.js": src}
	facade := parser.NewFacade()
	in := rules.Input{
		Root:     "/proj",
		Files:    []types.FileRecord{{Path: "/proj/a.js", Language: types.LangJavaScript, IsSource: true}},
		ReadFile: readerFor(files),
		Facade:   facade,
		Config:   types.DefaultConfig(),
	}
	alerts := New().Analyze(context.Background(), in)
	found := false
	for _, a := range alerts {
		if a.RuleID == "hollow-function" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeMockImplementation(t *testing.T) {
	src := "function calculateTotal(items) {\n  setTimeout(() => {}, 100)\n  return 42\n}\n"
	files := map[string]string{"/proj/a.js": src}
	facade := parser.NewFacade()
	in := rules.Input{
		Root:     "/proj",
		Files:    []types.FileRecord{{Path: "/proj/a.js", Language: types.LangJavaScript, IsSource: true}},
		ReadFile: readerFor(files),
		Facade:   facade,
		Config:   types.DefaultConfig(),
	}
	alerts := New().Analyze(context.Background(), in)
	found := false
	for _, a := range alerts {
		if a.RuleID == "mock-implementation" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeUnloggedErrorJS(t *testing.T) {
	src := "function run() {\n  try {\n    doThing()\n  } catch (e) {\n    return null\n  }\n}\n"
	files := map[string]string{"/proj/a.js": src}
	facade := parser.NewFacade()
	in := rules.Input{
		Root:     "/proj",
		Files:    []types.FileRecord{{Path: "/proj/a.js", Language: types.LangJavaScript, IsSource: true}},
		ReadFile: readerFor(files),
		Facade:   facade,
		Config:   types.DefaultConfig(),
	}
	alerts := New().Analyze(context.Background(), in)
	found := false
	for _, a := range alerts {
		if a.RuleID == "unlogged-error" {
			found = true
		}
	}
	assert.True(t, found)
}
