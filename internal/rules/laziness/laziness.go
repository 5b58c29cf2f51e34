// Package laziness implements the laziness rule module (§4.H.2):
// ai-preamble, placeholder-comment, and over-commenting regex checks over
// raw source text, plus hollow-function, mock-implementation, and
// unlogged-error checks driven by the syntax-tree facade. AST checks are
// skipped outright when a file's language has no loaded grammar.
package laziness

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"slopcheck/internal/core/types"
	"slopcheck/internal/rules"
)

type Module struct{}

func New() *Module { return &Module{} }

func (m *Module) Name() string { return "laziness" }

func (m *Module) IsEnabled(cfg types.Config) bool {
	return cfg.ModuleIsEnabled("laziness") && cfg.Laziness.Enabled
}

var aiPreambleREs = compileAll([]string{
	`(?i)as an ai language model`,
	`(?i)here is the updated code`,
	`(?i)i've updated the code`,
	`(?i)i have updated the code`,
	`(?i)below is the implementation`,
	`(?i)here's how you can`,
	`(?i)certainly! here`,
	`(?i)as a language model`,
})

var testFileNameREs = compileAll([]string{
	`\.test\.[^.]+$`,
	`\.spec\.[^.]+$`,
	`(^|/)test_[^/]+$`,
	`_test\.py$`,
})

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

func (m *Module) Analyze(ctx context.Context, in rules.Input) []types.Alert {
	var alerts []types.Alert
	cfg := in.Config.Laziness

	for _, f := range in.Files {
		select {
		case <-ctx.Done():
			return alerts
		default:
		}
		if !f.IsSource {
			continue
		}
		content, err := in.ReadFile(f.Path)
		if err != nil {
			continue // unreadable file: dropped with a warning upstream (§7)
		}
		text := string(content)
		lines := strings.Split(text, "\n")

		if cfg.DetectAIPreambles && !rules.Suppressed(in, "ai-preamble", f.Path) {
			if line, ok := firstMatch(lines, aiPreambleREs); ok {
				alerts = append(alerts, rules.NewAlert(types.SeverityMedium, "ai-preamble", m.Name(),
					"source contains an AI-assistant preamble phrase", f.Path, line, 0))
			}
		}

		if cfg.DetectPlaceholderComments && !rules.Suppressed(in, "placeholder-comment", f.Path) {
			patterns := cfg.Patterns
			if len(patterns) == 0 {
				patterns = types.DefaultConfig().Laziness.Patterns
			}
			if line, ok := firstMatch(lines, compileAll(patterns)); ok {
				alerts = append(alerts, rules.NewAlert(types.SeverityHigh, "placeholder-comment", m.Name(),
					"source contains a placeholder/unfinished-implementation comment", f.Path, line, 0))
			}
		}

		if cfg.DetectOverCommenting && !rules.Suppressed(in, "over-commenting", f.Path) {
			if alert, ok := checkOverCommenting(f.Path, lines, cfg.CommentDensityThreshold, m.Name()); ok {
				alerts = append(alerts, alert)
			}
		}

		if in.Facade != nil && in.Facade.Supports(f.Language) {
			alerts = append(alerts, m.analyzeAST(in, f, content, cfg)...)
		}
	}
	return alerts
}

func firstMatch(lines []string, res []*regexp.Regexp) (int, bool) {
	for i, line := range lines {
		for _, re := range res {
			if re.MatchString(line) {
				return i + 1, true
			}
		}
	}
	return 0, false
}

func checkOverCommenting(path string, lines []string, threshold float64, module string) (types.Alert, bool) {
	if threshold <= 0 {
		threshold = 0.20
	}
	isTest := false
	for _, re := range testFileNameREs {
		if re.MatchString(path) {
			isTest = true
			break
		}
	}
	if isTest {
		threshold = 0.40
	}
	isPython := strings.HasSuffix(path, ".py")

	nonBlank := 0
	commentLike := 0
	for _, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		nonBlank++
		if isTest && isPython && (trimmed == `"""` || trimmed == `'''`) {
			continue
		}
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") ||
			strings.HasSuffix(trimmed, "*/") {
			commentLike++
		}
	}
	if nonBlank < 5 {
		return types.Alert{}, false
	}
	density := float64(commentLike) / float64(nonBlank)
	if density <= threshold {
		return types.Alert{}, false
	}
	return rules.NewAlert(types.SeverityLow, "over-commenting", module,
		fmt.Sprintf("comment density %.0f%% exceeds the %.0f%% threshold", density*100, threshold*100),
		path, 0, 0), true
}

// ---- AST checks ----

var functionQueries = map[types.Language]string{
	types.LangJavaScript: `[(function_declaration) (function) (function_expression) (arrow_function) (generator_function) (generator_function_declaration) (method_definition)] @func`,
	types.LangTypeScript: `[(function_declaration) (function) (function_expression) (arrow_function) (generator_function) (generator_function_declaration) (method_definition)] @func`,
	types.LangPython:     `(function_definition) @func`,
}

var catchQueries = map[types.Language]string{
	types.LangJavaScript: `(catch_clause) @catch`,
	types.LangTypeScript: `(catch_clause) @catch`,
	types.LangPython:     `(except_clause) @except`,
}

func (m *Module) analyzeAST(in rules.Input, f types.FileRecord, content []byte, cfg types.LazinessConfig) []types.Alert {
	tree := in.Facade.Parse(f.Language, content)
	defer tree.Close()
	if tree.HasError() && tree.Root() == nil {
		return nil
	}

	var alerts []types.Alert

	if cfg.DetectHollowFunctions && !rules.Suppressed(in, "hollow-function", f.Path) {
		if captures, err := in.Facade.Query(tree, functionQueries[f.Language]); err == nil {
			for _, c := range captures {
				if isHollowFunction(f.Language, c.Node, content) {
					alerts = append(alerts, rules.NewAlert(types.SeverityHigh, "hollow-function", m.Name(),
						"function body has no meaningful statement", f.Path, c.Line, c.Column))
				}
			}
		}
	}

	if cfg.DetectMockImplementations && !rules.Suppressed(in, "mock-implementation", f.Path) {
		if captures, err := in.Facade.Query(tree, functionQueries[f.Language]); err == nil {
			for _, c := range captures {
				if name, sleepy := mockImplementation(f.Language, c.Node, content); sleepy {
					alerts = append(alerts, rules.NewAlert(types.SeverityHigh, "mock-implementation", m.Name(),
						fmt.Sprintf("function %q looks calculation-shaped but only sleeps", name), f.Path, c.Line, c.Column))
				}
			}
		}
	}

	if cfg.DetectUnloggedErrors && !rules.Suppressed(in, "unlogged-error", f.Path) {
		if captures, err := in.Facade.Query(tree, catchQueries[f.Language]); err == nil {
			for _, c := range captures {
				if !hasLoggingCall(c.Text) {
					alerts = append(alerts, rules.NewAlert(types.SeverityMedium, "unlogged-error", m.Name(),
						"catch/except block swallows the error without logging it", f.Path, c.Line, c.Column))
				}
			}
		}
	}

	return alerts
}

var loggingSubstrings = []string{
	"console.log", "console.error", "console.warn", "logger.", "log.",
	"logging.", "sentry.", "logrocket.", "bugsnag.", "rollbar.", "print(",
	".error(", ".warn(", ".info(", ".debug(",
}

func hasLoggingCall(body string) bool {
	lower := strings.ToLower(body)
	for _, s := range loggingSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

var mockNameRE = regexp.MustCompile(`(?i)^(calculate|process)`)
var sleepCallRE = regexp.MustCompile(`\bsleep\s*\(|\bsetTimeout\s*\(|time\.sleep\s*\(`)

func mockImplementation(lang types.Language, node *sitter.Node, source []byte) (string, bool) {
	name := functionName(node, source)
	if name == "" || !mockNameRE.MatchString(name) {
		return "", false
	}
	body := string(source[node.StartByte():node.EndByte()])
	return name, sleepCallRE.MatchString(body)
}

func functionName(node *sitter.Node, source []byte) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		if c == nil {
			continue
		}
		if c.Kind() == "identifier" || c.Kind() == "property_identifier" {
			return string(source[c.StartByte():c.EndByte()])
		}
	}
	return ""
}

func bodyBlockOf(node *sitter.Node) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "statement_block", "block":
			return c
		}
	}
	return nil
}

// isHollowFunction implements §4.H.2 / §GLOSSARY "hollow function": no
// semantic child remains after discarding comments, docstring-only
// expression statements, `pass`, and trivial `return` statements.
func isHollowFunction(lang types.Language, node *sitter.Node, source []byte) bool {
	body := bodyBlockOf(node)
	if body == nil {
		// An arrow function with a bare expression body (no braces) always
		// has a semantic child — it's never hollow.
		return false
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		c := body.Child(i)
		if c == nil || !c.IsNamed() {
			continue
		}
		switch c.Kind() {
		case "comment":
			continue
		case "pass_statement":
			continue
		case "expression_statement":
			if lang == types.LangPython && isDocstringExpr(c) {
				continue
			}
		case "return_statement":
			if isTrivialReturn(c, source) {
				continue
			}
		}
		return false
	}
	return true
}

func isDocstringExpr(node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		if c != nil && c.IsNamed() {
			return c.Kind() == "string"
		}
	}
	return false
}

func isTrivialReturn(node *sitter.Node, source []byte) bool {
	var value string
	found := false
	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		if c == nil || !c.IsNamed() {
			continue
		}
		value = strings.TrimSpace(string(source[c.StartByte():c.EndByte()]))
		found = true
	}
	if !found {
		return true
	}
	return value == "" || value == "null" || value == "undefined" || value == "None"
}
