// Package architecture implements the architecture rule module (§4.H.4):
// god-function, mixed-naming, magic-number per file, plus the cross-file
// circular-dependency and unused-export checks driven by the Import Graph.
package architecture

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"slopcheck/internal/core/types"
	"slopcheck/internal/rules"
)

type Module struct{}

func New() *Module { return &Module{} }

func (m *Module) Name() string { return "architecture" }

func (m *Module) IsEnabled(cfg types.Config) bool {
	return cfg.ModuleIsEnabled("architecture") && cfg.Architecture.Enabled
}

func (m *Module) Analyze(ctx context.Context, in rules.Input) []types.Alert {
	var alerts []types.Alert
	cfg := in.Config.Architecture

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
			continue
		}
		text := string(content)

		if cfg.DetectMagicNumbers && !rules.Suppressed(in, "magic-number", f.Path) {
			alerts = append(alerts, detectMagicNumbers(f, text, m.Name())...)
		}
		if cfg.DetectMixedNaming && isJSLike(f.Language) && !rules.Suppressed(in, "mixed-naming", f.Path) {
			alerts = append(alerts, detectMixedNaming(f, text, m.Name())...)
		}
		alerts = append(alerts, detectGodFunctions(f, text, cfg, m.Name())...)
	}

	if in.Graph != nil {
		if cfg.DetectCircularDependencies {
			alerts = append(alerts, m.detectCircularDependencies(in)...)
		}
		if cfg.DetectUnusedExports {
			alerts = append(alerts, m.detectUnusedExports(in)...)
		}
	}

	return alerts
}

func isJSLike(lang types.Language) bool {
	return lang == types.LangJavaScript || lang == types.LangTypeScript
}

// ---- god-function ----

var decisionTokenRE = regexp.MustCompile(`\b(if|else|elif|while|for|do|switch|case|catch|try)\b|\?\s*[^:]*:|\|\||&&`)

var funcHeadREs = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\([^)]*\)\s*\{`),
	regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:async\s+)?fn\s+(\w+)\s*\([^)]*\)[^{;]*\{`),
	regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s*)?(\w+)\s*\([^)]*\)[^{]*\{`),
	regexp.MustCompile(`(?m)^\s*def\s+(\w+)\s*\([^)]*\)\s*:`),
}

func detectGodFunctions(f types.FileRecord, text string, cfg types.ArchitectureConfig, module string) []types.Alert {
	var alerts []types.Alert
	complexityThreshold := cfg.CyclomaticComplexityThreshold
	if complexityThreshold <= 0 {
		complexityThreshold = 25
	}
	locThreshold := cfg.LinesOfCodeThreshold
	if locThreshold <= 0 {
		locThreshold = 100
	}

	isPython := f.Language == types.LangPython
	lines := strings.Split(text, "\n")

	var re *regexp.Regexp
	switch {
	case isPython:
		re = funcHeadREs[3]
	case f.Language == types.LangRust:
		re = funcHeadREs[1]
	case f.Language == types.LangGo:
		re = funcHeadREs[2]
	default:
		re = funcHeadREs[0]
	}

	for lineNo, line := range lines {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[1]
		var bodyLines []string
		var endLine int
		if isPython {
			bodyLines, endLine = pythonBlockBody(lines, lineNo)
		} else {
			bodyLines, endLine = braceBlockBody(lines, lineNo)
		}
		loc := endLine - lineNo
		body := strings.Join(bodyLines, "\n")
		complexity := 1 + len(decisionTokenRE.FindAllString(body, -1))

		if complexity > complexityThreshold && loc > locThreshold {
			alerts = append(alerts, rules.NewAlert(types.SeverityHigh, "god-function", module,
				fmt.Sprintf("function %q has cyclomatic complexity %d over %d lines", name, complexity, loc),
				f.Path, lineNo+1, 0))
		}
	}
	return alerts
}

// braceBlockBody scans forward from a brace-opening header line and returns
// the lines inside the matching closing brace (best-effort, ignores braces
// inside string/comment text — matches §4.H.4's "brace- or
// indentation-based scan").
func braceBlockBody(lines []string, headerIdx int) ([]string, int) {
	depth := strings.Count(lines[headerIdx], "{") - strings.Count(lines[headerIdx], "}")
	var body []string
	i := headerIdx + 1
	for ; i < len(lines) && depth > 0; i++ {
		depth += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
		body = append(body, lines[i])
	}
	return body, i
}

func pythonBlockBody(lines []string, headerIdx int) ([]string, int) {
	headerIndent := indentOf(lines[headerIdx])
	var body []string
	i := headerIdx + 1
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			body = append(body, lines[i])
			continue
		}
		if indentOf(lines[i]) <= headerIndent {
			break
		}
		body = append(body, lines[i])
	}
	return body, i
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		if r == ' ' {
			n++
		} else if r == '\t' {
			n += 4
		} else {
			break
		}
	}
	return n
}

// ---- mixed-naming ----

var (
	interfaceBlockOpenRE = regexp.MustCompile(`\binterface\s+\w+`)
	typeAliasLineRE      = regexp.MustCompile(`^\s*(?:export\s+)?type\s+\w+\s*=`)
	camelIdentRE         = regexp.MustCompile(`\b[a-z][a-zA-Z0-9]*[A-Z][a-zA-Z0-9]*\b`)
	snakeIdentRE         = regexp.MustCompile(`\b[a-z][a-z0-9]*_[a-z0-9_]+\b`)
)

func detectMixedNaming(f types.FileRecord, text string, module string) []types.Alert {
	var alerts []types.Alert
	lines := strings.Split(text, "\n")
	inInterface := false
	depth := 0

	for i, line := range lines {
		if inInterface {
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			if depth <= 0 {
				inInterface = false
			}
			continue
		}
		if interfaceBlockOpenRE.MatchString(line) {
			inInterface = true
			depth = strings.Count(line, "{") - strings.Count(line, "}")
			if depth > 0 {
				continue
			}
			inInterface = false
		}
		if typeAliasLineRE.MatchString(line) {
			continue
		}
		if camelIdentRE.MatchString(line) && snakeIdentRE.MatchString(line) {
			alerts = append(alerts, rules.NewAlert(types.SeverityMedium, "mixed-naming", module,
				"line mixes camelCase and snake_case identifiers", f.Path, i+1, 0))
		}
	}
	return alerts
}

// ---- magic-number ----

var (
	numberLiteralRE   = regexp.MustCompile(`-?\b\d+\.?\d*\b`)
	declKeywordRE     = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var|final|static|readonly)\b`)
	pyAllCapsAssignRE = regexp.MustCompile(`^\s*[A-Z][A-Z0-9_]*\s*=`)
	goBlockHeaderRE   = regexp.MustCompile(`^\s*(?:const|var)\s*\(`)
	octalFileModeRE   = regexp.MustCompile(`\b0[0-7]{3,4}\b`)
)

var safeNumbers = map[string]bool{"0": true, "1": true, "2": true, "10": true, "100": true, "-1": true}

func detectMagicNumbers(f types.FileRecord, text string, module string) []types.Alert {
	var alerts []types.Alert
	lines := strings.Split(text, "\n")
	inGoBlock := false

	for i, rawLine := range lines {
		trimmed := strings.TrimSpace(rawLine)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "*") {
			continue
		}
		if strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "from ") {
			continue
		}
		if f.Language == types.LangGo {
			if goBlockHeaderRE.MatchString(rawLine) {
				inGoBlock = true
				continue
			}
			if inGoBlock {
				if trimmed == ")" {
					inGoBlock = false
				}
				continue
			}
		}
		if declKeywordRE.MatchString(rawLine) {
			continue
		}
		if f.Language == types.LangPython && pyAllCapsAssignRE.MatchString(rawLine) {
			continue
		}

		outsideStrings := stripStringLiterals(rawLine)
		if inGoBlock && octalFileModeRE.MatchString(outsideStrings) {
			outsideStrings = octalFileModeRE.ReplaceAllString(outsideStrings, " ")
		}

		for _, match := range numberLiteralRE.FindAllString(outsideStrings, -1) {
			if safeNumbers[match] {
				continue
			}
			alerts = append(alerts, rules.NewAlert(types.SeverityLow, "magic-number", module,
				fmt.Sprintf("magic number %s outside a named constant", match), f.Path, i+1, 0))
		}
	}
	return alerts
}

// stripStringLiterals blanks out single-, double-, and backtick-delimited
// string spans on a line so numbers inside them are never reported (§4.H.4).
// It tracks an open backtick span across calls via the returned-line
// sentinel only for the common single-line case; multi-line backtick
// strings are handled by the caller never re-entering a span once a line's
// backtick count is odd — left as a best-effort heuristic consistent with
// the regex-based nature of this whole check.
func stripStringLiterals(line string) string {
	var out strings.Builder
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if quote != 0 {
			if c == quote && (i == 0 || line[i-1] != '\\') {
				quote = 0
			}
			out.WriteByte(' ')
			continue
		}
		if c == '\'' || c == '"' || c == '`' {
			quote = c
			out.WriteByte(' ')
			continue
		}
		out.WriteByte(c)
	}
	return out.String()
}

// ---- circular-dependency ----

func (m *Module) detectCircularDependencies(in rules.Input) []types.Alert {
	var alerts []types.Alert
	for _, cycle := range in.Graph.Cycles() {
		if rules.Suppressed(in, "circular-dependency", cycle.Anchor) {
			continue
		}
		alerts = append(alerts, rules.NewAlert(types.SeverityHigh, "circular-dependency", m.Name(),
			fmt.Sprintf("circular import: %s", strings.Join(cycle.Path, " -> ")),
			cycle.Anchor, 0, 0))
	}
	return alerts
}

// ---- unused-export ----

var entryPointBasenames = map[string]bool{
	"index.ts": true, "index.js": true, "index.tsx": true, "index.jsx": true,
	"main.ts": true, "main.js": true, "App.tsx": true, "App.jsx": true,
}

func (m *Module) detectUnusedExports(in rules.Input) []types.Alert {
	var alerts []types.Alert
	g := in.Graph

	usedByTarget := make(map[string]map[string]bool)
	wildcardTargets := make(map[string]bool)

	for _, path := range g.Vertices() {
		node, ok := g.Node(path)
		if !ok {
			continue
		}
		for _, raw := range node.Imports {
			target := g.Resolve(path, raw)
			if target == "" {
				continue
			}
			for _, sym := range node.Symbols[raw] {
				if sym == "*" {
					wildcardTargets[target] = true
					continue
				}
				if usedByTarget[target] == nil {
					usedByTarget[target] = make(map[string]bool)
				}
				usedByTarget[target][sym] = true
			}
		}
	}

	for _, path := range g.Vertices() {
		if entryPointBasenames[filepath.Base(path)] {
			continue
		}
		if wildcardTargets[path] {
			continue
		}
		node, ok := g.Node(path)
		if !ok {
			continue
		}
		used := usedByTarget[path]
		for _, export := range node.Exports {
			if used != nil && used[export] {
				continue
			}
			if rules.Suppressed(in, "unused-export", path) {
				continue
			}
			alerts = append(alerts, rules.NewAlert(types.SeverityLow, "unused-export", m.Name(),
				fmt.Sprintf("exported symbol %q is never imported elsewhere", export), path, 0, 0))
		}
	}
	return alerts
}
