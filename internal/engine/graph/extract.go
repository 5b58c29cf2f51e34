// Package graph builds the cross-file Import Graph described in §4.F: for
// every source file it extracts imported paths/symbols and exported symbol
// names by best-effort regex over the source text, then assembles a
// directed graph of raw-import edges plus a lazy path resolver used only by
// the unused-export check.
package graph

import (
	"regexp"
	"strings"

	"slopcheck/internal/core/types"
)

var (
	// import X from 'Y' / import {A, B as C, type D} from 'Y' / import * as X from 'Y'
	jsImportRE = regexp.MustCompile(`(?m)^\s*import\s+(.+?)\s+from\s+['"]([^'"]+)['"]`)
	// side-effect only: import 'Y'
	jsSideEffectImportRE = regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`)
	jsRequireRE          = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	jsDynamicImportRE    = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`)
	jsExportRE           = regexp.MustCompile(`export\s+default\s+(?:function|class)\s*\*?\s*([A-Za-z_$][\w$]*)|export\s+(?:function|class|const|let|var|type|interface)\s+([A-Za-z_$][\w$]*)`)

	pyFromImportRE = regexp.MustCompile(`(?m)^\s*from\s+(\.*[\w.]*)\s+import\s+(.+)$`)
)

// Extract produces the ImportNode for one file's source text (§3, §4.F).
// lang selects the extraction grammar: javascript/typescript share one
// regex family, python uses its own, everything else yields an ImportNode
// with no imports/exports (best-effort, never an error).
func Extract(path string, lang types.Language, source []byte) types.ImportNode {
	text := string(source)
	switch lang {
	case types.LangJavaScript, types.LangTypeScript:
		return extractJS(path, text)
	case types.LangVue, types.LangSvelte:
		return extractJS(path, text)
	case types.LangPython:
		return extractPython(path, text)
	default:
		return types.ImportNode{File: path, Symbols: map[string][]string{}}
	}
}

func extractJS(path, text string) types.ImportNode {
	node := types.ImportNode{File: path, Symbols: map[string][]string{}}
	seen := map[string]bool{}

	addImport := func(raw string) {
		if raw == "" {
			return
		}
		if !seen[raw] {
			seen[raw] = true
			node.Imports = append(node.Imports, raw)
		}
	}

	for _, m := range jsImportRE.FindAllStringSubmatch(text, -1) {
		clause, raw := strings.TrimSpace(m[1]), m[2]
		if !isRecordableJSPath(raw) {
			continue
		}
		addImport(raw)
		node.Symbols[raw] = append(node.Symbols[raw], classifyJSClause(clause)...)
	}
	for _, m := range jsSideEffectImportRE.FindAllStringSubmatch(text, -1) {
		raw := m[1]
		if !isRecordableJSPath(raw) {
			continue
		}
		addImport(raw)
	}
	for _, m := range jsRequireRE.FindAllStringSubmatch(text, -1) {
		raw := m[1]
		if !isRecordableJSPath(raw) {
			continue
		}
		addImport(raw)
		node.Symbols[raw] = append(node.Symbols[raw], "*")
	}
	for _, m := range jsDynamicImportRE.FindAllStringSubmatch(text, -1) {
		raw := m[1]
		if !isRecordableJSPath(raw) {
			continue
		}
		addImport(raw)
		node.Symbols[raw] = append(node.Symbols[raw], "*")
	}

	for _, m := range jsExportRE.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if name != "" {
			node.Exports = append(node.Exports, name)
		}
	}

	return node
}

// isRecordableJSPath keeps only edges to strings starting with "." or "@/"
// (§4.F): third-party/bare module specifiers never become graph edges.
func isRecordableJSPath(raw string) bool {
	return strings.HasPrefix(raw, ".") || strings.HasPrefix(raw, "@/")
}

// classifyJSClause turns the left-hand side of an `import X from 'Y'`
// statement into the imported-symbol list per §4.F:
//   - `*` or `* as Name`                -> the whole namespace, literal "*"
//   - `{A, B as C, type D}`             -> the left-hand (local) names, "type" dropped
//   - anything else (bare identifier)  -> the literal "default" binding
func classifyJSClause(clause string) []string {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil
	}
	if strings.HasPrefix(clause, "*") {
		return []string{"*"}
	}
	if strings.HasPrefix(clause, "{") {
		inner := strings.TrimSuffix(strings.TrimPrefix(clause, "{"), "}")
		var out []string
		for _, part := range strings.Split(inner, ",") {
			part = strings.TrimSpace(part)
			part = strings.TrimPrefix(part, "type ")
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if idx := strings.Index(part, " as "); idx >= 0 {
				part = strings.TrimSpace(part[:idx])
			}
			if part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	// `Default, {Named}` combined clause — the default binding is still present.
	if idx := strings.Index(clause, ","); idx >= 0 {
		rest := classifyJSClause(strings.TrimSpace(clause[idx+1:]))
		return append([]string{"default"}, rest...)
	}
	return []string{"default"}
}

func extractPython(path, text string) types.ImportNode {
	node := types.ImportNode{File: path, Symbols: map[string][]string{}}
	seen := map[string]bool{}

	for _, m := range pyFromImportRE.FindAllStringSubmatch(text, -1) {
		module, items := m[1], m[2]
		if !strings.HasPrefix(module, ".") {
			continue
		}
		if !seen[module] {
			seen[module] = true
			node.Imports = append(node.Imports, module)
		}
		for _, part := range strings.Split(items, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if idx := strings.Index(part, " as "); idx >= 0 {
				part = strings.TrimSpace(part[:idx])
			}
			if part != "" {
				node.Symbols[module] = append(node.Symbols[module], part)
			}
		}
	}
	return node
}
