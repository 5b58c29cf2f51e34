// Package cost implements the cost rule module (§4.H.5):
// expensive-api-in-loop and missing-cache-for-expensive-call, both driven
// by a brace/indentation-bounded scan of loop and function bodies on
// js/ts/python source.
package cost

import (
	"context"
	"regexp"
	"strings"

	"slopcheck/internal/core/types"
	"slopcheck/internal/rules"
)

type Module struct{}

func New() *Module { return &Module{} }

func (m *Module) Name() string { return moduleName }

func (m *Module) IsEnabled(cfg types.Config) bool {
	return cfg.ModuleIsEnabled("cost")
}

// ExpensiveAPIs is the fixed table of cost-sensitive API names (§GLOSSARY).
var ExpensiveAPIs = []string{
	"openai", "anthropic", "cohere", "replicate", "cloudinary", "sharp", "ffmpeg", "cloudconvert",
}

var rateLimitMarkers = []string{
	"p-limit", "plimit", "bottleneck", "ratelimit", "sleep(", "delay(", "wait(", "throttle", "debounce",
	"asyncio.sleep", "time.sleep",
}

var cacheMarkers = []string{
	"cache.get", "cache.set", "redis.get", "redis.set", "localstorage.get", "sessionstorage.get",
	"map.get", "map.set", "lru", "memoize", "@cache", "functools.lru_cache",
}

func (m *Module) Analyze(ctx context.Context, in rules.Input) []types.Alert {
	var alerts []types.Alert

	for _, f := range in.Files {
		select {
		case <-ctx.Done():
			return alerts
		default:
		}
		if !f.IsSource || !isEligible(f.Language) {
			continue
		}
		content, err := in.ReadFile(f.Path)
		if err != nil {
			continue
		}
		alerts = append(alerts, analyzeFile(in, f, string(content))...)
	}
	return alerts
}

func isEligible(lang types.Language) bool {
	return lang == types.LangJavaScript || lang == types.LangTypeScript || lang == types.LangPython
}

var (
	loopHeadJSRE = regexp.MustCompile(`(?m)^\s*(?:for|while|do)\s*[\s(]`)
	loopHeadPyRE = regexp.MustCompile(`(?m)^\s*(?:for|while)\s+.+:\s*$`)

	funcHeadJSRE = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\([^)]*\)\s*\{`)
	funcHeadPyRE = regexp.MustCompile(`(?m)^\s*def\s+(\w+)\s*\([^)]*\)\s*:`)
)

func analyzeFile(in rules.Input, f types.FileRecord, text string) []types.Alert {
	var alerts []types.Alert
	lines := strings.Split(text, "\n")
	isPython := f.Language == types.LangPython

	loopHeadRE := loopHeadJSRE
	funcHeadRE := funcHeadJSRE
	if isPython {
		loopHeadRE = loopHeadPyRE
		funcHeadRE = funcHeadPyRE
	}

	for i, line := range lines {
		if loopHeadRE.MatchString(line) {
			body, _ := blockBody(lines, i, isPython)
			lower := strings.ToLower(strings.Join(body, "\n"))
			if api := firstExpensiveAPI(lower); api != "" && !hasMarker(lower, rateLimitMarkers) {
				if !rules.Suppressed(in, "expensive-api-in-loop", f.Path) {
					alerts = append(alerts, rules.NewAlert(types.SeverityHigh, "expensive-api-in-loop", moduleName,
						"loop body calls "+api+" without a rate-limit guard", f.Path, i+1, 0))
				}
			}
		}

		if m2 := funcHeadRE.FindStringSubmatch(line); m2 != nil {
			body, _ := blockBody(lines, i, isPython)
			lower := strings.ToLower(strings.Join(body, "\n"))
			if api := firstExpensiveAPI(lower); api != "" && !hasMarker(lower, cacheMarkers) {
				if !rules.Suppressed(in, "missing-cache-for-expensive-call", f.Path) {
					alerts = append(alerts, rules.NewAlert(types.SeverityMedium, "missing-cache-for-expensive-call", moduleName,
						"function "+quoteName(m2)+" calls "+api+" with no cache marker in its body", f.Path, i+1, 0))
				}
			}
		}
	}
	return alerts
}

const moduleName = "cost"

func quoteName(m []string) string {
	if len(m) > 1 && m[1] != "" {
		return `"` + m[1] + `"`
	}
	return "(anonymous)"
}

func firstExpensiveAPI(lowerText string) string {
	for _, api := range ExpensiveAPIs {
		if strings.Contains(lowerText, api) {
			return api
		}
	}
	return ""
}

func hasMarker(lowerText string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(lowerText, marker) {
			return true
		}
	}
	return false
}

func blockBody(lines []string, headerIdx int, isPython bool) ([]string, int) {
	if isPython {
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

	depth := strings.Count(lines[headerIdx], "{") - strings.Count(lines[headerIdx], "}")
	var body []string
	i := headerIdx + 1
	for ; i < len(lines) && depth > 0; i++ {
		depth += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
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

