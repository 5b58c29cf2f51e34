// Package security implements the security rule module (§4.H.3):
// hardcoded-secret, insecure-deserialization, react2shell, insecure-jwt,
// insecure-jwt-none, missing-env-check, and hardcoded-production-url,
// plus the dependency-level low-scorecard-score check.
package security

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"slopcheck/internal/core/types"
	"slopcheck/internal/rules"
	"slopcheck/internal/shared/util"
)

type Module struct{}

func New() *Module { return &Module{} }

func (m *Module) Name() string { return "security" }

func (m *Module) IsEnabled(cfg types.Config) bool {
	return cfg.ModuleIsEnabled("security") && cfg.Security.Enabled
}

func (m *Module) Analyze(ctx context.Context, in rules.Input) []types.Alert {
	var alerts []types.Alert

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
		alerts = append(alerts, m.analyzeFile(in, f, string(content))...)
	}

	if in.Config.SupplyChain.CheckScorecard && in.Scorecard != nil {
		alerts = append(alerts, m.analyzeScorecard(ctx, in)...)
	}

	return alerts
}

var (
	apiKeyAssignRE  = regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key|access[_-]?token|auth[_-]?token|client[_-]?secret)\s*[:=]\s*['"]([A-Za-z0-9]{20,})['"]`)
	jwtShapeRE      = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)
	awsKeyAssignRE  = regexp.MustCompile(`(?i)aws[_-]?(access[_-]?key[_-]?id|secret[_-]?access[_-]?key)\s*[:=]\s*['"]([A-Za-z0-9/+]{16,})['"]`)
	connURLAssignRE = regexp.MustCompile(`(?i)(database[_-]?url|connection[_-]?string|conn[_-]?str)\s*[:=]\s*['"]([a-zA-Z]+://[^'"]+)['"]`)
	genericSecretRE = regexp.MustCompile(`['"]([A-Za-z0-9]{32,})['"]`)

	pyPickleImportRE = regexp.MustCompile(`\bimport\s+pickle\b`)
	pyPickleCallRE   = regexp.MustCompile(`\bpickle\.loads?\s*\(`)
	jsEvalRE         = regexp.MustCompile(`\beval\s*\(`)
	jsFunctionCtorRE = regexp.MustCompile(`\b(new\s+)?Function\s*\(`)

	useServerDirectiveRE = regexp.MustCompile(`^\s*["']use server["']\s*;?\s*$`)
	exportedAsyncFuncRE  = regexp.MustCompile(`\bexport\s+(default\s+)?async\s+function\s+(\w+)`)

	jwtDecodeRE  = regexp.MustCompile(`\bjwt\.decode\s*\(`)
	jwtNoneAlgRE = regexp.MustCompile(`(?i)(alg|algorithm)\s*[:=]\s*['"]none['"]`)

	destructiveOpRE = regexp.MustCompile(`(?i)\.deleteMany\(|\.drop\(|\.truncate\(|\.destroy\(\{[^}]*force\s*:\s*true|DROP TABLE|TRUNCATE TABLE|DELETE FROM\s+\S+\s+WHERE\s+1\s*=\s*1`)
	envMarkerRE     = regexp.MustCompile(`process\.env\.NODE_ENV|NODE_ENV\s*!=\s*['"]production['"]|if\s*\(\s*!\s*production|process\.env\.|import\.meta\.env`)

	productionURLRE = regexp.MustCompile(`https?://(api\.[a-zA-Z0-9-]+\.com|[a-zA-Z0-9-]+\.herokuapp\.app|[a-zA-Z0-9-]+\.herokuapp\.com|[a-zA-Z0-9-]+\.vercel\.app|[a-zA-Z0-9-]+\.netlify\.app|[a-zA-Z0-9-]+\.railway\.app|prod\.[a-zA-Z0-9.-]+|production\.[a-zA-Z0-9.-]+)`)
)

const lookbackWindow = 10

func (m *Module) analyzeFile(in rules.Input, f types.FileRecord, text string) []types.Alert {
	var alerts []types.Alert
	lines := strings.Split(text, "\n")
	cfg := in.Config.Security
	isPython := f.Language == types.LangPython
	isJSLike := f.Language == types.LangJavaScript || f.Language == types.LangTypeScript

	usesServerDirectiveSeen := false

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		isCommentLine := strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "*")

		if cfg.DetectHardcodedSecrets && !rules.Suppressed(in, "hardcoded-secret", f.Path) {
			if alert, ok := detectHardcodedSecret(line, cfg.SecretEntropyThreshold, m.Name(), f.Path, lineNo); ok {
				alerts = append(alerts, alert)
			}
		}

		if cfg.DetectInsecureDeserialization && !rules.Suppressed(in, "insecure-deserialization", f.Path) {
			if isPython && (pyPickleImportRE.MatchString(line) || pyPickleCallRE.MatchString(line)) {
				alerts = append(alerts, rules.NewAlert(types.SeverityCritical, "insecure-deserialization", m.Name(),
					"pickle deserializes untrusted data unsafely", f.Path, lineNo, 0))
			} else if isJSLike && (jsEvalRE.MatchString(line) || jsFunctionCtorRE.MatchString(line)) {
				alerts = append(alerts, rules.NewAlert(types.SeverityHigh, "insecure-deserialization", m.Name(),
					"dynamic code evaluation from a string is unsafe", f.Path, lineNo, 0))
			}
		}

		if isJSLike && useServerDirectiveRE.MatchString(line) {
			usesServerDirectiveSeen = true
		}
		if cfg.DetectReact2Shell && isJSLike && usesServerDirectiveSeen && !rules.Suppressed(in, "react2shell", f.Path) {
			if fm := exportedAsyncFuncRE.FindStringSubmatch(line); fm != nil {
				body := functionBodyText(lines, i)
				if !hasValidationMarker(body) {
					alerts = append(alerts, rules.NewAlert(types.SeverityCritical, "react2shell", m.Name(),
						fmt.Sprintf("exported server action %q has no input validation", fm[2]), f.Path, lineNo, 0))
				}
			}
		}

		if cfg.DetectInsecureJWT && !rules.Suppressed(in, "insecure-jwt", f.Path) && jwtDecodeRE.MatchString(line) {
			alerts = append(alerts, rules.NewAlert(types.SeverityHigh, "insecure-jwt", m.Name(),
				"jwt.decode() does not verify the signature", f.Path, lineNo, 0))
		}
		if cfg.DetectInsecureJWT && !rules.Suppressed(in, "insecure-jwt-none", f.Path) && jwtNoneAlgRE.MatchString(line) {
			alerts = append(alerts, rules.NewAlert(types.SeverityCritical, "insecure-jwt-none", m.Name(),
				"JWT algorithm is pinned to \"none\"", f.Path, lineNo, 0))
		}

		if cfg.DetectMissingEnvCheck && !rules.Suppressed(in, "missing-env-check", f.Path) && destructiveOpRE.MatchString(line) {
			if !windowHasEnvMarker(lines, i, lookbackWindow) {
				alerts = append(alerts, rules.NewAlert(types.SeverityMedium, "missing-env-check", m.Name(),
					"destructive operation has no preceding environment check", f.Path, lineNo, 0))
			}
		}

		if cfg.DetectHardcodedProductionURL && !isCommentLine && !rules.Suppressed(in, "hardcoded-production-url", f.Path) {
			if productionURLRE.MatchString(line) && !envMarkerRE.MatchString(line) {
				alerts = append(alerts, rules.NewAlert(types.SeverityHigh, "hardcoded-production-url", m.Name(),
					"production URL is hardcoded instead of sourced from configuration", f.Path, lineNo, 0))
			}
		}
	}

	return alerts
}

func detectHardcodedSecret(line string, entropyThreshold float64, module, path string, lineNo int) (types.Alert, bool) {
	switch {
	case apiKeyAssignRE.MatchString(line):
	case jwtShapeRE.MatchString(line):
	case awsKeyAssignRE.MatchString(line):
	case connURLAssignRE.MatchString(line):
	default:
		if m := genericSecretRE.FindStringSubmatch(line); m != nil {
			if entropyThreshold <= 0 {
				entropyThreshold = 4.5
			}
			if shannonEntropy(m[1]) > entropyThreshold {
				return rules.NewAlert(types.SeverityCritical, "hardcoded-secret", module,
					"high-entropy quoted string looks like a hardcoded secret", path, lineNo, 0), true
			}
		}
		return types.Alert{}, false
	}
	return rules.NewAlert(types.SeverityCritical, "hardcoded-secret", module,
		"line assigns what looks like a hardcoded credential", path, lineNo, 0), true
}

func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	for _, r := range s {
		counts[r]++
	}
	n := float64(len(s))
	var entropy float64
	for _, c := range counts {
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

var validationMarkers = []string{
	"zod.", "yup.", "joi.", "validator.", ".parse(", ".validate(", ".validateSync(", "typeof ", "instanceof ",
}

func hasValidationMarker(body string) bool {
	for _, marker := range validationMarkers {
		if strings.Contains(body, marker) {
			if marker == "typeof " {
				if regexp.MustCompile(`typeof\s+\w+\s*===`).MatchString(body) {
					return true
				}
				continue
			}
			return true
		}
	}
	return false
}

// functionBodyText grabs a bounded window of source starting at the
// function's signature line, standing in for a real brace-matched body —
// sufficient to spot a validation call without a full AST parse of every
// file this check runs against (§4.H.3, js/ts-only rule).
func functionBodyText(lines []string, startIdx int) string {
	end := startIdx + 40
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[startIdx:end], "\n")
}

func windowHasEnvMarker(lines []string, idx, window int) bool {
	start := idx - window + 1
	if start < 0 {
		start = 0
	}
	for i := start; i <= idx; i++ {
		if envMarkerRE.MatchString(lines[i]) {
			return true
		}
	}
	return false
}

func (m *Module) analyzeScorecard(ctx context.Context, in rules.Input) []types.Alert {
	var alerts []types.Alert
	threshold := in.Config.SupplyChain.MinScorecardScore
	if threshold <= 0 {
		threshold = 5.0
	}

	seen := make(map[string]bool)
	for _, manifestPath := range util.SortedStringKeys(in.Manifests) {
		for _, dep := range in.Manifests[manifestPath] {
			select {
			case <-ctx.Done():
				return alerts
			default:
			}
			info, found, err := in.Registry.Info(ctx, dep.Name, dep.Registry)
			if err != nil || !found || info.RepositoryURL == "" {
				continue
			}
			if seen[info.RepositoryURL] {
				continue
			}
			seen[info.RepositoryURL] = true

			card, ok, err := in.Scorecard.Lookup(ctx, info.RepositoryURL)
			if err != nil {
				slog.Debug("security: scorecard lookup failed", "repo", info.RepositoryURL, "error", err)
				continue
			}
			if !ok {
				continue
			}
			if card.Score < threshold && !rules.Suppressed(in, "low-scorecard-score", manifestPath) {
				alerts = append(alerts, rules.NewAlert(types.SeverityMedium, "low-scorecard-score", m.Name(),
					fmt.Sprintf("dependency %q scores %.1f on OpenSSF Scorecard, below the %.1f threshold", dep.Name, card.Score, threshold),
					manifestPath, 0, 0))
			}
		}
	}
	return alerts
}
