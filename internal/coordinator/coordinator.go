// Package coordinator implements §4.I: it drives the File Scanner, the
// Dependency Manifest Parser, the Import Graph, the Syntax-Tree Facade, and
// the five rule modules in deterministic order, then filters, deduplicates,
// and scores the resulting alerts into a Report.
package coordinator

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"slopcheck/internal/core/errors"
	"slopcheck/internal/core/types"
	"slopcheck/internal/engine/graph"
	"slopcheck/internal/engine/manifest"
	"slopcheck/internal/engine/parser"
	"slopcheck/internal/engine/registry"
	"slopcheck/internal/engine/scorecard"
	"slopcheck/internal/platform/ignore"
	"slopcheck/internal/platform/scanner"
	"slopcheck/internal/rules"
	"slopcheck/internal/rules/architecture"
	"slopcheck/internal/rules/cost"
	"slopcheck/internal/rules/hallucination"
	"slopcheck/internal/rules/laziness"
	"slopcheck/internal/rules/security"
	"slopcheck/internal/shared/observability"
)

// moduleOrder fixes the deterministic rule-module run order required by §2.
func moduleOrder() []rules.Module {
	return []rules.Module{
		hallucination.New(),
		laziness.New(),
		security.New(),
		architecture.New(),
		cost.New(),
	}
}

// Run executes one full analysis pass over root under cfg (§4.I).
func Run(ctx context.Context, root string, cfg types.Config) (types.Report, error) {
	ctx, span := observability.Tracer.Start(ctx, "coordinator.run")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.ScanDuration.Observe(time.Since(start).Seconds())
	}()

	if err := cfg.Validate(); err != nil {
		return types.Report{}, errors.Wrap(err, errors.CodeInvalidConfig, "invalid configuration")
	}

	files, err := scanFiles(ctx, root, cfg)
	if err != nil {
		return types.Report{}, err
	}

	manifests := parseManifests(ctx, files)
	g := buildGraph(ctx, root, files)

	facade := parser.NewFacade()
	reg := registry.New()
	sc := scorecard.New()
	ignoreMatcher := ignore.New(cfg.IgnoreRules)

	in := rules.Input{
		Root:        root,
		Files:       files,
		ReadFile:    scanner.ReadFile,
		Manifests:   manifests,
		Graph:       g,
		Facade:      facade,
		Registry:    reg,
		Scorecard:   sc,
		TopPackages: hallucination.DefaultTopPackages,
		Ignore:      ignoreMatcher,
		Config:      cfg,
	}

	var allAlerts []types.Alert
	for _, mod := range moduleOrder() {
		select {
		case <-ctx.Done():
			// §5: cancellation stops all outstanding work and discards
			// partially computed alerts rather than returning a partial report.
			return types.Report{}, ctx.Err()
		default:
		}
		if !mod.IsEnabled(cfg) {
			continue
		}
		_, modSpan := observability.Tracer.Start(ctx, "coordinator.module."+mod.Name())
		modStart := time.Now()
		alerts := mod.Analyze(ctx, in)
		observability.RuleModuleDuration.WithLabelValues(mod.Name()).Observe(time.Since(modStart).Seconds())
		modSpan.End()

		for _, a := range alerts {
			observability.AlertsEmittedTotal.WithLabelValues(string(a.Severity)).Inc()
		}
		allAlerts = append(allAlerts, alerts...)
	}

	return buildReport(allAlerts, root, len(files), start, cfg), nil
}

func scanFiles(ctx context.Context, root string, cfg types.Config) ([]types.FileRecord, error) {
	_, span := observability.Tracer.Start(ctx, "coordinator.scan")
	defer span.End()

	files, err := scanner.Scan(root, cfg.Scanning.Include, cfg.Scanning.Exclude, cfg.Scanning.MaxFileSize, cfg.Scanning.FollowSymlinks)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnreadableFile, "file scan failed")
	}
	return files, nil
}

func parseManifests(ctx context.Context, files []types.FileRecord) map[string][]types.PackageDependency {
	_, span := observability.Tracer.Start(ctx, "coordinator.manifests")
	defer span.End()

	out := make(map[string][]types.PackageDependency)
	for _, f := range files {
		if !f.IsDependencyManifest {
			continue
		}
		content, err := scanner.ReadFile(f.Path)
		if err != nil {
			slog.Warn("coordinator: unreadable manifest, skipping", "path", f.Path, "error", err)
			continue
		}
		deps, parseErr := manifest.Parse(f.Path, content)
		if parseErr != nil {
			slog.Warn("coordinator: malformed manifest, skipping", "path", f.Path, "error", parseErr)
			continue
		}
		if deps != nil {
			out[f.Path] = deps
		}
	}
	return out
}

func buildGraph(ctx context.Context, root string, files []types.FileRecord) *graph.Graph {
	_, span := observability.Tracer.Start(ctx, "coordinator.graph")
	defer span.End()

	nodes := make(map[string]types.ImportNode)
	var order []string
	for _, f := range files {
		if !f.IsSource {
			continue
		}
		order = append(order, f.Path)

		content, err := scanner.ReadFile(f.Path)
		if err != nil {
			werr := errors.Wrap(err, errors.CodeUnreadableFile, "unreadable source file")
			werr = errors.AddContext(werr, errors.CtxPath, f.Path)
			werr = errors.AddContext(werr, errors.CtxLanguage, string(f.Language))
			slog.Debug("coordinator: skipping in graph", "error", werr)
			continue
		}

		lang := f.Language
		source := content
		if lang == types.LangVue || lang == types.LangSvelte {
			if script, scriptLang, ok := parser.ExtractScriptBlock(content); ok {
				source, lang = script, scriptLang
			}
		}
		nodes[f.Path] = graph.Extract(f.Path, lang, source)
	}
	return graph.Build(root, nodes, order)
}

func buildReport(alerts []types.Alert, root string, fileCount int, start time.Time, cfg types.Config) types.Report {
	filtered := filterBySeverity(alerts, cfg)
	deduped := dedupe(filtered)
	sortAlerts(deduped)

	summary := summarize(deduped)
	return types.Report{
		Summary: summary,
		Alerts:  deduped,
		Meta: types.ScanMetadata{
			RootDirectory: root,
			FileCount:     fileCount,
			Duration:      time.Since(start),
			Timestamp:     start,
			Config:        cfg,
		},
		Score: score(summary),
	}
}

func filterBySeverity(alerts []types.Alert, cfg types.Config) []types.Alert {
	out := make([]types.Alert, 0, len(alerts))
	for _, a := range alerts {
		if cfg.SeverityAllowed(a.Severity) {
			out = append(out, a)
		}
	}
	return out
}

// dedupe keeps the first occurrence per (file, line, rule-id, message) key,
// per §4.I.4. Input order is preserved among survivors.
func dedupe(alerts []types.Alert) []types.Alert {
	seen := make(map[string]bool, len(alerts))
	out := make([]types.Alert, 0, len(alerts))
	for _, a := range alerts {
		key := a.DedupeKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// sortAlerts enforces the deterministic ordering of §5: (file, line,
// rule-id, message).
func sortAlerts(alerts []types.Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Message < b.Message
	})
}

func summarize(alerts []types.Alert) types.Summary {
	var s types.Summary
	for _, a := range alerts {
		switch a.Severity {
		case types.SeverityCritical:
			s.Critical++
		case types.SeverityHigh:
			s.High++
		case types.SeverityMedium:
			s.Medium++
		case types.SeverityLow:
			s.Low++
		}
	}
	return s
}

// score implements §4.I.5's penalty formula, clamped to [0, 100].
func score(s types.Summary) float64 {
	c, h, med, l := float64(s.Critical), float64(s.High), float64(s.Medium), float64(s.Low)
	v := 100 - 20*math.Log10(1+5*c) - 10*math.Log10(1+5*h) - 5*math.Log10(1+med) - 2*math.Log10(1+l)
	if v < 0 {
		return 0
	}
	return v
}
