// Package rules defines the capability every rule module implements
// (§4.H, §9 Design Notes: "a capability set {name, isEnabled(config),
// analyze(files, config)}"). The coordinator drives modules purely through
// this interface; no dynamic dispatch beyond this small variant is needed.
package rules

import (
	"context"
	"path/filepath"

	"slopcheck/internal/core/types"
	"slopcheck/internal/engine/graph"
	"slopcheck/internal/engine/parser"
	"slopcheck/internal/engine/registry"
	"slopcheck/internal/engine/scorecard"
	"slopcheck/internal/platform/ignore"
)

// ReadFileFunc fetches a file's content. A failure here is the "unreadable
// file" error kind (§7) — the caller drops the file with a warning rather
// than aborting.
type ReadFileFunc func(path string) ([]byte, error)

// Input bundles everything a module needs to analyze one run's file set.
// It is passed by value; every collaborator inside it is read-only from a
// module's perspective (§5 shared-resource policy).
type Input struct {
	Root        string
	Files       []types.FileRecord
	ReadFile    ReadFileFunc
	Manifests   map[string][]types.PackageDependency // manifest path -> dependencies
	Graph       *graph.Graph
	Facade      *parser.Facade
	Registry    *registry.Client
	Scorecard   *scorecard.Client
	TopPackages []string
	Ignore      *ignore.Matcher
	Config      types.Config
}

// Module is one of the five analysis modules (§4.H): hallucination,
// laziness, security, architecture, cost.
type Module interface {
	Name() string
	IsEnabled(cfg types.Config) bool
	Analyze(ctx context.Context, in Input) []types.Alert
}

// Suppressed reports whether ruleID is ignore-suppressed for filePath
// under the run's configuration (§4.G), relative to in.Root.
func Suppressed(in Input, ruleID, filePath string) bool {
	if in.Ignore == nil {
		return false
	}
	rel := filePath
	if in.Root != "" {
		if r, err := relativeTo(in.Root, filePath); err == nil {
			rel = r
		}
	}
	return in.Ignore.IsIgnored(ruleID, rel)
}

// NewAlert builds an Alert with its deterministic ID already populated.
func NewAlert(severity types.Severity, ruleID, module, message, file string, line, column int) types.Alert {
	a := types.Alert{
		Severity: severity,
		RuleID:   ruleID,
		Module:   module,
		Message:  message,
		File:     file,
		Line:     line,
		Column:   column,
	}
	return a.WithID()
}

func relativeTo(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
