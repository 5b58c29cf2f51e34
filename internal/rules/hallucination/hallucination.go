// Package hallucination implements the hallucination rule module (§4.H.1):
// phantom-package, newborn-package, and typosquat-risk checks over every
// dependency declared by the scanned manifests.
package hallucination

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"slopcheck/internal/core/types"
	"slopcheck/internal/rules"
	"slopcheck/internal/shared/util"
)

const millisPerDay = 86_400_000

// Module implements rules.Module.
type Module struct{}

func New() *Module { return &Module{} }

func (m *Module) Name() string { return "hallucination" }

func (m *Module) IsEnabled(cfg types.Config) bool {
	return cfg.ModuleIsEnabled("hallucination") && cfg.Hallucination.Enabled
}

func (m *Module) Analyze(ctx context.Context, in rules.Input) []types.Alert {
	var alerts []types.Alert
	topPackages := in.TopPackages
	if len(topPackages) == 0 {
		topPackages = DefaultTopPackages
	}
	if n := in.Config.Hallucination.TopPackagesCount; n > 0 && n < len(topPackages) {
		topPackages = topPackages[:n]
	}

	for _, manifestPath := range sortedManifestPaths(in.Manifests) {
		for _, dep := range in.Manifests[manifestPath] {
			select {
			case <-ctx.Done():
				return alerts
			default:
			}
			alerts = append(alerts, m.analyzeDependency(ctx, in, dep, topPackages)...)
		}
	}
	return alerts
}

func (m *Module) analyzeDependency(ctx context.Context, in rules.Input, dep types.PackageDependency, topPackages []string) []types.Alert {
	if rules.Suppressed(in, "phantom-package", dep.ManifestPath) {
		return nil
	}

	exists, err := in.Registry.Exists(ctx, dep.Name, dep.Registry)
	if err != nil {
		// Upstream network error (non-404): recovered locally, no alert,
		// downstream checks for this dependency are skipped (§7, §4.I).
		slog.Debug("hallucination: registry lookup failed", "package", dep.Name, "registry", dep.Registry, "error", err)
		return nil
	}
	if !exists {
		return []types.Alert{rules.NewAlert(
			types.SeverityCritical, "phantom-package", m.Name(),
			fmt.Sprintf("dependency %q does not exist on %s", dep.Name, dep.Registry),
			dep.ManifestPath, 0, 0,
		)}
	}

	var alerts []types.Alert

	if in.Config.SupplyChain.CheckNewborn {
		if info, found, infoErr := in.Registry.Info(ctx, dep.Name, dep.Registry); infoErr == nil && found && info.CreatedAt > 0 {
			ageDays := float64(time.Now().UnixMilli()-info.CreatedAt) / millisPerDay
			threshold := in.Config.Hallucination.PackageAgeThresholdDays
			if threshold <= 0 {
				threshold = 30
			}
			if ageDays < float64(threshold) && !rules.Suppressed(in, "newborn-package", dep.ManifestPath) {
				alerts = append(alerts, rules.NewAlert(
					types.SeverityMedium, "newborn-package", m.Name(),
					fmt.Sprintf("dependency %q was published %.0f days ago, under the %d-day threshold", dep.Name, ageDays, threshold),
					dep.ManifestPath, 0, 0,
				))
			}
		}
	}

	if !rules.Suppressed(in, "typosquat-risk", dep.ManifestPath) {
		if match, dist := closestTopPackage(dep.Name, topPackages, in.Config.Hallucination.TyposquatLevenshteinDistance); match != "" {
			_ = dist
			alerts = append(alerts, rules.NewAlert(
				types.SeverityMedium, "typosquat-risk", m.Name(),
				fmt.Sprintf("dependency %q closely resembles popular package %q", dep.Name, match),
				dep.ManifestPath, 0, 0,
			))
		}
	}

	return alerts
}

// closestTopPackage returns the first top-package name at exactly
// distance from depName (§4.H.1: distance 0 never triggers).
func closestTopPackage(depName string, topPackages []string, distance int) (string, int) {
	if distance <= 0 {
		distance = 1
	}
	for _, top := range topPackages {
		if top == depName {
			return "", 0
		}
		if util.Levenshtein(depName, top) == distance {
			return top, distance
		}
	}
	return "", 0
}

func sortedManifestPaths(m map[string][]types.PackageDependency) []string {
	return util.SortedStringKeys(m)
}
