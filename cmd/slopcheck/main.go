// # cmd/slopcheck/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"slopcheck/internal/coordinator"
	"slopcheck/internal/core/types"
)

var (
	jsonOutput     = flag.Bool("json", false, "Emit the report as JSON instead of a text summary")
	minSeverity    = flag.String("severity", "LOW", "Minimum severity to report (LOW, MEDIUM, HIGH, CRITICAL)")
	checkNewborn   = flag.Bool("check-newborn", false, "Flag dependencies published under the newborn-package threshold")
	checkScorecard = flag.Bool("check-scorecard", false, "Fetch OpenSSF scorecards for dependencies with a derivable repository")
	verbose        = flag.Bool("verbose", false, "Enable debug logging")
	version        = flag.Bool("version", false, "Print version and exit")
)

const versionString = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("slopcheck v%s\n", versionString)
		os.Exit(0)
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}

	cfg := types.DefaultConfig()
	cfg.SupplyChain.CheckNewborn = *checkNewborn
	cfg.SupplyChain.CheckScorecard = *checkScorecard
	if err := applySeverityFloor(&cfg, *minSeverity); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	report, err := coordinator.Run(context.Background(), root, cfg)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			slog.Error("failed to encode report", "error", err)
			os.Exit(1)
		}
	} else {
		printSummary(report)
	}

	if report.Summary.Critical > 0 {
		os.Exit(2)
	}
}

func applySeverityFloor(cfg *types.Config, floor string) error {
	order := []types.Severity{types.SeverityCritical, types.SeverityHigh, types.SeverityMedium, types.SeverityLow}
	target := types.Severity(strings.ToUpper(floor))
	if !target.Valid() {
		return fmt.Errorf("slopcheck: unknown severity %q", floor)
	}
	cfg.Severities = map[types.Severity]bool{}
	for _, s := range order {
		if s.Rank() <= target.Rank() {
			cfg.Severities[s] = true
		}
	}
	return nil
}

func printSummary(report types.Report) {
	fmt.Printf("slopcheck scanned %d files under %s in %s\n", report.Meta.FileCount, report.Meta.RootDirectory, report.Meta.Duration)
	fmt.Printf("score: %.1f/100\n", report.Score)
	fmt.Printf("critical=%d high=%d medium=%d low=%d\n",
		report.Summary.Critical, report.Summary.High, report.Summary.Medium, report.Summary.Low)
	fmt.Println()
	for _, a := range report.Alerts {
		fmt.Printf("[%s] %s:%d %s - %s\n", a.Severity, a.File, a.Line, a.RuleID, a.Message)
	}
}
