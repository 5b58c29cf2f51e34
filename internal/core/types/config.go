package types

import (
	"fmt"

	"slopcheck/internal/core/errors"
)

// Config is an inert, immutable value threaded through the whole pipeline
// (§3, §6). Building it from a file on disk is explicitly out of scope —
// callers hand the core an already-resolved struct.
type Config struct {
	Severities map[Severity]bool

	Hallucination HallucinationConfig
	Laziness      LazinessConfig
	Security      SecurityConfig
	Architecture  ArchitectureConfig
	SupplyChain   SupplyChainConfig
	Scanning      ScanningConfig

	// IgnoreRules maps a rule-id to the glob patterns that suppress it (§4.G).
	IgnoreRules map[string][]string

	ModuleEnabled map[string]bool
}

type HallucinationConfig struct {
	Enabled                      bool
	PackageAgeThresholdDays      int
	PackageDownloadThreshold     int
	TyposquatLevenshteinDistance int
	TopPackagesCount             int
}

type LazinessConfig struct {
	Enabled                   bool
	Patterns                  []string
	DetectAIPreambles         bool
	DetectHollowFunctions     bool
	DetectMockImplementations bool
	DetectPlaceholderComments bool
	DetectOverCommenting      bool
	DetectUnloggedErrors      bool
	CommentDensityThreshold   float64
}

type SecurityConfig struct {
	Enabled                       bool
	DetectHardcodedSecrets        bool
	DetectInsecureDeserialization bool
	DetectReact2Shell             bool
	DetectInsecureJWT             bool
	DetectMissingEnvCheck         bool
	DetectHardcodedProductionURL  bool
	SecretEntropyThreshold        float64
}

type ArchitectureConfig struct {
	Enabled                       bool
	CyclomaticComplexityThreshold int
	LinesOfCodeThreshold          int
	DetectMixedNaming             bool
	DetectCircularDependencies    bool
	DetectMagicNumbers            bool
	DetectUnusedExports           bool
}

type SupplyChainConfig struct {
	Enabled           bool
	CheckNewborn      bool
	CheckScorecard    bool
	MinScorecardScore float64
}

type ScanningConfig struct {
	Include        []string
	Exclude        []string
	MaxFileSize    int64
	FollowSymlinks bool
}

// DefaultConfig returns the configuration described in §6's defaults.
func DefaultConfig() Config {
	return Config{
		Severities: map[Severity]bool{
			SeverityCritical: true,
			SeverityHigh:     true,
			SeverityMedium:   true,
			SeverityLow:      true,
		},
		ModuleEnabled: map[string]bool{
			"hallucination": true,
			"laziness":      true,
			"security":      true,
			"architecture":  true,
			"cost":          true,
		},
		Hallucination: HallucinationConfig{
			Enabled:                      true,
			PackageAgeThresholdDays:      30,
			PackageDownloadThreshold:     500,
			TyposquatLevenshteinDistance: 1,
			TopPackagesCount:             10000,
		},
		Laziness: LazinessConfig{
			Enabled:                   true,
			Patterns:                  defaultPlaceholderPatterns,
			DetectAIPreambles:         true,
			DetectHollowFunctions:     true,
			DetectMockImplementations: true,
			DetectPlaceholderComments: true,
			DetectOverCommenting:      true,
			DetectUnloggedErrors:      true,
			CommentDensityThreshold:   0.20,
		},
		Security: SecurityConfig{
			Enabled:                       true,
			DetectHardcodedSecrets:        true,
			DetectInsecureDeserialization: true,
			DetectReact2Shell:             true,
			DetectInsecureJWT:             true,
			DetectMissingEnvCheck:         true,
			DetectHardcodedProductionURL:  true,
			SecretEntropyThreshold:        4.5,
		},
		Architecture: ArchitectureConfig{
			Enabled:                       true,
			CyclomaticComplexityThreshold: 25,
			LinesOfCodeThreshold:          100,
			DetectMixedNaming:             true,
			DetectCircularDependencies:    true,
			DetectMagicNumbers:            true,
			DetectUnusedExports:           true,
		},
		SupplyChain: SupplyChainConfig{
			CheckNewborn:      false,
			CheckScorecard:    false,
			MinScorecardScore: 5.0,
		},
		Scanning: ScanningConfig{
			Include: []string{
				"**/*.js", "**/*.jsx", "**/*.mjs", "**/*.cjs",
				"**/*.ts", "**/*.tsx", "**/*.py", "**/*.rs", "**/*.go",
				"**/*.vue", "**/*.svelte",
				"**/package.json", "**/requirements.txt", "**/pyproject.toml",
				"**/Cargo.toml", "**/go.mod",
			},
			Exclude:        defaultExcludeGlobs,
			MaxFileSize:    1048576,
			FollowSymlinks: false,
		},
		IgnoreRules: map[string][]string{},
	}
}

var defaultExcludeGlobs = []string{
	"**/node_modules/**", "**/.git/**", "**/.venv/**", "**/dist/**",
	"**/build/**", "**/.next/**", "**/.nuxt/**", "**/.output/**",
	"**/target/**", "**/vendor/**",
}

var defaultPlaceholderPatterns = []string{
	`(?i)TODO:?\s*implement`,
	`(?i)FIXME:?\s*implement`,
	`(?i)placeholder`,
	`(?i)not\s+yet\s+implemented`,
	`(?i)stub(bed)?\s+(out|implementation)`,
	`(?i)replace\s+this\s+with`,
	`(?i)your\s+code\s+here`,
}

// Validate enforces the numeric/shape constraints an in-memory Config must
// satisfy before the pipeline runs (§7's "invalid configuration" error
// kind). It never touches a file; config *file* schema validation is out
// of scope per spec.
func (c Config) Validate() error {
	if c.Hallucination.TyposquatLevenshteinDistance < 1 || c.Hallucination.TyposquatLevenshteinDistance > 3 {
		return errors.New(errors.CodeInvalidConfig, fmt.Sprintf(
			"hallucination.typosquatLevenshteinDistance must be in [1,3], got %d",
			c.Hallucination.TyposquatLevenshteinDistance))
	}
	if c.Laziness.CommentDensityThreshold < 0 || c.Laziness.CommentDensityThreshold > 1 {
		return errors.New(errors.CodeInvalidConfig, "laziness.commentDensityThreshold must be in [0,1]")
	}
	if c.Security.SecretEntropyThreshold <= 0 {
		return errors.New(errors.CodeInvalidConfig, "security.secretEntropyThreshold must be positive")
	}
	if c.Architecture.CyclomaticComplexityThreshold < 0 || c.Architecture.LinesOfCodeThreshold < 0 {
		return errors.New(errors.CodeInvalidConfig, "architecture thresholds must be non-negative")
	}
	if c.SupplyChain.MinScorecardScore < 0 || c.SupplyChain.MinScorecardScore > 10 {
		return errors.New(errors.CodeInvalidConfig, "supplyChain.minScorecardScore must be in [0,10]")
	}
	if c.Scanning.MaxFileSize <= 0 {
		return errors.New(errors.CodeInvalidConfig, "scanning.maxFileSize must be positive")
	}
	return nil
}

// SeverityAllowed reports whether s passes the configured severity filter.
func (c Config) SeverityAllowed(s Severity) bool {
	if len(c.Severities) == 0 {
		return true
	}
	return c.Severities[s]
}

// ModuleIsEnabled reports whether the named rule module should run.
func (c Config) ModuleIsEnabled(name string) bool {
	enabled, ok := c.ModuleEnabled[name]
	if !ok {
		return true
	}
	return enabled
}
