// Package types holds the Alert/Severity/Report/Config schema shared by
// every stage of the analysis pipeline.
package types

import (
	"fmt"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Rank orders severities from most to least urgent, used for sort stability
// and for Config.Severities membership checks.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

// alertNamespace anchors the deterministic (version-5) UUIDs minted for
// every Alert. A fixed namespace keeps IDs stable across runs of the same
// input without ever calling uuid.New(), which would make reports
// non-reproducible (see §8.1's determinism property).
var alertNamespace = uuid.MustParse("6f6d6165-0a1e-4f2c-9d4b-9b2d6a7c9e3c")

// Alert is one emitted finding. ID is derived deterministically from the
// remaining fields so that two runs over identical inputs mint identical
// IDs (§3, §8.1).
type Alert struct {
	ID          string
	Severity    Severity
	RuleID      string
	Module      string
	Message     string
	File        string
	Line        int // 0 means "no line"
	Column      int // 0 means "no column"
	Remediation string
}

// DedupeKey identifies an alert for deduplication purposes (§4.I.4):
// (file, line, rule-id, message).
func (a Alert) DedupeKey() string {
	return fmt.Sprintf("%s\x00%d\x00%s\x00%s", a.File, a.Line, a.RuleID, a.Message)
}

// WithID returns a as a copy with a stable, deterministic ID populated.
func (a Alert) WithID() Alert {
	a.ID = uuid.NewSHA1(alertNamespace, []byte(a.DedupeKey())).String()
	return a
}
