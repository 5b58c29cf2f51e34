package types

import "time"

// Summary holds alert counts per severity.
type Summary struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

func (s Summary) Total() int {
	return s.Critical + s.High + s.Medium + s.Low
}

// ScanMetadata describes the run that produced a Report (§3).
type ScanMetadata struct {
	RootDirectory string
	FileCount     int
	Duration      time.Duration
	Timestamp     time.Time
	Config        Config
}

// Report is the coordinator's output (§3, §6).
type Report struct {
	Summary Summary
	Alerts  []Alert
	Meta    ScanMetadata
	Score   float64
}
