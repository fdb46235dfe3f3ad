package domain

import "strings"

// Severity is the color-coded health scale shown on nodes and in the legend
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityInfo     Severity = "info"
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
	SeverityUnknown  Severity = "unknown"
)

// LegendEntry describes one step of the severity scale
type LegendEntry struct {
	Severity    Severity `json:"severity"`
	Label       string   `json:"label"`
	Color       string   `json:"color"`
	Description string   `json:"description"`
}

// severityScale is ordered from healthy to worst; unknown sits last
var severityScale = []LegendEntry{
	{SeverityOK, "OK", "#2ecc71", "Reachable, no open issues"},
	{SeverityInfo, "Info", "#3498db", "Informational events only"},
	{SeverityMinor, "Minor", "#f1c40f", "Degraded but serving traffic"},
	{SeverityMajor, "Major", "#e67e22", "Service impacting fault"},
	{SeverityCritical, "Critical", "#e74c3c", "Down or unreachable"},
	{SeverityUnknown, "Unknown", "#95a5a6", "No data collected yet"},
}

// Legend returns the severity scale in display order
func Legend() []LegendEntry {
	entries := make([]LegendEntry, len(severityScale))
	copy(entries, severityScale)
	return entries
}

// ParseSeverity maps a string to a Severity; anything unrecognized is unknown
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ok", "healthy", "normal", "clear":
		return SeverityOK
	case "info", "informational":
		return SeverityInfo
	case "minor", "warning", "warn":
		return SeverityMinor
	case "major", "error":
		return SeverityMajor
	case "critical", "down", "fatal":
		return SeverityCritical
	default:
		return SeverityUnknown
	}
}

// Rank orders severities by badness: ok is 0, critical is 4, unknown is -1
func (s Severity) Rank() int {
	switch s {
	case SeverityOK:
		return 0
	case SeverityInfo:
		return 1
	case SeverityMinor:
		return 2
	case SeverityMajor:
		return 3
	case SeverityCritical:
		return 4
	default:
		return -1
	}
}

// Color returns the legend color for the severity
func (s Severity) Color() string {
	return s.entry().Color
}

// Label returns the human readable severity name
func (s Severity) Label() string {
	return s.entry().Label
}

func (s Severity) entry() LegendEntry {
	for _, e := range severityScale {
		if e.Severity == s {
			return e
		}
	}
	return severityScale[len(severityScale)-1]
}

// Worst returns the most severe of the given severities, unknown if none are ranked
func Worst(severities ...Severity) Severity {
	worst := SeverityUnknown
	for _, s := range severities {
		if s.Rank() > worst.Rank() {
			worst = s
		}
	}
	return worst
}
