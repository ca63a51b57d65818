// Package report provides severity-levelled diagnostics for simulations,
// expectation tracking for intentionally provoked diagnostics, and the
// end-of-run verdict.
package report

import (
	"fmt"
	"strings"
)

// Severity classifies a diagnostic. Severities are ordered from least to
// most serious.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal

	numSeverities
)

// All selects every severity in queries such as Expected and Observed.
const All Severity = -1

// Severities lists every real severity in ascending order.
var Severities = []Severity{Info, Warning, Error, Fatal}

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	case All:
		return "ALL"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

func (s Severity) valid() bool { return s >= Info && s < numSeverities }

// Verbosity gates informational diagnostics. A message is shown when its
// verbosity is at or below the handler's level.
type Verbosity int

const (
	None   Verbosity = 0
	Low    Verbosity = 100
	Medium Verbosity = 200
	High   Verbosity = 300
	Full   Verbosity = 400
	Debug  Verbosity = 500
)

// String names the nearest level at or below v, with any offset, e.g. "HIGH+5".
func (v Verbosity) String() string {
	levels := []struct {
		level Verbosity
		name  string
	}{
		{Debug, "DEBUG"},
		{Full, "FULL"},
		{High, "HIGH"},
		{Medium, "MEDIUM"},
		{Low, "LOW"},
		{None, "NONE"},
	}
	for _, l := range levels {
		if v >= l.level {
			if v == l.level {
				return l.name
			}
			return fmt.Sprintf("%s+%d", l.name, int(v-l.level))
		}
	}
	return fmt.Sprintf("NONE%d", int(v))
}

// ParseVerbosity accepts a level name (case-insensitive) such as "debug".
func ParseVerbosity(name string) (Verbosity, error) {
	switch strings.ToLower(name) {
	case "none":
		return None, nil
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	case "full":
		return Full, nil
	case "debug":
		return Debug, nil
	}
	return None, fmt.Errorf("unknown verbosity %q", name)
}
