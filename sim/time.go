package sim

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Time is simulated time in picoseconds. The zero value is the start of simulation.
type Time int64

// Time units. Resolution is the smallest representable step.
const (
	PS  Time = 1
	NS       = 1000 * PS
	US       = 1000 * NS
	MS       = 1000 * US
	SEC      = 1000 * MS

	Resolution = PS
	MaxTime    = Time(math.MaxInt64)
)

var timeUnits = []struct {
	suffix string
	unit   Time
}{
	{"s", SEC},
	{"ms", MS},
	{"us", US},
	{"ns", NS},
	{"ps", PS},
}

// String renders t with the largest unit that divides it exactly, e.g. "10 ns".
func (t Time) String() string {
	if t == 0 {
		return "0 s"
	}
	if t == MaxTime {
		return "max"
	}
	for _, u := range timeUnits {
		if t%u.unit == 0 {
			return fmt.Sprintf("%d %s", int64(t/u.unit), u.suffix)
		}
	}
	return fmt.Sprintf("%d ps", int64(t))
}

// ParseTime parses a magnitude followed by a unit (s, ms, us, ns, ps).
// Underscores and single quotes are digit separators, so "1_000ns" and
// "1'000 ns" are both accepted. A bare number is taken as nanoseconds.
func ParseTime(s string) (Time, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("_", "", "'", "", " ", "").Replace(v)
	if v == "" {
		return 0, fmt.Errorf("empty time value")
	}
	end := strings.IndexFunc(v, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	magnitude, suffix := v, "ns"
	if end >= 0 {
		magnitude, suffix = v[:end], v[end:]
	}
	if magnitude == "" {
		return 0, fmt.Errorf("time %q has no magnitude", s)
	}
	f, err := strconv.ParseFloat(magnitude, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing time %q: %w", s, err)
	}
	for _, u := range timeUnits {
		if u.suffix == suffix {
			ps := math.Round(f * float64(u.unit))
			if ps >= float64(MaxTime) {
				return 0, fmt.Errorf("time %q is out of range", s)
			}
			return Time(ps), nil
		}
	}
	return 0, fmt.Errorf("time %q has unknown unit %q", s, suffix)
}

// Add returns t+d for a non-negative d, saturating at MaxTime.
func (t Time) Add(d Time) Time {
	if d > MaxTime-t {
		return MaxTime
	}
	return t + d
}
