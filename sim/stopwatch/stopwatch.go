// Package stopwatch gives rough wall-clock timings of simulation phases.
//
//	sw := stopwatch.New("elaboration") // reports when stopped
//	defer sw.Stop()
//
//	sw := stopwatch.NewManual("phases") // reports only on request
//	sw.Report("setup")
//	sw.Reset("run")
package stopwatch

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const disclaimer = "DISCLAIMER: stopwatch timings are wall-clock and only a rough performance measure."

var disclaimerOnce sync.Once

// Stopwatch measures wall-clock time since creation or the last Reset.
type Stopwatch struct {
	name      string
	automatic bool
	start     time.Time
	now       func() time.Time
	logger    logrus.FieldLogger
}

// New returns a stopwatch that reports when Stop is called.
func New(name string) *Stopwatch { return newStopwatch(name, true) }

// NewManual returns a stopwatch that only reports on explicit Report calls.
func NewManual(name string) *Stopwatch { return newStopwatch(name, false) }

func newStopwatch(name string, automatic bool) *Stopwatch {
	sw := &Stopwatch{
		name:      name,
		automatic: automatic,
		now:       time.Now,
		logger:    logrus.StandardLogger(),
	}
	disclaimerOnce.Do(func() { sw.logger.Info(disclaimer) })
	sw.start = sw.now()
	return sw
}

// SetLogger sends reports to l.
func (sw *Stopwatch) SetLogger(l logrus.FieldLogger) { sw.logger = l }

// Reset restarts the measurement and, if name is non-empty, renames it.
func (sw *Stopwatch) Reset(name string) {
	if name != "" {
		sw.name = name
	}
	sw.start = sw.now()
}

// Elapsed returns the time since creation or the last Reset.
func (sw *Stopwatch) Elapsed() time.Duration { return sw.now().Sub(sw.start) }

// String formats the elapsed time, e.g. "Stopwatch(run): setup took 1.5ms".
func (sw *Stopwatch) String(reportName string) string {
	var b strings.Builder
	b.WriteString("Stopwatch")
	if sw.name != "" {
		b.WriteString("(" + sw.name + ")")
	}
	b.WriteString(": ")
	if reportName != "" {
		b.WriteString(reportName + " ")
	}
	b.WriteString("took " + FormatDuration(sw.Elapsed(), 3))
	return b.String()
}

// Report logs the elapsed time.
func (sw *Stopwatch) Report(reportName string) {
	sw.logger.Info(sw.String(reportName))
}

// Stop reports the elapsed time if the stopwatch is automatic.
func (sw *Stopwatch) Stop() {
	if sw.automatic {
		sw.Report("")
	}
}

var durationUnits = []struct {
	unit   time.Duration
	suffix string
}{
	{time.Hour, "h"},
	{time.Minute, "min"},
	{time.Second, "s"},
	{time.Millisecond, "ms"},
	{time.Microsecond, "us"},
}

// FormatDuration renders d in the largest unit not exceeding it, rounded to
// digits decimals with trailing zeros removed, e.g. 100s => "1.667min".
// At least one decimal is kept: 2s => "2.0s".
func FormatDuration(d time.Duration, digits int) string {
	unit, suffix := time.Nanosecond, "ns"
	for _, u := range durationUnits {
		if d >= u.unit {
			unit, suffix = u.unit, u.suffix
			break
		}
	}
	return FormatDurationIn(d, unit, suffix, digits)
}

// FormatDurationIn renders d as a multiple of unit with the given suffix,
// e.g. FormatDurationIn(time.Minute, time.Millisecond, "ms", 3) => "60000.0ms".
func FormatDurationIn(d, unit time.Duration, suffix string, digits int) string {
	scale := math.Pow(10, float64(digits))
	v := math.Round(float64(d)/float64(unit)*scale) / scale
	s := strconv.FormatFloat(v, 'f', digits, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
	}
	if strings.HasSuffix(s, ".") || !strings.Contains(s, ".") {
		s = strings.TrimSuffix(s, ".") + ".0"
	}
	return s + suffix
}
