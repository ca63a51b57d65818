package stopwatch

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now := t
		t = t.Add(step)
		return now
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{100 * time.Second, "1.667min"},
		{2 * time.Second, "2.0s"},
		{1500 * time.Microsecond, "1.5ms"},
		{250 * time.Nanosecond, "250.0ns"},
		{90 * time.Minute, "1.5h"},
		{1234567 * time.Nanosecond, "1.235ms"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in, 3))
		})
	}
}

func TestFormatDurationIn_FixedUnit(t *testing.T) {
	assert.Equal(t, "60000.0ms", FormatDurationIn(time.Minute, time.Millisecond, "ms", 3))
	assert.Equal(t, "0.5s", FormatDurationIn(500*time.Millisecond, time.Second, "s", 1))
}

func TestStopwatch_ReportsElapsedTime(t *testing.T) {
	// GIVEN a manual stopwatch on a clock that ticks 2 s per reading
	logger, hook := test.NewNullLogger()
	sw := NewManual("phases")
	sw.SetLogger(logger)
	sw.now = fakeClock(2 * time.Second)
	sw.Reset("")

	// WHEN a phase is reported
	sw.Report("setup")

	// THEN the message names the stopwatch, the phase and the duration
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "Stopwatch(phases): setup took 2.0s", hook.LastEntry().Message)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)

	// AND Stop on a manual stopwatch stays silent
	sw.Stop()
	assert.Len(t, hook.AllEntries(), 1)
}

func TestStopwatch_AutomaticReportsOnStop(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sw := New("")
	sw.SetLogger(logger)
	sw.now = fakeClock(time.Millisecond)
	sw.Reset("elaboration")

	sw.Stop()

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "Stopwatch(elaboration): took 1.0ms", hook.LastEntry().Message)
}

func TestStopwatch_StringWithoutName(t *testing.T) {
	sw := NewManual("")
	sw.now = fakeClock(3 * time.Microsecond)
	sw.Reset("")
	assert.Equal(t, "Stopwatch: took 3.0us", sw.String(""))
}
