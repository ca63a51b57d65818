package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime_String_UsesLargestExactUnit(t *testing.T) {
	tests := []struct {
		in   Time
		want string
	}{
		{0, "0 s"},
		{PS, "1 ps"},
		{1500 * PS, "1500 ps"},
		{10 * NS, "10 ns"},
		{250 * US, "250 us"},
		{100 * MS, "100 ms"},
		{2 * SEC, "2 s"},
		{MaxTime, "max"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.String())
		})
	}
}

func TestParseTime_AcceptsSeparatorsAndUnits(t *testing.T) {
	tests := []struct {
		in   string
		want Time
	}{
		{"10_ns", 10 * NS},
		{"10 ns", 10 * NS},
		{"1'000 ps", NS},
		{"5", 5 * NS},
		{"1.5us", 1500 * NS},
		{"100_ms", 100 * MS},
		{"2 S", 2 * SEC},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTime_RejectsMalformedInput(t *testing.T) {
	for _, in := range []string{"", "ns", "10 parsecs", "1.2.3ns"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTime(in)
			assert.Error(t, err)
		})
	}
}

func TestParseTime_RejectsValuesBeyondMaxTime(t *testing.T) {
	for _, in := range []string{"10000000s", "9223372036854775808ps", "1e30"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTime(in)
			assert.Error(t, err)
		})
	}
	got, err := ParseTime("9223372036854775000ps")
	require.NoError(t, err)
	assert.Greater(t, got, Time(0))
}

func TestTime_Add_Saturates(t *testing.T) {
	assert.Equal(t, 15*NS, (10 * NS).Add(5*NS))
	assert.Equal(t, MaxTime, (10 * NS).Add(MaxTime))
	assert.Equal(t, MaxTime, (MaxTime - 1).Add(2))
	assert.Equal(t, MaxTime, MaxTime.Add(0))
}
