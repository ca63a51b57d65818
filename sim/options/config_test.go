package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simdebug/simdebug/sim"
	"github.com/simdebug/simdebug/sim/report"
)

func TestParseConfig_RejectsUnknownKeys(t *testing.T) {
	// GIVEN a config with a misspelled key
	data := []byte("debug: 1\nverbos: true\n")

	// WHEN parsed
	_, err := ParseConfig(data)

	// THEN strict parsing fails naming the field
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verbos")
}

func TestParseConfig_EmptyIsValid(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadConfig_AppliesEverySection(t *testing.T) {
	// GIVEN a config file using every section
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
debug: "0b10"
inject: "0x3"
verbose: true
warn: true
counts:
  reps: 1000
times:
  start: 10_ns
flags:
  member: true
texts:
  name: Bob
values:
  ratio: 0.25
objection:
  drain_time: 5_ns
  max_timeout: 1_us
`), 0o644))

	// WHEN loaded and applied
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	s := sim.NewSimulator(1)
	o := New(s)
	require.NoError(t, o.Apply(cfg))

	// THEN every setting took effect
	assert.True(t, o.Debugging(0b10))
	assert.Equal(t, uint64(3), o.InjectMask())
	assert.True(t, o.Verbose())
	assert.Equal(t, report.Debug, s.Handler().Verbosity())
	assert.Equal(t, 1000, o.Count("reps"))
	assert.Equal(t, 10*sim.NS, o.Time("start"))
	assert.True(t, o.Flag("member"))
	assert.Equal(t, "Bob", o.Text("name"))
	assert.Equal(t, 0.25, o.Value("ratio"))
	assert.Equal(t, "5_ns", cfg.Objection.DrainTime)
	assert.Equal(t, "1_us", cfg.Objection.MaxTimeout)
	assert.Equal(t, 0, s.Handler().Count(report.Warning))
}

func TestApply_SkipsMalformedValues(t *testing.T) {
	// GIVEN a config with one bad time and one bad mask
	cfg := &Config{
		Warn:  true,
		Debug: "0bxyz",
		Times: map[string]string{"good": "1ns", "bad": "soon"},
	}
	s := sim.NewSimulator(1)
	o := New(s)

	// WHEN applied
	err := o.Apply(cfg)

	// THEN the good settings stick and each bad one is warned about
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time bad")
	assert.Equal(t, sim.NS, o.Time("good"))
	assert.False(t, o.Debugging(AllBits))
	assert.Equal(t, 2, s.Handler().Count(report.Warning))
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultConfigPath(t *testing.T) {
	assert.Equal(t, "simdebug.yaml", DefaultConfigPath("/usr/local/bin/simdebug"))
	assert.Equal(t, "run.yaml", DefaultConfigPath("run.exe"))
}

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"parse only", []string{"-n"}, []string{"--parse-only"}},
		{"count with separators", []string{"-nreps=1'000_000"}, []string{"--count=reps=1000000"}},
		{"time", []string{"-tstart=10_ns"}, []string{"--time=start=10_ns"}},
		{"long flags untouched", []string{"--debug", "-v", "run"}, []string{"--debug", "-v", "run"}},
		{"incomplete assignment untouched", []string{"-nreps=", "-t=5"}, []string{"-nreps=", "-t=5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeArgs(tt.in))
		})
	}
}

// TestExampleConfig verifies that the shipped example configuration loads
// under strict parsing and applies without warnings.
func TestExampleConfig(t *testing.T) {
	// GIVEN the example config
	cfg, err := LoadConfig(filepath.Join("..", "..", "examples", "simdebug.yaml"))
	require.NoError(t, err, "failed to load simdebug.yaml")

	// WHEN applied
	s := sim.NewSimulator(1)
	o := New(s)
	require.NoError(t, o.Apply(cfg))

	// THEN the documented settings took effect
	assert.True(t, o.Injecting(0b01))
	assert.False(t, o.Debugging(AllBits))
	assert.Equal(t, 20, o.Count("reps"))
	assert.Equal(t, "1_ns", cfg.Objection.DrainTime)
	assert.Equal(t, 0, s.Handler().Count(report.Warning))
}
