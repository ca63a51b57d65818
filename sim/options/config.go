package options

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/simdebug/simdebug/sim"
)

// ConfigExtension is appended to the executable name to find the default
// configuration file.
const ConfigExtension = ".yaml"

// Config is the on-disk form of the options.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Debug   string `yaml:"debug,omitempty"`  // mask, e.g. "1" or "0b101"
	Inject  string `yaml:"inject,omitempty"` // mask
	Quiet   bool   `yaml:"quiet,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
	Warn    bool   `yaml:"warn,omitempty"`
	Werror  bool   `yaml:"werror,omitempty"`
	Trace   string `yaml:"trace,omitempty"` // trace name without extension

	Counts map[string]int     `yaml:"counts,omitempty"`
	Times  map[string]string  `yaml:"times,omitempty"` // e.g. "10_ns"
	Flags  map[string]bool    `yaml:"flags,omitempty"`
	Texts  map[string]string  `yaml:"texts,omitempty"`
	Values map[string]float64 `yaml:"values,omitempty"`

	Objection ObjectionConfig `yaml:"objection,omitempty"`
}

// ObjectionConfig configures the objection ledger.
type ObjectionConfig struct {
	DrainTime  string `yaml:"drain_time,omitempty"`
	MaxTimeout string `yaml:"max_timeout,omitempty"`
}

// LoadConfig reads a YAML configuration file. Unknown keys are errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration with strict field checking.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// DefaultConfigPath returns <executable name>.yaml in the working directory.
func DefaultConfigPath(argv0 string) string {
	base := filepath.Base(argv0)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ConfigExtension
}

// Apply applies cfg in a fixed order: verbosity, masks, tracing, then named
// parameters. Malformed times and masks are skipped with a warning (when
// warnings are enabled) and reported together in the returned error.
func (o *Options) Apply(cfg *Config) error {
	var errs []string
	fail := func(err error) {
		o.Warnf("Ignoring %v", err)
		errs = append(errs, err.Error())
	}

	if cfg.Warn {
		o.SetWarn(true)
	}
	if cfg.Werror {
		o.SetWerror(true)
	}
	if cfg.Quiet {
		o.SetQuiet(true)
	}
	if cfg.Verbose {
		o.SetVerbose(true)
	}
	if cfg.Debug != "" {
		if m, err := ParseMask(cfg.Debug); err != nil {
			fail(err)
		} else {
			o.SetDebugging(m)
		}
	}
	if cfg.Inject != "" {
		if m, err := ParseMask(cfg.Inject); err != nil {
			fail(err)
		} else {
			o.SetInjecting(m)
		}
	}
	if cfg.Trace != "" {
		if err := o.SetTraceFile(cfg.Trace); err != nil {
			fail(err)
		}
	}
	for _, name := range sortedKeys(cfg.Counts) {
		o.SetCount(name, cfg.Counts[name])
	}
	for _, name := range sortedKeys(cfg.Times) {
		t, err := sim.ParseTime(cfg.Times[name])
		if err != nil {
			fail(fmt.Errorf("time %s: %w", name, err))
			continue
		}
		o.SetTime(name, t)
	}
	for _, name := range sortedKeys(cfg.Flags) {
		o.SetFlag(name, cfg.Flags[name])
	}
	for _, name := range sortedKeys(cfg.Texts) {
		o.SetText(name, cfg.Texts[name])
	}
	for _, name := range sortedKeys(cfg.Values) {
		o.SetValue(name, cfg.Values[name])
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NormalizeArgs rewrites the compact legacy forms into long flags:
//
//	-nNAME=VALUE  => --count=NAME=VALUE
//	-tNAME=TIME   => --time=NAME=TIME
//	-n            => --parse-only
//
// Digit separators (_ and ') in counts are removed. Everything else is
// passed through unchanged.
func NormalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case arg == "-n":
			out = append(out, "--parse-only")
		case isAssignment(arg, "-n"):
			name, value, _ := strings.Cut(arg[2:], "=")
			value = strings.NewReplacer("_", "", "'", "").Replace(value)
			out = append(out, "--count="+name+"="+value)
		case isAssignment(arg, "-t"):
			out = append(out, "--time="+arg[2:])
		default:
			out = append(out, arg)
		}
	}
	return out
}

func isAssignment(arg, prefix string) bool {
	if !strings.HasPrefix(arg, prefix) {
		return false
	}
	eq := strings.IndexByte(arg, '=')
	return eq > len(prefix) && eq+1 < len(arg)
}
