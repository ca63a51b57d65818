// Package options holds the run-time debug settings of a simulation:
// debug and fault-injection masks, verbosity, tracing, and named
// parameters (counts, times, flags, texts, values) supplied on the command
// line or in a YAML configuration file.
package options

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/simdebug/simdebug/sim"
	"github.com/simdebug/simdebug/sim/report"
	"github.com/simdebug/simdebug/sim/trace"
)

const msgType = "/simdebug/options"

// AllBits matches any set bit in Debugging and Injecting.
const AllBits = ^uint64(0)

// Kernel is the part of the simulator options act upon.
type Kernel interface {
	Handler() *report.Handler
	AddTracer(t sim.Tracer)
	Stop()
}

// Options is the debug configuration of one simulation.
type Options struct {
	kernel  Kernel
	handler *report.Handler

	debug   uint64
	inject  uint64
	quiet   bool
	verbose bool
	warn    bool
	werror  bool
	stop    bool

	traceFile *trace.File
	args      []string

	counts map[string]int
	times  map[string]sim.Time
	flags  map[string]bool
	texts  map[string]string
	values map[string]float64
}

// New returns default options bound to k.
func New(k Kernel) *Options {
	return &Options{
		kernel:  k,
		handler: k.Handler(),
		counts:  make(map[string]int),
		times:   make(map[string]sim.Time),
		flags:   make(map[string]bool),
		texts:   make(map[string]string),
		values:  make(map[string]float64),
	}
}

// ParseMask parses a bit mask in decimal, 0x hex or 0b binary; underscores
// are ignored.
func ParseMask(s string) (uint64, error) {
	m, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing mask %q: %w", s, err)
	}
	return m, nil
}

// Debugging reports whether any bit of mask is enabled for debugging.
func (o *Options) Debugging(mask uint64) bool { return o.debug&mask != 0 }

// Injecting reports whether any bit of mask is enabled for fault injection.
func (o *Options) Injecting(mask uint64) bool { return o.inject&mask != 0 }

// DebugMask returns the enabled debug bits.
func (o *Options) DebugMask() uint64 { return o.debug }

// InjectMask returns the enabled injection bits.
func (o *Options) InjectMask() uint64 { return o.inject }

// Quiet reports whether quiet mode is on.
func (o *Options) Quiet() bool { return o.quiet }

// Verbose reports whether verbose mode is on.
func (o *Options) Verbose() bool { return o.verbose }

// Stopping reports whether a stop was requested during option processing.
func (o *Options) Stopping() bool { return o.stop }

// RequestStop asks StopIfRequested to end the simulation before it starts.
func (o *Options) RequestStop() { o.stop = true }

// StopIfRequested stops the kernel if a stop was requested.
func (o *Options) StopIfRequested() {
	if o.stop {
		o.kernel.Stop()
	}
}

// SetWarn controls warnings about bad or unknown settings.
func (o *Options) SetWarn(on bool) { o.warn = on }

// SetWerror makes Finish fail on any warning. Turning it on also turns on
// warnings about settings.
func (o *Options) SetWerror(on bool) {
	o.werror = on
	if on {
		o.warn = true
	}
}

// SetQuiet lowers verbosity to Low, or restores the verbose/normal level.
func (o *Options) SetQuiet(on bool) {
	o.quiet = on
	switch {
	case on:
		o.handler.SetVerbosity(report.Low)
		o.announce("Quiet")
	case o.verbose:
		o.handler.SetVerbosity(report.High)
		o.announce("Normal")
	default:
		o.handler.SetVerbosity(report.Medium)
		o.announce("Normal")
	}
}

// SetVerbose raises verbosity to High, or drops it to Medium unless debugging.
func (o *Options) SetVerbose(on bool) {
	o.verbose = on
	switch {
	case on && o.handler.Verbosity() < report.High:
		o.handler.SetVerbosity(report.High)
		o.announce("Verbose")
	case !on && !o.Debugging(AllBits):
		o.handler.SetVerbosity(report.Medium)
		o.announce("Normal")
	}
}

// SetDebugging enables the bits of mask (zero enables nothing) and sets
// verbosity to Debug if any bit is enabled.
func (o *Options) SetDebugging(mask uint64) {
	o.debug |= mask
	if o.debug != 0 {
		o.handler.SetVerbosity(report.Debug)
		o.announce(fmt.Sprintf("Debugging ENABLED %#b", o.debug))
		return
	}
	switch {
	case o.verbose:
		o.handler.SetVerbosity(report.High)
	case o.quiet:
		o.handler.SetVerbosity(report.Low)
	default:
		o.handler.SetVerbosity(report.Medium)
	}
	o.announce("Debugging disabled")
}

// ClrDebugging disables the bits of mask; zero disables all of them.
func (o *Options) ClrDebugging(mask uint64) {
	if mask == 0 {
		o.debug = 0
	} else {
		o.debug &^= mask
	}
	o.SetDebugging(0)
}

// SetInjecting replaces the injection mask.
func (o *Options) SetInjecting(mask uint64) {
	o.inject = mask
	if mask != 0 {
		o.announce(fmt.Sprintf("Injecting ENABLED %#b", mask))
	} else {
		o.announce("Injecting DISABLED")
	}
}

// Tracing reports whether a trace file is open.
func (o *Options) Tracing() bool { return o.traceFile != nil }

// TraceFile returns the open trace file, or nil.
func (o *Options) TraceFile() *trace.File { return o.traceFile }

// SetTraceFile closes the current trace file, if any, and opens <name>.vcd.
// An empty name only closes. Re-selecting the open trace does nothing.
func (o *Options) SetTraceFile(name string) error {
	if name != "" && o.traceFile != nil && o.traceFile.Name() == name {
		return nil
	}
	if err := o.CloseTraceFile(); err != nil {
		return err
	}
	if name == "" {
		return nil
	}
	f, err := trace.Open(name)
	if err != nil {
		return fmt.Errorf("opening trace %s: %w", name, err)
	}
	o.traceFile = f
	o.kernel.AddTracer(f)
	o.announce(fmt.Sprintf("Tracing to '%s%s'", name, trace.Extension))
	return nil
}

// CloseTraceFile flushes and closes the open trace file, if any.
func (o *Options) CloseTraceFile() error {
	if o.traceFile == nil {
		return nil
	}
	f := o.traceFile
	o.traceFile = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing trace %s: %w", f.Name(), err)
	}
	o.announce(fmt.Sprintf("Closed trace file '%s%s'", f.Name(), trace.Extension))
	return nil
}

// SetCount sets a named count.
func (o *Options) SetCount(name string, n int) {
	o.counts[name] = n
	o.announce(fmt.Sprintf("%s = %d", name, n))
}

// Count returns a named count, warning if it was never set.
func (o *Options) Count(name string) int {
	n, ok := o.counts[name]
	if !ok {
		o.missing("count", name)
	}
	return n
}

// SetTime sets a named time.
func (o *Options) SetTime(name string, t sim.Time) {
	o.times[name] = t
	o.announce(fmt.Sprintf("%s = %s", name, t))
}

// Time returns a named time, warning if it was never set.
func (o *Options) Time(name string) sim.Time {
	t, ok := o.times[name]
	if !ok {
		o.missing("time", name)
	}
	return t
}

// SetFlag sets a named flag.
func (o *Options) SetFlag(name string, on bool) {
	o.flags[name] = on
	o.announce(fmt.Sprintf("%s = %t", name, on))
}

// Flag returns a named flag, warning if it was never set.
func (o *Options) Flag(name string) bool {
	on, ok := o.flags[name]
	if !ok {
		o.missing("flag", name)
	}
	return on
}

// SetText sets a named text.
func (o *Options) SetText(name, text string) {
	o.texts[name] = text
	o.announce(fmt.Sprintf("%s = %q", name, text))
}

// Text returns a named text, warning if it was never set.
func (o *Options) Text(name string) string {
	s, ok := o.texts[name]
	if !ok {
		o.missing("text", name)
	}
	return s
}

// SetValue sets a named value.
func (o *Options) SetValue(name string, v float64) {
	o.values[name] = v
	o.announce(fmt.Sprintf("%s = %g", name, v))
}

// Value returns a named value, warning if it was never set.
func (o *Options) Value(name string) float64 {
	v, ok := o.values[name]
	if !ok {
		o.missing("value", name)
	}
	return v
}

// Record appends args to the options echoed by CommandOptions.
func (o *Options) Record(args ...string) { o.args = append(o.args, args...) }

// CommandOptions returns the recorded options separated by spaces.
func (o *Options) CommandOptions() string { return strings.Join(o.args, " ") }

// Warnf reports a warning about a setting if warnings are enabled.
func (o *Options) Warnf(format string, args ...any) {
	if o.warn {
		o.handler.Reportf(report.Warning, msgType, format, args...)
	}
}

// Finish ends option processing. With werror set, any warning so far is
// turned into an error and a stop request.
func (o *Options) Finish() {
	if o.werror && o.handler.Count(report.Warning) != 0 {
		o.handler.Report(report.Error, msgType, "Please fix all warnings and retry.")
		o.stop = true
	}
}

// Summary returns a configuration block for the start of simulation.
func (o *Options) Summary() string {
	rule := strings.Repeat("-", 80)
	var b strings.Builder
	b.WriteString(rule + "\nConfiguration\n-------------\n")
	fmt.Fprintf(&b, "        Verbosity: %s\n", o.handler.Verbosity())
	fmt.Fprintf(&b, "        Debugging: %t\n", o.Debugging(AllBits))
	fmt.Fprintf(&b, "        Injecting: %t\n", o.Injecting(AllBits))
	fmt.Fprintf(&b, "          Tracing: %t\n", o.Tracing())
	for _, name := range sortedKeys(o.counts) {
		fmt.Fprintf(&b, "  %15s: %d\n", name, o.counts[name])
	}
	for _, name := range sortedKeys(o.times) {
		fmt.Fprintf(&b, "  %15s: %s\n", name, o.times[name])
	}
	b.WriteString(rule)
	return b.String()
}

func (o *Options) announce(msg string) {
	o.handler.ReportVerb(msgType, msg, report.None)
}

func (o *Options) missing(kind, name string) {
	o.handler.Report(report.Warning, msgType, fmt.Sprintf("No %s named %s", kind, name))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
