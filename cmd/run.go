package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/simdebug/simdebug/sim"
	"github.com/simdebug/simdebug/sim/metrics"
	"github.com/simdebug/simdebug/sim/objection"
	"github.com/simdebug/simdebug/sim/options"
	"github.com/simdebug/simdebug/sim/report"
	"github.com/simdebug/simdebug/sim/stopwatch"
)

const (
	project = "simdebug"
	msgType = "/simdebug/run"
)

// runSimulation builds the simulator from flags and configuration, runs it
// and returns the exit status computed by the report handler.
func runSimulation(cmd *cobra.Command, argv0 string) (int, error) {
	sw := stopwatch.NewManual(project)

	s := sim.NewSimulator(seed)
	m := metrics.New(project)
	s.Handler().SetObserver(m)
	opts := options.New(s)

	cfg, err := loadConfig(argv0)
	if err != nil {
		return 1, err
	}
	applyWarnFlags(cmd.Flags(), opts)
	if err := opts.Apply(cfg); err != nil {
		logrus.Warnf("configuration: %v", err)
	}
	applyFlags(cmd.Flags(), opts)
	opts.Finish()

	ledger := objection.NewLedger(s, objection.WithMetrics(m))
	drain, err := pickTime(cmd.Flags(), "drain-time", drainTime, cfg.Objection.DrainTime)
	if err != nil {
		return 1, err
	}
	timeout, err := pickTime(cmd.Flags(), "max-timeout", maxTimeout, cfg.Objection.MaxTimeout)
	if err != nil {
		return 1, err
	}
	ledger.SetDrainTime(drain)
	ledger.SetMaxTimeout(timeout)

	n := reps
	if _, ok := counts["reps"]; n == 0 && (ok || cfg.Counts["reps"] != 0) {
		n = opts.Count("reps")
	}
	if n <= 0 {
		n = 10
	}
	w := newWorkload(s, ledger, opts, workers, n)
	w.spawn()
	if opts.Tracing() {
		opts.TraceFile().AddFunc("objections", 16, func() uint64 { return uint64(ledger.ActiveCount()) })
	}

	s.ReportVerb(msgType, opts.Summary(), report.None)
	opts.StopIfRequested()
	sw.Report("elaboration")
	sw.Reset("")

	s.Run()

	sw.Report("simulation")
	s.ReportVerb(msgType, fmt.Sprintf("%d context switches, %d objections raised", s.ContextSwitches(), ledger.TotalCreated()), report.None)
	if err := opts.CloseTraceFile(); err != nil {
		s.Report(report.Error, msgType, err.Error())
	}
	s.ReportVerb(msgType, "Run-time options: "+opts.CommandOptions(), report.None)

	code := s.Handler().ExitStatus(project)
	if metricsFile != "" {
		if err := m.WriteTextfile(metricsFile); err != nil {
			return code, err
		}
	}
	return code, nil
}

// loadConfig reads --config, or the default file unless --no-config.
// A missing default file is not an error.
func loadConfig(argv0 string) (*options.Config, error) {
	if configFile != "" {
		return options.LoadConfig(configFile)
	}
	if noConfig {
		return &options.Config{}, nil
	}
	path := options.DefaultConfigPath(argv0)
	if _, err := os.Stat(path); err != nil {
		logrus.Debugf("No default configuration file %s", path)
		return &options.Config{}, nil
	}
	logrus.Infof("Reading configuration from %s", path)
	return options.LoadConfig(path)
}

// applyFlags overlays explicitly given flags on the configuration already
// applied, and records them for CommandOptions.
func applyFlags(fs *pflag.FlagSet, opts *options.Options) {
	fs.Visit(func(f *pflag.Flag) {
		opts.Record("--" + f.Name + "=" + f.Value.String())
	})
	applyWarnFlags(fs, opts)
	if fs.Changed("quiet") {
		opts.SetQuiet(quiet)
	}
	if fs.Changed("verbose") {
		opts.SetVerbose(verbose)
	}
	if fs.Changed("debug") {
		if mask, err := options.ParseMask(debugMask); err != nil {
			opts.Warnf("Ignoring --debug: %v", err)
		} else if mask == 0 {
			opts.ClrDebugging(0)
		} else {
			opts.SetDebugging(mask)
		}
	}
	if fs.Changed("inject") {
		if mask, err := options.ParseMask(injectMask); err != nil {
			opts.Warnf("Ignoring --inject: %v", err)
		} else {
			opts.SetInjecting(mask)
		}
	}
	if fs.Changed("trace") {
		if err := opts.SetTraceFile(traceName); err != nil {
			opts.Warnf("Ignoring --trace: %v", err)
		}
	}
	if fs.Changed("parse-only") && parseOnly {
		opts.RequestStop()
		opts.Warnf("Requested stop")
	}
	for _, name := range sortedNames(counts) {
		v, err := strconv.Atoi(counts[name])
		if err != nil {
			opts.Warnf("Ignoring incorrectly specified count %s=%s", name, counts[name])
			continue
		}
		opts.SetCount(name, v)
	}
	for _, name := range sortedNames(times) {
		t, err := sim.ParseTime(times[name])
		if err != nil {
			opts.Warnf("Ignoring incorrectly specified time %s=%s", name, times[name])
			continue
		}
		opts.SetTime(name, t)
	}
	for _, name := range sortedNames(flags) {
		b, err := strconv.ParseBool(flags[name])
		if err != nil {
			opts.Warnf("Ignoring incorrectly specified flag %s=%s", name, flags[name])
			continue
		}
		opts.SetFlag(name, b)
	}
	for _, name := range sortedNames(texts) {
		opts.SetText(name, texts[name])
	}
	for _, name := range sortedNames(values) {
		v, err := strconv.ParseFloat(values[name], 64)
		if err != nil {
			opts.Warnf("Ignoring incorrectly specified value %s=%s", name, values[name])
			continue
		}
		opts.SetValue(name, v)
	}
}

// applyWarnFlags applies --warn and --werror. It runs before the
// configuration is applied so bad config entries are warned about too.
func applyWarnFlags(fs *pflag.FlagSet, opts *options.Options) {
	if fs.Changed("warn") {
		opts.SetWarn(warn)
	}
	if fs.Changed("werror") {
		opts.SetWerror(werror)
	}
}

// pickTime prefers an explicit flag, then the config file, then the flag default.
func pickTime(fs *pflag.FlagSet, name, flagValue, configValue string) (sim.Time, error) {
	v := flagValue
	if !fs.Changed(name) && configValue != "" {
		v = configValue
	}
	if v == "0" {
		return 0, nil
	}
	t, err := sim.ParseTime(v)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
