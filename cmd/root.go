package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simdebug/simdebug/sim/options"
)

var (
	// CLI flags for logging and the run
	logLevel    string // Log verbosity level
	seed        int64  // Seed for per-process random streams
	workers     int    // Number of worker processes
	reps        int    // Delays per worker (0 = use count "reps", else 10)
	drainTime   string // Objection drain time
	maxTimeout  string // Objection max timeout (0 disables)
	metricsFile string // Prometheus textfile output

	// CLI flags for debug options
	configFile string            // YAML config file
	noConfig   bool              // Skip the default config file
	debugMask  string            // --debug [MASK]
	injectMask string            // --inject [MASK]
	traceName  string            // --trace [NAME]
	quiet      bool              // Verbosity LOW
	verbose    bool              // Verbosity HIGH
	warn       bool              // Warn on bad settings
	werror     bool              // Treat warnings as errors
	parseOnly  bool              // Stop after parsing
	counts     map[string]string // --count NAME=N
	times      map[string]string // --time NAME=TIME
	flags      map[string]string // --flag NAME=BOOL
	texts      map[string]string // --text NAME=TEXT
	values     map[string]string // --value NAME=FLOAT
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "simdebug",
	Short: "Debugging, reporting and shutdown control for discrete-event simulations",
}

// runCmd runs the worker simulation using parameters from CLI flags and config
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the worker simulation and exit with its pass/fail status",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		code, err := runSimulation(cmd, os.Args[0])
		if err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}
		os.Exit(code)
	},
}

// Execute runs the CLI root command
func Execute() {
	rootCmd.SetArgs(options.NormalizeArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for random delays")
	runCmd.Flags().IntVar(&workers, "workers", 3, "Number of worker processes")
	runCmd.Flags().IntVar(&reps, "reps", 0, "Delays per worker (default: count \"reps\" or 10)")
	runCmd.Flags().StringVar(&drainTime, "drain-time", "1_ns", "Grace period after the last objection drops")
	runCmd.Flags().StringVar(&maxTimeout, "max-timeout", "100_ms", "Stop unconditionally after this simulated time (0 disables)")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write prometheus metrics to this file at exit")

	runCmd.Flags().StringVar(&configFile, "config", "", "YAML configuration file (default: <executable>.yaml if present)")
	runCmd.Flags().BoolVar(&noConfig, "no-config", false, "Do not read the default configuration file")
	runCmd.Flags().StringVar(&debugMask, "debug", "", "Enable debugging bits MASK and DEBUG verbosity")
	runCmd.Flags().Lookup("debug").NoOptDefVal = "1"
	runCmd.Flags().StringVar(&injectMask, "inject", "", "Intentionally inject faults selected by MASK")
	runCmd.Flags().Lookup("inject").NoOptDefVal = "1"
	runCmd.Flags().StringVar(&traceName, "trace", "", "Trace signals to NAME.vcd")
	runCmd.Flags().Lookup("trace").NoOptDefVal = "dump"
	runCmd.Flags().BoolVar(&quiet, "quiet", false, "Set verbosity to LOW")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Set verbosity to HIGH if not debugging")
	runCmd.Flags().BoolVar(&warn, "warn", false, "Warn on malformed settings")
	runCmd.Flags().BoolVar(&werror, "werror", false, "Treat warnings as errors (stop after parsing)")
	runCmd.Flags().BoolVar(&parseOnly, "parse-only", false, "Process options and stop before simulating (also -n)")
	runCmd.Flags().StringToStringVar(&counts, "count", nil, "Set named counts, e.g. --count reps=1000 (also -nreps=1'000)")
	runCmd.Flags().StringToStringVar(&times, "time", nil, "Set named times, e.g. --time start=10_ns (also -tstart=10ns)")
	runCmd.Flags().StringToStringVar(&flags, "flag", nil, "Set named flags, e.g. --flag member=true")
	runCmd.Flags().StringToStringVar(&texts, "text", nil, "Set named texts, e.g. --text name=Bob")
	runCmd.Flags().StringToStringVar(&values, "value", nil, "Set named values, e.g. --value ratio=0.5")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
