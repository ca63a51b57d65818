// Package testutil provides shared test infrastructure for the simdebug
// packages. It consolidates the log capture helpers used by the sim/,
// sim/report/ and sim/objection/ test packages.
package testutil

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a plain-text logger at Debug level that writes into the
// returned buffer. Pass it to report.WithLogger to inspect rendered
// diagnostics.
func NewLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	return l, &buf
}

// CaptureLogOutput runs fn with the standard logger redirected at level and
// returns what was logged.
func CaptureLogOutput(level logrus.Level, fn func()) string {
	var buf bytes.Buffer
	std := logrus.StandardLogger()
	origOutput := std.Out
	origLevel := logrus.GetLevel()
	origFormatter := std.Formatter
	logrus.SetOutput(&buf)
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	defer func() {
		if origOutput != nil {
			logrus.SetOutput(origOutput)
		} else {
			logrus.SetOutput(os.Stderr)
		}
		logrus.SetLevel(origLevel)
		logrus.SetFormatter(origFormatter)
	}()
	fn()
	return buf.String()
}
