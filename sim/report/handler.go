package report

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Action is a bit set of what the handler does with a diagnostic of a given
// severity. Every emitted diagnostic is counted regardless of its actions.
type Action uint

const (
	ActionDisplay Action = 1 << iota // render through the logger
	ActionStop                       // request simulation shutdown

	ActionNone Action = 0
)

// DiagnosticObserver is notified of every counted diagnostic.
type DiagnosticObserver interface {
	ObserveDiagnostic(severity string)
}

// Handler counts, filters and renders diagnostics. It also holds the
// expectations reconciled by ExitStatus.
//
// Thread-safety: NOT thread-safe. Intended to be driven from the single
// active process of a cooperative simulation.
type Handler struct {
	logger     *logrus.Logger
	clock      func() string
	verbosity  Verbosity
	counts     [numSeverities]int
	typeCounts map[string]int
	actions    [numSeverities]Action
	stop       func()
	color      bool
	styles     *Styles
	observer   DiagnosticObserver
	expect     *Expectations
	breakpoint func(tag string)
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger renders diagnostics through l instead of the standard logger.
func WithLogger(l *logrus.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithClock stamps each diagnostic with the value returned by fn.
func WithClock(fn func() string) Option {
	return func(h *Handler) { h.clock = fn }
}

// WithColor forces colored rendering on or off.
func WithColor(enabled bool) Option {
	return func(h *Handler) { h.color = enabled }
}

// WithObserver forwards counted diagnostics to o.
func WithObserver(o DiagnosticObserver) Option {
	return func(h *Handler) { h.observer = o }
}

// NewHandler returns a handler at Medium verbosity. Fatal diagnostics are
// displayed and stop the simulation; everything else is only displayed.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		logger:     logrus.StandardLogger(),
		clock:      func() string { return "" },
		verbosity:  Medium,
		typeCounts: make(map[string]int),
		stop:       func() {},
		color:      ColorSupported(),
		expect:     NewExpectations(),
		breakpoint: func(string) {},
	}
	h.actions[Info] = ActionDisplay
	h.actions[Warning] = ActionDisplay
	h.actions[Error] = ActionDisplay
	h.actions[Fatal] = ActionDisplay | ActionStop
	for _, opt := range opts {
		opt(h)
	}
	h.styles = NewStyles(h.logger.Out)
	return h
}

// SetStopFunc installs the shutdown request used by ActionStop.
func (h *Handler) SetStopFunc(fn func()) { h.stop = fn }

// SetObserver forwards counted diagnostics to o; nil disables forwarding.
func (h *Handler) SetObserver(o DiagnosticObserver) { h.observer = o }

// SetBreakpoint installs a hook called at notable points such as the end of
// ExitStatus. It is a convenient place for a debugger breakpoint.
func (h *Handler) SetBreakpoint(fn func(tag string)) { h.breakpoint = fn }

// Breakpoint invokes the breakpoint hook.
func (h *Handler) Breakpoint(tag string) { h.breakpoint(tag) }

// SetActions replaces the actions taken for sev.
func (h *Handler) SetActions(sev Severity, a Action) {
	if !sev.valid() {
		panic(fmt.Sprintf("report: SetActions with invalid severity %v", sev))
	}
	h.actions[sev] = a
}

// Actions returns the actions taken for sev.
func (h *Handler) Actions(sev Severity) Action { return h.actions[sev] }

// SetVerbosity sets the level informational diagnostics are filtered at.
func (h *Handler) SetVerbosity(v Verbosity) { h.verbosity = v }

// Verbosity returns the current filter level.
func (h *Handler) Verbosity() Verbosity { return h.verbosity }

// Enabled reports whether an informational diagnostic at v would be emitted.
func (h *Handler) Enabled(v Verbosity) bool { return v <= h.verbosity }

// SetColor turns colored rendering on or off.
func (h *Handler) SetColor(enabled bool) { h.color = enabled }

// Styles returns the styles used for colored rendering.
func (h *Handler) Styles() *Styles { return h.styles }

// Expectations returns the expectation registry reconciled by ExitStatus.
func (h *Handler) Expectations() *Expectations { return h.expect }

// Report emits a diagnostic. Informational diagnostics use Medium verbosity.
func (h *Handler) Report(sev Severity, msgType, msg string) {
	if sev == Info {
		h.ReportVerb(msgType, msg, Medium)
		return
	}
	h.emit(sev, msgType, msg, None)
}

// Reportf is Report with fmt.Sprintf formatting.
func (h *Handler) Reportf(sev Severity, msgType, format string, args ...any) {
	if sev == Info && !h.Enabled(Medium) {
		return
	}
	h.Report(sev, msgType, fmt.Sprintf(format, args...))
}

// ReportVerb emits an informational diagnostic if v is within the current
// verbosity. Filtered diagnostics are not counted.
func (h *Handler) ReportVerb(msgType, msg string, v Verbosity) {
	if !h.Enabled(v) {
		return
	}
	h.emit(Info, msgType, msg, v)
}

// Count returns how many diagnostics of sev have been emitted.
func (h *Handler) Count(sev Severity) int {
	if sev == All {
		total := 0
		for _, c := range h.counts {
			total += c
		}
		return total
	}
	return h.counts[sev]
}

// CountType returns how many diagnostics have been emitted with msgType.
func (h *Handler) CountType(msgType string) int { return h.typeCounts[msgType] }

// Reset clears counts and expectations. Actions and verbosity are kept.
func (h *Handler) Reset() {
	h.counts = [numSeverities]int{}
	h.typeCounts = make(map[string]int)
	h.expect = NewExpectations()
}

func (h *Handler) emit(sev Severity, msgType, msg string, v Verbosity) {
	h.counts[sev]++
	h.typeCounts[msgType]++
	if h.observer != nil {
		h.observer.ObserveDiagnostic(sev.String())
	}
	actions := h.actions[sev]
	if actions&ActionDisplay != 0 {
		h.display(sev, msgType, msg, v)
	}
	if actions&ActionStop != 0 {
		h.stop()
	}
}

func (h *Handler) display(sev Severity, msgType, msg string, v Verbosity) {
	entry := h.logger.WithFields(logrus.Fields{
		"type":     msgType,
		"sim_time": h.clock(),
	})
	if h.color {
		msg = h.styles.Colorize(sev, v, msg)
	}
	switch sev {
	case Info:
		entry.Info(msg)
	case Warning:
		entry.Warn(msg)
	case Error:
		entry.Error(msg)
	case Fatal:
		// entry.Fatal would exit the process; ActionStop handles shutdown.
		entry.WithField("severity", sev.String()).Error(msg)
	}
}
