// Package objection stops a simulation once every outstanding piece of work
// has finished.
//
// Work in progress is announced by raising a uniquely named objection and
// withdrawn by dropping it, usually with defer:
//
//	obj := ledger.Raise("top.producer")
//	defer obj.Drop()
//
// When the last objection drops while the simulation is running, a drain
// monitor waits for the drain time. If no objection activity happens in that
// window the simulation is stopped. Independently, SetMaxTimeout arms a
// watchdog that stops the simulation after a fixed time no matter what.
package objection

import (
	"fmt"
	"sort"

	"github.com/simdebug/simdebug/sim"
	"github.com/simdebug/simdebug/sim/report"
)

const msgType = "/simdebug/objection"

// Kernel is the part of the simulator the ledger depends on.
type Kernel interface {
	Now() sim.Time
	IsRunning() bool
	Stop()
	Spawn(name string, body func(*sim.Process)) *sim.Process
	NewEvent(name string) *sim.Event
	Report(sev report.Severity, msgType, msg string)
	ReportVerb(msgType, msg string, v report.Verbosity)
}

// Metrics receives ledger activity. *metrics.Metrics satisfies it.
type Metrics interface {
	ObjectionRaised()
	ObjectionsActive(n int)
}

// Ledger tracks the outstanding objections of one simulation.
//
// Thread-safety: NOT thread-safe. The ledger must only be used from process
// bodies and kernel callbacks of its own simulator.
type Ledger struct {
	kernel  Kernel
	metrics Metrics

	active       map[string]struct{}
	totalCreated int
	lastDropped  string

	drainTime       sim.Time
	maxTimeout      sim.Time
	timeoutDeadline sim.Time

	drained *sim.Event
	monitor *sim.Process
	watcher *sim.Process
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithMetrics reports raise/drop activity to m.
func WithMetrics(m Metrics) LedgerOption {
	return func(l *Ledger) { l.metrics = m }
}

// NewLedger creates an empty ledger bound to k.
func NewLedger(k Kernel, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		kernel:  k,
		active:  make(map[string]struct{}),
		drained: k.NewEvent("objections_drained"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Objection is a raised keep-alive token. Drop it exactly once, typically
// with defer; further Drop calls on the same handle do nothing.
type Objection struct {
	ledger    *Ledger
	label     string
	verbosity report.Verbosity
	quiet     bool
	dropped   bool
}

// Option configures an Objection.
type Option func(*Objection)

// WithVerbosity sets the verbosity of the raise/drop trace messages.
// The default is report.High.
func WithVerbosity(v report.Verbosity) Option {
	return func(o *Objection) { o.verbosity = v }
}

// Quiet suppresses the raise/drop trace messages.
func Quiet() Option {
	return func(o *Objection) { o.quiet = true }
}

// Raise registers a new objection. The label must be non-empty and not held
// by any active objection; violating that is a programming error, reported
// as a fatal diagnostic followed by a panic.
func (l *Ledger) Raise(label string, opts ...Option) *Objection {
	if label == "" {
		l.precondition("objection label must not be empty")
	}
	if _, dup := l.active[label]; dup {
		l.precondition(fmt.Sprintf("objection %q is already raised", label))
	}
	o := &Objection{ledger: l, label: label, verbosity: report.High}
	for _, opt := range opts {
		opt(o)
	}
	l.active[label] = struct{}{}
	l.totalCreated++
	if l.metrics != nil {
		l.metrics.ObjectionRaised()
		l.metrics.ObjectionsActive(len(l.active))
	}
	o.trace("Raising")
	return o
}

// Scoped raises an objection for the duration of fn. The objection is
// dropped even if fn panics or its process is killed.
func (l *Ledger) Scoped(label string, fn func(), opts ...Option) {
	o := l.Raise(label, opts...)
	defer o.Drop()
	fn()
}

// Label returns the objection's label.
func (o *Objection) Label() string { return o.label }

// SetQuiet changes whether raise/drop messages are suppressed and returns
// the previous setting.
func (o *Objection) SetQuiet(quiet bool) bool {
	prev := o.quiet
	o.quiet = quiet
	return prev
}

// Quiet reports whether raise/drop messages are suppressed.
func (o *Objection) Quiet() bool { return o.quiet }

// Drop withdraws the objection and, if it was the last one, starts the
// drain countdown.
func (o *Objection) Drop() {
	if o.dropped {
		return
	}
	o.dropped = true
	l := o.ledger
	if _, ok := l.active[o.label]; !ok {
		l.precondition(fmt.Sprintf("dropping objection %q that is not raised", o.label))
	}
	delete(l.active, o.label)
	if l.metrics != nil {
		l.metrics.ObjectionsActive(len(l.active))
	}
	o.trace("Dropping")
	l.drainCheck(o.label)
}

func (o *Objection) trace(verb string) {
	if o.quiet {
		return
	}
	k := o.ledger.kernel
	k.ReportVerb(msgType, fmt.Sprintf("%s objection %s at %s", verb, o.label, k.Now()), o.verbosity)
}

// ActiveCount returns the number of outstanding objections.
func (l *Ledger) ActiveCount() int { return len(l.active) }

// TotalCreated returns how many objections have ever been raised.
func (l *Ledger) TotalCreated() int { return l.totalCreated }

// Active returns the labels of the outstanding objections, sorted.
func (l *Ledger) Active() []string {
	out := make([]string, 0, len(l.active))
	for label := range l.active {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

func (l *Ledger) precondition(msg string) {
	l.kernel.Report(report.Fatal, msgType, msg)
	panic("objection: " + msg)
}
