package objection

import (
	"fmt"

	"github.com/simdebug/simdebug/sim"
	"github.com/simdebug/simdebug/sim/report"
)

// SetDrainTime sets the grace period between the last objection dropping
// and the simulation stopping. It may be changed at any time. A negative d
// is a programming error.
func (l *Ledger) SetDrainTime(d sim.Time) {
	if d < 0 {
		l.precondition(fmt.Sprintf("negative drain time %d ps", int64(d)))
	}
	l.drainTime = d
}

// DrainTime returns the current drain time.
func (l *Ledger) DrainTime() sim.Time { return l.drainTime }

// MaxTimeout returns the last timeout set, or sim.MaxTime if none is armed.
func (l *Ledger) MaxTimeout() sim.Time {
	if l.maxTimeout == 0 {
		return sim.MaxTime
	}
	return l.maxTimeout
}

// TimeoutDeadline returns the simulated time at which the watchdog fires,
// or zero if it is disarmed.
func (l *Ledger) TimeoutDeadline() sim.Time { return l.timeoutDeadline }

// SetMaxTimeout replaces the watchdog. A non-zero d stops the simulation
// with a fatal diagnostic at now+d regardless of outstanding objections.
// Zero disarms the watchdog and a negative d is a programming error. A
// deadline past sim.MaxTime is clamped to it. An unset drain time is raised to the kernel
// resolution so the drain monitor never spins at a single instant.
func (l *Ledger) SetMaxTimeout(d sim.Time) {
	if d < 0 {
		l.precondition(fmt.Sprintf("negative max timeout %d ps", int64(d)))
	}
	if l.drainTime == 0 {
		l.drainTime = sim.Resolution
	}
	if l.watcher != nil {
		l.watcher.Kill()
		l.watcher = nil
	}
	l.maxTimeout = d
	if d == 0 {
		l.timeoutDeadline = 0
		return
	}
	l.timeoutDeadline = l.kernel.Now().Add(d)
	l.watcher = l.kernel.Spawn("objection.timeout", func(p *sim.Process) {
		p.Wait(d)
		l.kernel.Report(report.Fatal, msgType,
			fmt.Sprintf("Shutting down due to max timeout %s reached with %d objections active", d, len(l.active)))
		l.kernel.Stop()
	})
}

// drainCheck runs synchronously after every drop.
func (l *Ledger) drainCheck(label string) {
	l.lastDropped = label
	if len(l.active) != 0 || !l.kernel.IsRunning() {
		return
	}
	// Wakes a monitor already counting down; ignored while none is waiting.
	l.drained.Notify()
	if l.monitor == nil {
		l.monitor = l.kernel.Spawn("objection.drain", l.drainMonitor)
	}
}

// drainMonitor is spawned once. It stops the simulation when a full drain
// time passes without any drop activity and with no objection outstanding.
func (l *Ledger) drainMonitor(p *sim.Process) {
	for {
		if p.WaitAny(l.drainTime, l.drained) {
			// Another drain happened inside the window: start over.
			continue
		}
		if len(l.active) == 0 {
			l.kernel.ReportVerb(msgType,
				fmt.Sprintf("Shutting down due to last objection lowered in %s", l.lastDropped), report.None)
			l.kernel.Stop()
			return
		}
		p.WaitEvent(l.drained)
	}
}
