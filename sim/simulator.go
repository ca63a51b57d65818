// sim/simulator.go
package sim

import (
	"container/heap"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/simdebug/simdebug/sim/report"
)

// Status is the lifecycle phase of a Simulator.
type Status int

const (
	StatusElaboration Status = iota // before Run
	StatusRunning
	StatusPaused // RunUntil reached its horizon with work pending
	StatusStopped
)

func (st Status) String() string {
	switch st {
	case StatusElaboration:
		return "ELABORATION"
	case StatusRunning:
		return "RUNNING"
	case StatusPaused:
		return "PAUSED"
	case StatusStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Tracer is sampled every time simulated time is about to advance, and once
// more when the run ends.
type Tracer interface {
	Sample(t Time)
}

// Simulator is the kernel: it owns simulated time, the event queue, the
// processes and the report handler.
type Simulator struct {
	clock         Time
	queue         EventQueue
	seqID         int64
	status        Status
	stopRequested bool

	current *Process
	procs   map[int]*Process
	nextPID int

	panicked        *PanicError
	contextSwitches int
	tracers         []Tracer
	endHooks        []func()

	handler *report.Handler
	RNG     *PartitionedRNG
}

// NewSimulator creates a simulator whose random streams derive from seed.
func NewSimulator(seed int64) *Simulator {
	s := &Simulator{
		queue: make(EventQueue, 0),
		procs: make(map[int]*Process),
		RNG:   NewPartitionedRNG(NewSimulationKey(seed)),
	}
	s.handler = report.NewHandler(report.WithClock(func() string { return s.clock.String() }))
	s.handler.SetStopFunc(s.Stop)
	return s
}

// Handler returns the simulator's report handler.
func (s *Simulator) Handler() *report.Handler { return s.handler }

// Report emits a diagnostic through the simulator's report handler.
func (s *Simulator) Report(sev report.Severity, msgType, msg string) {
	s.handler.Report(sev, msgType, msg)
}

// ReportVerb emits an informational diagnostic filtered by verbosity.
func (s *Simulator) ReportVerb(msgType, msg string, v report.Verbosity) {
	s.handler.ReportVerb(msgType, msg, v)
}

// Now returns the current simulated time.
func (s *Simulator) Now() Time { return s.clock }

// Status returns the current lifecycle phase.
func (s *Simulator) Status() Status { return s.status }

// IsRunning reports whether the simulation has started and not yet stopped.
// A simulator paused between RunUntil calls is still running.
func (s *Simulator) IsRunning() bool {
	return s.status == StatusRunning || s.status == StatusPaused
}

// ContextSwitches returns how many times control was handed to a process
// after time zero.
func (s *Simulator) ContextSwitches() int { return s.contextSwitches }

// AddTracer registers t to be sampled as time advances.
func (s *Simulator) AddTracer(t Tracer) { s.tracers = append(s.tracers, t) }

// AtEndOfSimulation registers fn to run once the simulation stops.
func (s *Simulator) AtEndOfSimulation(fn func()) { s.endHooks = append(s.endHooks, fn) }

// Stop requests an orderly end of the simulation. The action currently
// executing completes; nothing else is dispatched.
func (s *Simulator) Stop() {
	if s.stopRequested {
		return
	}
	s.stopRequested = true
	logrus.Debugf("[%s] stop requested", s.clock)
}

// Run executes until Stop is called or no work remains.
func (s *Simulator) Run() { s.RunUntil(MaxTime) }

// RunUntil executes until Stop is called, no work remains, or the next
// action lies beyond horizon. In the last case the simulator pauses at
// horizon and may be resumed with another call.
func (s *Simulator) RunUntil(horizon Time) {
	if s.status == StatusStopped {
		return
	}
	s.status = StatusRunning
	logrus.Debugf("[%s] simulation running", s.clock)
	for len(s.queue) > 0 && !s.stopRequested {
		next := s.queue[0]
		if next.stale() {
			heap.Pop(&s.queue)
			continue
		}
		if next.at > horizon {
			s.advance(horizon)
			s.status = StatusPaused
			logrus.Debugf("[%s] simulation paused", s.clock)
			return
		}
		heap.Pop(&s.queue)
		s.advance(next.at)
		next.fire()
		if s.panicked != nil {
			s.finish()
			panic(s.panicked)
		}
	}
	s.finish()
}

func (s *Simulator) advance(t Time) {
	if t == s.clock {
		return
	}
	for _, tr := range s.tracers {
		tr.Sample(s.clock)
	}
	s.clock = t
}

// finish kills remaining processes in spawn order and runs end hooks.
func (s *Simulator) finish() {
	s.status = StatusStopped
	ids := make([]int, 0, len(s.procs))
	for id := range s.procs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if p, ok := s.procs[id]; ok {
			p.Kill()
		}
	}
	for _, tr := range s.tracers {
		tr.Sample(s.clock)
	}
	for _, fn := range s.endHooks {
		fn()
	}
	logrus.Debugf("[%s] simulation ended after %d context switches", s.clock, s.contextSwitches)
}

func (s *Simulator) schedule(at Time, fire func()) {
	s.seqID++
	heap.Push(&s.queue, &entry{at: at, seqID: s.seqID, fire: fire})
}

// scheduleWake resumes p at time at, unless the wait identified by gen has
// ended by then. Stale wake-ups are discarded without advancing time.
func (s *Simulator) scheduleWake(at Time, p *Process, gen uint64, ev *Event) {
	s.seqID++
	heap.Push(&s.queue, &entry{
		at:    at,
		seqID: s.seqID,
		fire:  func() { s.wake(p, gen, ev) },
		proc:  p,
		gen:   gen,
	})
}

func (s *Simulator) start(p *Process) {
	if p.state != stateCreated {
		return
	}
	go p.run()
	s.switchTo(p, wake{})
}

// wake resumes p if it is still suspended in the wait identified by gen.
func (s *Simulator) wake(p *Process, gen uint64, ev *Event) {
	if p.state != stateSuspended || p.gen != gen {
		return
	}
	p.gen++
	s.switchTo(p, wake{event: ev})
}

// switchTo hands control to p and blocks until p suspends or terminates.
func (s *Simulator) switchTo(p *Process, w wake) {
	prev := s.current
	s.current = p
	if s.clock > 0 {
		s.contextSwitches++
	}
	p.resume <- w
	<-p.parked
	s.current = prev
}
