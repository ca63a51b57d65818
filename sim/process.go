package sim

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

type procState int

const (
	stateCreated procState = iota
	stateRunning
	stateSuspended
	stateTerminated
)

// wake is delivered to a suspended process when it is resumed.
type wake struct {
	event *Event // non-nil when the wait ended because of an event
	kill  bool
}

// Process is a cooperative task. Each process runs on its own goroutine, but
// control is handed off explicitly so that exactly one process (or the
// scheduler) executes at any moment. Processes only give up control inside
// Wait, WaitEvent and WaitAny.
type Process struct {
	sim    *Simulator
	id     int
	name   string
	body   func(*Process)
	state  procState
	gen    uint64
	resume chan wake
	parked chan struct{}
}

// PanicError carries a panic raised inside a process body to the caller of Run.
type PanicError struct {
	Process string
	Value   any
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("process %s panicked: %v", e.Process, e.Value)
}

// Spawn schedules body as a new process starting at the current time.
// It may be called before Run, in which case the process starts at time zero.
func (s *Simulator) Spawn(name string, body func(*Process)) *Process {
	s.nextPID++
	p := &Process{
		sim:    s,
		id:     s.nextPID,
		name:   name,
		body:   body,
		resume: make(chan wake),
		parked: make(chan struct{}),
	}
	s.procs[p.id] = p
	s.schedule(s.clock, func() { s.start(p) })
	return p
}

// Name returns the process name given to Spawn.
func (p *Process) Name() string { return p.name }

// Terminated reports whether the process body has returned or been killed.
func (p *Process) Terminated() bool { return p.state == stateTerminated }

// Sim returns the simulator that owns the process.
func (p *Process) Sim() *Simulator { return p.sim }

// Wait suspends the process for d. A wait reaching past MaxTime ends at
// MaxTime.
func (p *Process) Wait(d Time) {
	p.mustBeCurrent("Wait")
	mustNotBeNegative("Wait", d)
	gen := p.arm()
	p.sim.scheduleWake(p.sim.clock.Add(d), p, gen, nil)
	p.suspend()
}

// WaitEvent suspends the process until ev is notified.
func (p *Process) WaitEvent(ev *Event) {
	p.mustBeCurrent("WaitEvent")
	gen := p.arm()
	ev.add(p, gen)
	p.suspend()
}

// WaitAny suspends the process until ev is notified or d elapses, whichever
// comes first. It reports whether the event ended the wait.
func (p *Process) WaitAny(d Time, ev *Event) bool {
	p.mustBeCurrent("WaitAny")
	mustNotBeNegative("WaitAny", d)
	gen := p.arm()
	ev.add(p, gen)
	p.sim.scheduleWake(p.sim.clock.Add(d), p, gen, nil)
	return p.suspend().event != nil
}

// Kill terminates the process. A suspended process is resumed just long
// enough to unwind, so its deferred calls run before Kill returns. Killing
// the calling process does not return.
func (p *Process) Kill() {
	s := p.sim
	switch p.state {
	case stateTerminated:
		return
	case stateCreated:
		p.state = stateTerminated
		delete(s.procs, p.id)
	case stateSuspended:
		p.gen++
		s.switchTo(p, wake{kill: true})
	case stateRunning:
		if s.current != p {
			panic(fmt.Sprintf("sim: cannot kill process %s while it is handing off control", p.name))
		}
		runtime.Goexit()
	}
}

func (p *Process) mustBeCurrent(op string) {
	if p.sim.current != p {
		panic(fmt.Sprintf("sim: %s called on process %s from outside its own body", op, p.name))
	}
}

func mustNotBeNegative(op string, d Time) {
	if d < 0 {
		panic(fmt.Sprintf("sim: %s called with negative duration %d ps", op, int64(d)))
	}
}

// arm invalidates any wake-ups left over from a previous wait.
func (p *Process) arm() uint64 {
	p.gen++
	return p.gen
}

func (p *Process) suspend() wake {
	p.state = stateSuspended
	p.parked <- struct{}{}
	w := <-p.resume
	if w.kill {
		runtime.Goexit()
	}
	p.state = stateRunning
	return w
}

func (p *Process) run() {
	defer func() {
		if r := recover(); r != nil && p.sim.panicked == nil {
			p.sim.panicked = &PanicError{Process: p.name, Value: r, Stack: debug.Stack()}
		}
		p.state = stateTerminated
		delete(p.sim.procs, p.id)
		p.parked <- struct{}{}
	}()
	<-p.resume
	p.state = stateRunning
	p.body(p)
}
