package sim

// entry is a scheduled kernel action. Entries fire in (at, seqID) order so
// that actions scheduled for the same instant run in FIFO order.
type entry struct {
	at    Time
	seqID int64
	fire  func()

	// Set for process wake-ups; the entry is stale once the wait it
	// belongs to has ended.
	proc *Process
	gen  uint64
}

func (e *entry) stale() bool {
	return e.proc != nil && (e.proc.state != stateSuspended || e.proc.gen != e.gen)
}

// EventQueue is a min-heap ordered by (at, seqID).
// Implements heap.Interface.
type EventQueue []*entry

func (q EventQueue) Len() int { return len(q) }

func (q EventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seqID < q[j].seqID
}

func (q EventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *EventQueue) Push(x any) {
	*q = append(*q, x.(*entry))
}

func (q *EventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

type waiter struct {
	proc *Process
	gen  uint64
}

// Event is a notification point processes can suspend on.
// Notifications are not remembered: a Notify with no waiters has no effect.
type Event struct {
	sim     *Simulator
	name    string
	waiters []waiter
}

// NewEvent creates an event bound to this simulator.
func (s *Simulator) NewEvent(name string) *Event {
	return &Event{sim: s, name: name}
}

// Name returns the event's name.
func (e *Event) Name() string { return e.name }

// Notify wakes every process currently waiting on e. The woken processes run
// later in the current instant, after the notifying process yields.
func (e *Event) Notify() {
	ws := e.waiters
	e.waiters = nil
	for _, w := range ws {
		e.sim.scheduleWake(e.sim.clock, w.proc, w.gen, e)
	}
}

// NotifyAfter wakes the processes waiting on e once d has elapsed.
func (e *Event) NotifyAfter(d Time) {
	mustNotBeNegative("NotifyAfter", d)
	e.sim.schedule(e.sim.clock.Add(d), e.trigger)
}

func (e *Event) trigger() {
	ws := e.waiters
	e.waiters = nil
	for _, w := range ws {
		e.sim.wake(w.proc, w.gen, e)
	}
}

// add registers p and drops waiters whose wait has already ended.
func (e *Event) add(p *Process, gen uint64) {
	live := e.waiters[:0]
	for _, w := range e.waiters {
		if w.proc.gen == w.gen && w.proc.state == stateSuspended {
			live = append(live, w)
		}
	}
	e.waiters = append(live, waiter{proc: p, gen: gen})
}
