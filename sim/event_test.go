package sim

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventQueue_OrdersByTimeThenSequence(t *testing.T) {
	// GIVEN entries pushed out of order, two of them at the same time
	q := make(EventQueue, 0)
	var fired []string
	push := func(at Time, seq int64, name string) {
		heap.Push(&q, &entry{at: at, seqID: seq, fire: func() { fired = append(fired, name) }})
	}
	push(20, 1, "late")
	push(10, 3, "second")
	push(10, 2, "first")
	push(5, 4, "earliest")

	// WHEN the queue is drained
	for q.Len() > 0 {
		heap.Pop(&q).(*entry).fire()
	}

	// THEN entries come out by time, and FIFO within a time
	assert.Equal(t, []string{"earliest", "first", "second", "late"}, fired)
}

func TestEvent_NotifyWithoutWaitersIsLost(t *testing.T) {
	// GIVEN an event notified before anyone waits on it
	s := NewSimulator(1)
	ev := s.NewEvent("ping")
	var woke Time = -1
	s.Spawn("notifier", func(p *Process) { ev.Notify() })
	s.Spawn("waiter", func(p *Process) {
		p.Wait(NS)
		if p.WaitAny(10*NS, ev) {
			woke = s.Now()
		}
	})

	// WHEN the simulation runs
	s.Run()

	// THEN the early notification did not wake the later waiter
	assert.Equal(t, Time(-1), woke)
	assert.Equal(t, 11*NS, s.Now())
	assert.Equal(t, "ping", ev.Name())
}

func TestEvent_NotifyAfterWakesAllWaiters(t *testing.T) {
	// GIVEN two processes waiting on the same event
	s := NewSimulator(1)
	ev := s.NewEvent("go")
	var woke []Time
	for _, name := range []string{"a", "b"} {
		s.Spawn(name, func(p *Process) {
			p.WaitEvent(ev)
			woke = append(woke, s.Now())
		})
	}
	s.Spawn("starter", func(p *Process) { ev.NotifyAfter(7 * NS) })

	// WHEN the simulation runs
	s.Run()

	// THEN both woke at the delayed notification
	assert.Equal(t, []Time{7 * NS, 7 * NS}, woke)
}
