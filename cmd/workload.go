package cmd

import (
	"fmt"
	"math/rand"

	"github.com/simdebug/simdebug/sim"
	"github.com/simdebug/simdebug/sim/objection"
	"github.com/simdebug/simdebug/sim/options"
	"github.com/simdebug/simdebug/sim/report"
)

// Fault-injection bits understood by the worker workload.
const (
	injectWarning uint64 = 1 << 0 // each worker reports an expected warning
	injectError   uint64 = 1 << 1 // each worker reports an unexpected error
)

// Debug bit that logs every delay a worker draws.
const debugDelays uint64 = 1 << 0

const injectLabel = "injected"

// delayChoice is one entry in the weighted delay table.
type delayChoice struct {
	delay  sim.Time
	weight int
}

// delayTable favors short delays: 0 and 10 ns are common, 40 ns is rare.
var delayTable = []delayChoice{
	{0, 35},
	{10 * sim.NS, 35},
	{20 * sim.NS, 20},
	{30 * sim.NS, 7},
	{40 * sim.NS, 3},
}

// workload is a set of workers that each hold an objection while waiting a
// series of random delays. The simulation ends when the last one finishes.
type workload struct {
	sim     *sim.Simulator
	ledger  *objection.Ledger
	opts    *options.Options
	workers int
	reps    int
}

func newWorkload(s *sim.Simulator, ledger *objection.Ledger, opts *options.Options, workers, reps int) *workload {
	return &workload{sim: s, ledger: ledger, opts: opts, workers: workers, reps: reps}
}

// spawn registers expectations for injected faults and starts the workers.
func (w *workload) spawn() {
	if w.opts.Injecting(injectWarning) && w.workers > 0 {
		w.sim.Handler().AddExpected(report.Warning, injectLabel, w.workers)
	}
	for i := 1; i <= w.workers; i++ {
		w.sim.Spawn(fmt.Sprintf("top.worker%d", i), w.run)
	}
}

func (w *workload) run(p *sim.Process) {
	obj := w.ledger.Raise(p.Name(), objection.WithVerbosity(report.Debug))
	defer obj.Drop()

	rng := p.Sim().RNG.ForSubsystem(sim.SubsystemProcess(p.Name()))
	for n := 0; n < w.reps; n++ {
		if n == w.reps/2 {
			w.inject(p)
		}
		d := sim.NS
		if w.reps > 1 {
			d = randomDelay(rng)
		}
		if w.opts.Debugging(debugDelays) {
			w.sim.ReportVerb(msgType, fmt.Sprintf("%s waits %s", p.Name(), d), report.Debug)
		}
		p.Wait(d)
	}
}

func (w *workload) inject(p *sim.Process) {
	if w.opts.Injecting(injectWarning) {
		w.sim.Report(report.Warning, msgType, "Injected warning in "+p.Name())
		w.sim.Handler().SeeExpected(report.Warning, injectLabel)
	}
	if w.opts.Injecting(injectError) {
		w.sim.Report(report.Error, msgType, "Injected error in "+p.Name())
	}
}

// randomDelay draws from delayTable by weight.
func randomDelay(rng *rand.Rand) sim.Time {
	total := 0
	for _, c := range delayTable {
		total += c.weight
	}
	r := rng.Intn(total)
	for _, c := range delayTable {
		if r < c.weight {
			return c.delay
		}
		r -= c.weight
	}
	return delayTable[len(delayTable)-1].delay
}
