// Package sim provides a small cooperative discrete-event kernel and the
// debugging, reporting and lifecycle utilities built on top of it.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - time.go: simulated time, units and parsing
//   - event.go: the event queue and notifiable events
//   - process.go: cooperative processes (Spawn, Wait, WaitEvent, WaitAny, Kill)
//   - simulator.go: the dispatch loop and shutdown
//
// # Architecture
//
// The kernel is single-threaded in effect: every process has its own
// goroutine, but control is handed off through channels so that exactly one
// of them runs at a time. Shared state therefore needs no locking as long as
// it is only touched from process bodies or kernel callbacks.
//
// Utilities live in sub-packages:
//   - sim/report/: severity-levelled diagnostics, expectations and the
//     end-of-run verdict (Handler.ExitStatus)
//   - sim/objection/: named keep-alive tokens that stop the simulation once
//     all work has drained, plus a hard timeout
//   - sim/options/: debug/inject masks, verbosity, named parameters and the
//     YAML configuration file
//   - sim/trace/: VCD waveform output
//   - sim/stopwatch/: wall-clock timing of elaboration and simulation
//   - sim/metrics/: prometheus collectors for diagnostics and objections
package sim
