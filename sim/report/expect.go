package report

import (
	"fmt"
	"sort"
)

type expectKey struct {
	sev   Severity
	label string
}

// Expectations records diagnostics a test intends to provoke, keyed by
// (severity, label). The empty label stands for any label of that severity.
type Expectations struct {
	expected map[expectKey]int
	observed map[expectKey]int
}

// NewExpectations returns an empty registry.
func NewExpectations() *Expectations {
	return &Expectations{
		expected: make(map[expectKey]int),
		observed: make(map[expectKey]int),
	}
}

// Add accumulates n expected diagnostics of sev under label.
func (e *Expectations) Add(sev Severity, label string, n int) {
	if !sev.valid() {
		panic(fmt.Sprintf("report: expectation with invalid severity %v", sev))
	}
	if n <= 0 {
		return
	}
	e.expected[expectKey{sev, label}] += n
}

// See records one occurrence of an expected diagnostic. Occurrences of a
// label that was never expected are booked against the anonymous label.
func (e *Expectations) See(sev Severity, label string) {
	k := expectKey{sev, label}
	if _, ok := e.expected[k]; !ok {
		k.label = ""
	}
	e.observed[k]++
}

// Expected sums expected counts for sev, or for every severity with All.
func (e *Expectations) Expected(sev Severity) int { return sum(e.expected, sev) }

// Observed sums observed counts for sev, or for every severity with All.
func (e *Expectations) Observed(sev Severity) int { return sum(e.observed, sev) }

// labels returns the expected labels for sev in sorted order.
func (e *Expectations) labels(sev Severity) []string {
	var out []string
	for k := range e.expected {
		if k.sev == sev {
			out = append(out, k.label)
		}
	}
	sort.Strings(out)
	return out
}

func sum(m map[expectKey]int, sev Severity) int {
	total := 0
	for k, n := range m {
		if sev == All || k.sev == sev {
			total += n
		}
	}
	return total
}

// AddExpected accumulates n expected diagnostics of sev under label.
func (h *Handler) AddExpected(sev Severity, label string, n int) { h.expect.Add(sev, label, n) }

// SeeExpected records one occurrence of an expected diagnostic.
func (h *Handler) SeeExpected(sev Severity, label string) { h.expect.See(sev, label) }

// Expected sums expected counts for sev (or All).
func (h *Handler) Expected(sev Severity) int { return h.expect.Expected(sev) }

// Observed sums observed counts for sev (or All).
func (h *Handler) Observed(sev Severity) int { return h.expect.Observed(sev) }
