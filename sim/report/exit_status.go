package report

import (
	"fmt"
	"strings"
)

const msgType = "/simdebug/report"

// Verdict is the outcome of reconciling emitted diagnostics against
// expectations.
type Verdict struct {
	// Remaining holds per-severity counts left after expected diagnostics
	// were debited and missed expectations were reclassified as errors.
	Remaining [numSeverities]int
	Expected  int
	Surprises int
	Summary   string
}

// Passed reports whether no errors or fatals remain.
func (v Verdict) Passed() bool {
	return v.Remaining[Error] == 0 && v.Remaining[Fatal] == 0
}

// Code returns the process exit code for the verdict: 0 on pass, 1 on fail.
func (v Verdict) Code() int {
	if v.Passed() {
		return 0
	}
	return 1
}

// Reconcile debits expected diagnostics from the raw counts and reclassifies
// every shortfall as an error. It reports an error for each shortfall but
// emits no summary; see ExitStatus.
//
// Detailed per-label matching is used for every severity as soon as any
// SeeExpected call was made, for any severity. Without such calls the
// expected totals are debited in bulk.
func (h *Handler) Reconcile(project string) Verdict {
	var v Verdict
	for _, sev := range Severities {
		v.Remaining[sev] = h.counts[sev]
	}
	v.Expected = h.expect.Expected(All)
	detailed := h.expect.Observed(All) > 0

	// Shortfalls are booked as errors only after every severity, ERROR
	// included, has been debited from its own raw count.
	reclassified := 0
	for _, sev := range Severities {
		switch {
		case v.Expected == 0:
		case !detailed:
			want := h.expect.Expected(sev)
			if v.Remaining[sev] < want {
				short := want - v.Remaining[sev]
				v.Surprises += short
				h.Reportf(Error, msgType, "Missed %d of %d expected %s messages", short, want, sev)
				v.Remaining[sev] = 0
				reclassified += short
			} else {
				v.Remaining[sev] -= want
			}
		default:
			for _, label := range h.expect.labels(sev) {
				k := expectKey{sev, label}
				want, got := h.expect.expected[k], h.expect.observed[k]
				if got >= want {
					v.Remaining[sev] = debit(v.Remaining[sev], want)
					continue
				}
				short := want - got
				v.Surprises += short
				h.Reportf(Error, msgType, "Missed %d of %d expected %s messages from %q", short, want, sev, label)
				v.Remaining[sev] = debit(v.Remaining[sev], got)
				reclassified += short
			}
		}
	}
	v.Remaining[Error] += reclassified

	var lines []string
	for _, sev := range Severities {
		if n := v.Remaining[sev]; n > 0 {
			lines = append(lines, fmt.Sprintf("  %d %s messages", n, sev))
		}
	}
	if v.Expected > 0 {
		lines = append(lines, fmt.Sprintf("  Expected %d problems", v.Expected))
	}
	if n := v.Expected - v.Surprises; n > 0 {
		lines = append(lines, fmt.Sprintf("  Observed %d expected problems", n))
	}
	if v.Surprises > 0 {
		lines = append(lines, fmt.Sprintf("  Surprised by %d missed expectations", v.Surprises))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nStatus report for %s\n", project)
	b.WriteString(strings.Repeat("-", len("Status report for ")+len(project)) + "\n")
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
	if v.Passed() {
		b.WriteString(h.verdictText(true, "  Simulation PASSED"))
	} else {
		b.WriteString(h.verdictText(false, "  Simulation FAILED"))
	}
	v.Summary = b.String()
	return v
}

// ExitStatus reconciles the run, emits the summary as a single diagnostic,
// calls the breakpoint hook and returns the exit code (0 pass, 1 fail).
// Call it once, after the simulation has ended.
func (h *Handler) ExitStatus(project string) int {
	v := h.Reconcile(project)
	h.ReportVerb(msgType, v.Summary, None)
	h.Breakpoint("exit_status")
	return v.Code()
}

func (h *Handler) verdictText(pass bool, text string) string {
	if !h.color {
		return text
	}
	if pass {
		return h.styles.Pass.Render(text)
	}
	return h.styles.Fail.Render(text)
}

// debit subtracts n from count without going below zero. Observations
// booked via SeeExpected need not coincide with emitted diagnostics.
func debit(count, n int) int {
	if n > count {
		return 0
	}
	return count - n
}
