package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitStatus_CleanRunPasses(t *testing.T) {
	// GIVEN a run with only informational messages
	h, buf := newTestHandler(t)
	h.Report(Info, "/i", "all good")

	// WHEN the exit status is computed
	code := h.ExitStatus("clean")

	// THEN it passes and says so
	assert.Equal(t, 0, code)
	assert.Contains(t, buf.String(), "Status report for clean")
	assert.Contains(t, buf.String(), "Simulation PASSED")
}

func TestExitStatus_UnexpectedErrorFails(t *testing.T) {
	// GIVEN a run with one unexpected error
	h, buf := newTestHandler(t)
	h.Report(Error, "/e", "oops")

	// WHEN the exit status is computed
	code := h.ExitStatus("broken")

	// THEN it fails
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "1 ERROR messages")
	assert.Contains(t, buf.String(), "Simulation FAILED")
}

func TestExitStatus_UnexpectedFatalFails(t *testing.T) {
	h, _ := newTestHandler(t)
	h.Report(Fatal, "/f", "dead")
	assert.Equal(t, 1, h.ExitStatus("fatal"))
}

func TestReconcile_BulkExpectationsDebitCounts(t *testing.T) {
	// GIVEN two expected warnings without per-label observations
	h, _ := newTestHandler(t)
	h.AddExpected(Warning, "", 2)
	h.Report(Warning, "/w", "one")
	h.Report(Warning, "/w", "two")

	// WHEN reconciled
	v := h.Reconcile("bulk")

	// THEN the warnings are consumed and the run passes
	assert.True(t, v.Passed())
	assert.Equal(t, 0, v.Remaining[Warning])
	assert.Equal(t, 2, v.Expected)
	assert.Equal(t, 0, v.Surprises)
	assert.Contains(t, v.Summary, "Expected 2 problems")
	assert.Contains(t, v.Summary, "Observed 2 expected problems")
	assert.NotContains(t, v.Summary, "Surprised")
}

func TestReconcile_BulkShortfallBecomesErrors(t *testing.T) {
	// GIVEN three expected errors of which only one happened
	h, buf := newTestHandler(t)
	h.AddExpected(Error, "", 3)
	h.Report(Error, "/e", "only one")

	// WHEN reconciled
	v := h.Reconcile("short")

	// THEN the two missing errors are reclassified as errors and the run fails
	assert.False(t, v.Passed())
	assert.Equal(t, 2, v.Remaining[Error])
	assert.Equal(t, 2, v.Surprises)
	assert.Equal(t, 1, v.Code())
	assert.Contains(t, buf.String(), "Missed 2 of 3 expected ERROR messages")
	assert.Contains(t, v.Summary, "Surprised by 2 missed expectations")
	assert.Contains(t, v.Summary, "Observed 1 expected problems")
}

func TestReconcile_ShortfallsDoNotPayForOtherSeverities(t *testing.T) {
	// GIVEN expected warnings and errors but no diagnostics at all
	h, _ := newTestHandler(t)
	h.AddExpected(Warning, "", 2)
	h.AddExpected(Error, "", 2)

	// WHEN reconciled
	v := h.Reconcile("silent")

	// THEN every missed expectation is a surprise and the run fails
	assert.False(t, v.Passed())
	assert.Equal(t, 4, v.Surprises)
	assert.Equal(t, 4, v.Remaining[Error])
	assert.Equal(t, 0, v.Remaining[Warning])
	assert.Contains(t, v.Summary, "Surprised by 4 missed expectations")
	assert.NotContains(t, v.Summary, "Observed")
	assert.Contains(t, v.Summary, "Simulation FAILED")
}

func TestReconcile_DetailedMatchingByLabel(t *testing.T) {
	// GIVEN expected warnings that are each observed under their label
	h, _ := newTestHandler(t)
	h.AddExpected(Warning, "inject", 2)
	for i := 0; i < 2; i++ {
		h.Report(Warning, "/w", "injected")
		h.SeeExpected(Warning, "inject")
	}

	// WHEN reconciled
	v := h.Reconcile("detailed")

	// THEN every expected warning is accounted for
	assert.True(t, v.Passed())
	assert.Equal(t, 0, v.Remaining[Warning])
	assert.Equal(t, 0, v.Surprises)
}

func TestReconcile_DetailedShortfallNamesLabel(t *testing.T) {
	// GIVEN two expected warnings of which one was observed
	h, buf := newTestHandler(t)
	h.AddExpected(Warning, "late", 2)
	h.Report(Warning, "/w", "first")
	h.SeeExpected(Warning, "late")

	// WHEN reconciled
	v := h.Reconcile("detailed")

	// THEN the shortfall is an error naming the label
	assert.False(t, v.Passed())
	assert.Equal(t, 1, v.Remaining[Error])
	assert.Equal(t, 0, v.Remaining[Warning])
	assert.Contains(t, buf.String(), `Missed 1 of 2 expected WARNING messages from \"late\"`)
}

func TestReconcile_ExpectedErrorsPass(t *testing.T) {
	// GIVEN an error that was expected and observed
	h, _ := newTestHandler(t)
	h.AddExpected(Error, "negative", 1)
	h.Report(Error, "/e", "intentional")
	h.SeeExpected(Error, "negative")

	// WHEN the exit status is computed
	code := h.ExitStatus("negative test")

	// THEN the run passes
	assert.Equal(t, 0, code)
}

func TestReconcile_AnyObservationSwitchesAllSeveritiesToDetailed(t *testing.T) {
	// GIVEN a bulk warning expectation next to an observed error expectation
	h, _ := newTestHandler(t)
	h.AddExpected(Warning, "", 1)
	h.Report(Warning, "/w", "reported but never observed")
	h.AddExpected(Error, "e", 1)
	h.Report(Error, "/e", "observed")
	h.SeeExpected(Error, "e")

	// WHEN reconciled
	v := h.Reconcile("mixed")

	// THEN the warning is matched per label too and counts as missed
	assert.False(t, v.Passed())
	assert.Equal(t, 1, v.Surprises)
	assert.Equal(t, 1, v.Remaining[Warning])
	assert.Equal(t, 1, v.Remaining[Error])
}

func TestReconcile_ObservationsNeverDriveCountsNegative(t *testing.T) {
	// GIVEN an observation booked without a matching diagnostic
	h, _ := newTestHandler(t)
	h.AddExpected(Warning, "ghost", 1)
	h.SeeExpected(Warning, "ghost")

	// WHEN reconciled
	v := h.Reconcile("ghost")

	// THEN the warning count saturates at zero
	assert.Equal(t, 0, v.Remaining[Warning])
	assert.True(t, v.Passed())
}

func TestExitStatus_SummaryShownWhenQuietAndBreakpointCalled(t *testing.T) {
	// GIVEN a handler at the lowest verbosity with a breakpoint hook
	h, buf := newTestHandler(t)
	h.SetVerbosity(None)
	var tags []string
	h.SetBreakpoint(func(tag string) { tags = append(tags, tag) })

	// WHEN the exit status is computed
	h.ExitStatus("quiet")

	// THEN the summary is still displayed and the hook fired once
	assert.Contains(t, buf.String(), "Simulation PASSED")
	assert.Equal(t, []string{"exit_status"}, tags)
}

func TestExpectations_UnknownLabelBooksAgainstAnonymous(t *testing.T) {
	e := NewExpectations()
	e.Add(Warning, "known", 1)
	e.Add(Warning, "ignored", 0)
	e.See(Warning, "known")
	e.See(Warning, "stranger")

	assert.Equal(t, 1, e.Expected(Warning))
	assert.Equal(t, 2, e.Observed(Warning))
	assert.Equal(t, 2, e.Observed(All))
	assert.Equal(t, []string{"known"}, e.labels(Warning))
	assert.Equal(t, 1, e.observed[expectKey{Warning, ""}])
	assert.Panics(t, func() { e.Add(All, "x", 1) })
}
