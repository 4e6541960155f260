package testutil

import (
	"time"

	"github.com/zjrosen/prodtests/internal/history"
)

// RunOption configures a run during builder setup.
type RunOption func(*history.Run)

// defaultRun is a passing run of every test on the standard part number.
func defaultRun(setID string, at time.Time) history.Run {
	return history.Run{
		PartNumber: StandardPartNumber,
		SetID:      setID,
		SetName:    setID,
		Total:      5,
		Completed:  5,
		Outcome:    history.Passed,
		StartedAt:  at,
		FinishedAt: at.Add(30 * time.Second),
	}
}

// SetName overrides the set name.
func SetName(name string) RunOption {
	return func(r *history.Run) { r.SetName = name }
}

// PartNumber overrides the full part number.
func PartNumber(pn string) RunOption {
	return func(r *history.Run) { r.PartNumber = pn }
}

// Outcome sets how the run ended.
func Outcome(o history.Outcome) RunOption {
	return func(r *history.Run) { r.Outcome = o }
}

// Progress sets the completed and total counts.
func Progress(completed, total int) RunOption {
	return func(r *history.Run) {
		r.Completed = completed
		r.Total = total
	}
}

// FailedAt marks the run failed on test.
func FailedAt(test string) RunOption {
	return func(r *history.Run) {
		r.Outcome = history.Failed
		r.FailedTest = test
	}
}

// Error records an error message.
func Error(msg string) RunOption {
	return func(r *history.Run) { r.Error = msg }
}

// Took sets the run duration.
func Took(d time.Duration) RunOption {
	return func(r *history.Run) { r.FinishedAt = r.StartedAt.Add(d) }
}
