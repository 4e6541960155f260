// Package history keeps a local audit trail of run attempts.
package history

import (
	"context"
	"fmt"
	"time"
)

// Outcome is how a run attempt ended.
type Outcome string

const (
	Passed      Outcome = "passed"
	Failed      Outcome = "failed"
	Aborted     Outcome = "aborted"
	FeedLost    Outcome = "feed_lost"
	StartFailed Outcome = "start_failed"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case Passed, Failed, Aborted, FeedLost, StartFailed:
		return true
	}
	return false
}

// Run is one recorded attempt.
type Run struct {
	ID         int64
	PartNumber string
	// SetID is the selection's wire id ("all" for every test).
	SetID      string
	SetName    string
	Total      int
	Completed  int
	Outcome    Outcome
	FailedTest string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is FinishedAt - StartedAt.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Validate checks the fields required for storage.
func (r Run) Validate() error {
	if r.PartNumber == "" {
		return fmt.Errorf("history: part number is required")
	}
	if r.SetID == "" {
		return fmt.Errorf("history: set id is required")
	}
	if !r.Outcome.Valid() {
		return fmt.Errorf("history: unknown outcome %q", r.Outcome)
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("history: start time is required")
	}
	return nil
}

// Store persists run attempts.
type Store interface {
	Record(ctx context.Context, run *Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// Nop discards records. Used when history is disabled.
type Nop struct{}

func (Nop) Record(context.Context, *Run) error       { return nil }
func (Nop) List(context.Context, int) ([]Run, error) { return nil, nil }
func (Nop) Close() error                             { return nil }

var _ Store = Nop{}
