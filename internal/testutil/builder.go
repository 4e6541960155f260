package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/prodtests/internal/history"
)

// Builder accumulates runs and records them oldest first.
type Builder struct {
	t     *testing.T
	store history.Store
	now   time.Time
	runs  []history.Run
}

// NewBuilder creates a builder recording into store. Runs are spaced one
// minute apart ending at now.
func NewBuilder(t *testing.T, store history.Store, now time.Time) *Builder {
	t.Helper()
	return &Builder{t: t, store: store, now: now}
}

// WithRun adds a run of setID with optional configuration.
func (b *Builder) WithRun(setID string, opts ...RunOption) *Builder {
	run := defaultRun(setID, time.Time{})
	for _, opt := range opts {
		opt(&run)
	}
	b.runs = append(b.runs, run)
	return b
}

// Build records every run and returns them with ids assigned, oldest first.
func (b *Builder) Build() []history.Run {
	b.t.Helper()
	out := make([]history.Run, 0, len(b.runs))
	for i, run := range b.runs {
		took := run.FinishedAt.Sub(run.StartedAt)
		run.StartedAt = b.now.Add(-time.Duration(len(b.runs)-i) * time.Minute)
		run.FinishedAt = run.StartedAt.Add(took)
		require.NoError(b.t, b.store.Record(context.Background(), &run))
		out = append(out, run)
	}
	return out
}
