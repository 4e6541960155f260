package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(start time.Time, outcome Outcome) *Run {
	return &Run{
		PartNumber: "S3908-15.0.0",
		SetID:      "all",
		SetName:    "All",
		Total:      5,
		Completed:  5,
		Outcome:    outcome,
		StartedAt:  start,
		FinishedAt: start.Add(42 * time.Second),
	}
}

func TestOpen_CreatesNestedDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Record(context.Background(), sampleRun(time.Now(), Passed)))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	runs, err := second.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.UnixMilli(1_700_000_000_000)

	failed := sampleRun(base.Add(time.Minute), Failed)
	failed.SetID = "3f1c"
	failed.SetName = "Quick"
	failed.Completed = 2
	failed.FailedTest = "Noise Test"

	require.NoError(t, store.Record(ctx, sampleRun(base, Passed)))
	require.NoError(t, store.Record(ctx, failed))
	require.NotZero(t, failed.ID)

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	latest := runs[0]
	require.Equal(t, failed.ID, latest.ID)
	require.Equal(t, Failed, latest.Outcome)
	require.Equal(t, "Noise Test", latest.FailedTest)
	require.Equal(t, "Quick", latest.SetName)
	require.Equal(t, 2, latest.Completed)
	require.True(t, failed.StartedAt.Equal(latest.StartedAt))
	require.Equal(t, 42*time.Second, latest.Duration())

	require.Equal(t, Passed, runs[1].Outcome)
	require.Empty(t, runs[1].FailedTest)
}

func TestList_Limit(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, sampleRun(base.Add(time.Duration(i)*time.Second), Aborted)))
	}

	runs, err := store.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	require.True(t, runs[0].StartedAt.After(runs[2].StartedAt))
}

func TestRecord_MissingFinishUsesStart(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	run := sampleRun(time.Now(), StartFailed)
	run.FinishedAt = time.Time{}
	run.Error = "POST production-tests: 500"

	require.NoError(t, store.Record(ctx, run))

	runs, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, runs[0].Duration())
	require.Equal(t, "POST production-tests: 500", runs[0].Error)
}

func TestRun_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Run)
		wantErr string
	}{
		{"missing part number", func(r *Run) { r.PartNumber = "" }, "part number"},
		{"missing set", func(r *Run) { r.SetID = "" }, "set id"},
		{"unknown outcome", func(r *Run) { r.Outcome = "exploded" }, "unknown outcome"},
		{"zero start", func(r *Run) { r.StartedAt = time.Time{} }, "start time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := sampleRun(time.Now(), Passed)
			tt.mutate(run)
			require.ErrorContains(t, run.Validate(), tt.wantErr)
		})
	}
}

func TestRecord_RejectsInvalid(t *testing.T) {
	store := openTestStore(t)
	run := sampleRun(time.Now(), "bogus")

	require.Error(t, store.Record(context.Background(), run))
	require.Zero(t, run.ID)
}

func TestNop(t *testing.T) {
	var s Store = Nop{}
	require.NoError(t, s.Record(context.Background(), &Run{}))
	runs, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, runs)
	require.NoError(t, s.Close())
}
