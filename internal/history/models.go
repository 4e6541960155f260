package history

import (
	"database/sql"
	"time"
)

// runModel is the row shape of the runs table. Times are Unix milliseconds.
type runModel struct {
	ID         int64
	PartNumber string
	SetID      string
	SetName    string
	Total      int64
	Completed  int64
	Outcome    string
	FailedTest sql.NullString
	Error      sql.NullString
	StartedAt  int64
	FinishedAt int64
}

func toRunModel(r *Run) runModel {
	finished := r.FinishedAt
	if finished.IsZero() {
		finished = r.StartedAt
	}
	return runModel{
		ID:         r.ID,
		PartNumber: r.PartNumber,
		SetID:      r.SetID,
		SetName:    r.SetName,
		Total:      int64(r.Total),
		Completed:  int64(r.Completed),
		Outcome:    string(r.Outcome),
		FailedTest: nullString(r.FailedTest),
		Error:      nullString(r.Error),
		StartedAt:  r.StartedAt.UnixMilli(),
		FinishedAt: finished.UnixMilli(),
	}
}

func (m runModel) toRun() Run {
	return Run{
		ID:         m.ID,
		PartNumber: m.PartNumber,
		SetID:      m.SetID,
		SetName:    m.SetName,
		Total:      int(m.Total),
		Completed:  int(m.Completed),
		Outcome:    Outcome(m.Outcome),
		FailedTest: m.FailedTest.String,
		Error:      m.Error.String,
		StartedAt:  time.UnixMilli(m.StartedAt),
		FinishedAt: time.UnixMilli(m.FinishedAt),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
