package presentation

import (
	"time"

	"github.com/zjrosen/prodtests/internal/history"
)

// RunDTO represents a recorded run attempt for presentation
type RunDTO struct {
	ID         int64     `json:"id"`
	PartNumber string    `json:"part_number"`
	SetID      string    `json:"set_id"`
	SetName    string    `json:"set_name"`
	Outcome    string    `json:"outcome"`
	Completed  int       `json:"completed"`
	Total      int       `json:"total"`
	FailedTest string    `json:"failed_test,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// FromRun converts a stored run to a DTO.
func FromRun(r history.Run) RunDTO {
	return RunDTO{
		ID:         r.ID,
		PartNumber: r.PartNumber,
		SetID:      r.SetID,
		SetName:    r.SetName,
		Outcome:    string(r.Outcome),
		Completed:  r.Completed,
		Total:      r.Total,
		FailedTest: r.FailedTest,
		Error:      r.Error,
		StartedAt:  r.StartedAt.UTC(),
		DurationMS: r.Duration().Milliseconds(),
	}
}

// FromRuns converts runs in order. The result is never nil so JSON output
// is an empty array rather than null.
func FromRuns(runs []history.Run) []RunDTO {
	out := make([]RunDTO, 0, len(runs))
	for _, r := range runs {
		out = append(out, FromRun(r))
	}
	return out
}
