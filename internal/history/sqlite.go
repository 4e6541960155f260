package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zjrosen/prodtests/internal/log"
)

const runColumns = `id, part_number, set_id, set_name, total, completed, outcome,
	failed_test, error, started_at, finished_at`

// SQLiteStore implements Store on a sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// Open opens the database at path and returns a store over it.
func Open(path string) (*SQLiteStore, error) {
	db, err := NewDB(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Record inserts run and sets its ID.
func (s *SQLiteStore) Record(ctx context.Context, run *Run) error {
	if err := run.Validate(); err != nil {
		return err
	}
	m := toRunModel(run)

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (
			part_number, set_id, set_name, total, completed, outcome,
			failed_test, error, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.PartNumber, m.SetID, m.SetName, m.Total, m.Completed, m.Outcome,
		m.FailedTest, m.Error, m.StartedAt, m.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	run.ID = id

	log.Debug(log.CatHistory, "Recorded run", "id", id, "outcome", run.Outcome, "set", run.SetID)
	return nil
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var m runModel
		if err := rows.Scan(
			&m.ID, &m.PartNumber, &m.SetID, &m.SetName, &m.Total, &m.Completed, &m.Outcome,
			&m.FailedTest, &m.Error, &m.StartedAt, &m.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, m.toRun())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
