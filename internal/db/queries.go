package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run represents a row in the runs table.
type Run struct {
	RunID       string
	Project     string
	RepoPath    string
	Branch      string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Result      string // "completed", "aborted", "error"; empty while running
	FailedBoost string
	Reason      string
}

// BoostEvent represents a row in the boost_events table.
type BoostEvent struct {
	ID         int
	RunID      string
	Project    string
	Boost      string
	Event      string // "satisfied", "skipped", "applied", "failed"
	Reason     string
	Checkpoint string
	DurationMs int64
	Timestamp  time.Time
}

// tsLayout is fixed width so timestamps stored as text sort in time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// StartRun inserts a run row.
func (d *DB) StartRun(ctx context.Context, r Run) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO runs (run_id, project, repo_path, branch, started_at) VALUES (?, ?, ?, ?, ?)`,
		r.RunID, r.Project, r.RepoPath, r.Branch, r.StartedAt.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun stamps the outcome of a run.
func (d *DB) FinishRun(ctx context.Context, runID string, result string, failedBoost string, reason string) error {
	_, err := d.conn.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, result = ?, failed_boost = ?, reason = ? WHERE run_id = ?`,
		time.Now().UTC().Format(tsLayout), result, nullIfEmpty(failedBoost), nullIfEmpty(reason), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// LogBoostEvent inserts a boost event.
func (d *DB) LogBoostEvent(ctx context.Context, e BoostEvent) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO boost_events (run_id, project, boost, event, reason, checkpoint, duration_ms, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Project, e.Boost, e.Event, nullIfEmpty(e.Reason), nullIfEmpty(e.Checkpoint), e.DurationMs, ts.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("log boost event: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. An empty project
// lists runs for every project.
func (d *DB) ListRuns(ctx context.Context, project string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT run_id, project, repo_path, branch, started_at, finished_at, result, failed_boost, reason FROM runs`
	args := []any{}
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var finished, result, failedBoost, reason sql.NullString
		if err := rows.Scan(&r.RunID, &r.Project, &r.RepoPath, &r.Branch, &started, &finished, &result, &failedBoost, &reason); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(tsLayout, started)
		if finished.Valid {
			t, _ := time.Parse(tsLayout, finished.String)
			r.FinishedAt = &t
		}
		r.Result = result.String
		r.FailedBoost = failedBoost.String
		r.Reason = reason.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListBoostEvents returns the events of a run in the order they happened.
func (d *DB) ListBoostEvents(ctx context.Context, runID string) ([]BoostEvent, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, run_id, project, boost, event, reason, checkpoint, duration_ms, timestamp
		 FROM boost_events WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list boost events: %w", err)
	}
	defer rows.Close()

	var events []BoostEvent
	for rows.Next() {
		var e BoostEvent
		var reason, checkpoint sql.NullString
		var duration sql.NullInt64
		var ts string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Project, &e.Boost, &e.Event, &reason, &checkpoint, &duration, &ts); err != nil {
			return nil, fmt.Errorf("scan boost event: %w", err)
		}
		e.Reason = reason.String
		e.Checkpoint = checkpoint.String
		e.DurationMs = duration.Int64
		e.Timestamp, _ = time.Parse(tsLayout, ts)
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
