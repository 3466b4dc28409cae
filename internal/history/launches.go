package history

import (
	"context"
	"fmt"
	"time"
)

// Record appends a launch attempt and returns its id.
func (s *Store) Record(ctx context.Context, r LaunchRecord) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO launches (app_id, display_name, executable, pid, outcome, error, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.AppID, r.DisplayName, r.Executable, r.PID, string(r.Outcome), r.Error,
		r.StartedAt.UnixMilli(), r.EndedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("record launch of %s: %w", r.AppID, err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit launches, newest first. An appID narrows the
// list to one game.
func (s *Store) Recent(ctx context.Context, appID string, limit int) ([]LaunchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, app_id, display_name, executable, pid, outcome, error, started_at, ended_at
		FROM launches
		WHERE ? = '' OR app_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, appID, appID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []LaunchRecord
	for rows.Next() {
		var (
			r              LaunchRecord
			outcome        string
			started, ended int64
		)
		if err := rows.Scan(&r.ID, &r.AppID, &r.DisplayName, &r.Executable, &r.PID, &outcome, &r.Error, &started, &ended); err != nil {
			return nil, err
		}
		r.Outcome = Outcome(outcome)
		r.StartedAt = time.UnixMilli(started)
		r.EndedAt = time.UnixMilli(ended)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summaries aggregates launches per game, most recently played first.
// Only exited and terminated launches count towards play time.
func (s *Store) Summaries(ctx context.Context) ([]Summary, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT app_id,
			MAX(display_name),
			COUNT(*),
			SUM(CASE WHEN outcome IN ('timeout', 'error') THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome IN ('exited', 'terminated') THEN ended_at - started_at ELSE 0 END),
			MAX(started_at)
		FROM launches
		GROUP BY app_id
		ORDER BY MAX(started_at) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var (
			sum          Summary
			playMs, last int64
		)
		if err := rows.Scan(&sum.AppID, &sum.DisplayName, &sum.Launches, &sum.Failures, &playMs, &last); err != nil {
			return nil, err
		}
		sum.PlayTime = time.Duration(playMs) * time.Millisecond
		sum.LastPlayed = time.UnixMilli(last)
		out = append(out, sum)
	}
	return out, rows.Err()
}
