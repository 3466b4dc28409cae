package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotInstalled is returned when no install is recorded for a game.
var ErrNotInstalled = errors.New("not installed")

// InstallRecord is the latest install of a game.
type InstallRecord struct {
	AppID       string
	DisplayName string
	Executable  string
	ScriptPath  string
	InstalledAt time.Time
}

// RecordInstall stores or refreshes the install of a game.
func (s *Store) RecordInstall(ctx context.Context, r InstallRecord) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO installs (app_id, display_name, executable, script_path, installed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(app_id) DO UPDATE SET
			display_name = excluded.display_name,
			executable = excluded.executable,
			script_path = excluded.script_path,
			installed_at = excluded.installed_at
	`, r.AppID, r.DisplayName, r.Executable, r.ScriptPath, r.InstalledAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("record install of %s: %w", r.AppID, err)
	}
	return nil
}

// Install returns the recorded install of appID.
func (s *Store) Install(ctx context.Context, appID string) (InstallRecord, error) {
	var (
		r  InstallRecord
		at int64
	)
	err := s.conn.QueryRowContext(ctx, `
		SELECT app_id, display_name, executable, script_path, installed_at
		FROM installs WHERE app_id = ?
	`, appID).Scan(&r.AppID, &r.DisplayName, &r.Executable, &r.ScriptPath, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%s: %w", appID, ErrNotInstalled)
	}
	if err != nil {
		return r, err
	}
	r.InstalledAt = time.UnixMilli(at)
	return r, nil
}

// Installs lists every recorded install by name.
func (s *Store) Installs(ctx context.Context) ([]InstallRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT app_id, display_name, executable, script_path, installed_at
		FROM installs ORDER BY display_name, app_id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []InstallRecord
	for rows.Next() {
		var (
			r  InstallRecord
			at int64
		)
		if err := rows.Scan(&r.AppID, &r.DisplayName, &r.Executable, &r.ScriptPath, &at); err != nil {
			return nil, err
		}
		r.InstalledAt = time.UnixMilli(at)
		out = append(out, r)
	}
	return out, rows.Err()
}
