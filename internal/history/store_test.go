package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.Record(ctx, LaunchRecord{AppID: "620", Outcome: OutcomeExited, StartedAt: time.Now(), EndedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	var version int
	require.NoError(t, s.conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version))
	assert.Equal(t, 2, version)

	recent, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	records := []LaunchRecord{
		{AppID: "620", DisplayName: "Portal 2", Executable: "portal2_linux", PID: 100, Outcome: OutcomeExited,
			StartedAt: base, EndedAt: base.Add(30 * time.Minute)},
		{AppID: "504230", DisplayName: "Celeste", Executable: "Celeste", Outcome: OutcomeTimeout,
			Error: "timed out", StartedAt: base.Add(time.Hour), EndedAt: base.Add(time.Hour + time.Minute)},
		{AppID: "620", DisplayName: "Portal 2", Executable: "portal2_linux", PID: 200, Outcome: OutcomeTerminated,
			StartedAt: base.Add(2 * time.Hour), EndedAt: base.Add(2*time.Hour + 10*time.Minute)},
	}
	for _, r := range records {
		_, err := s.Record(ctx, r)
		require.NoError(t, err)
	}

	recent, err := s.Recent(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 200, recent[0].PID)
	assert.Equal(t, OutcomeTerminated, recent[0].Outcome)
	assert.Equal(t, 10*time.Minute, recent[0].Duration())
	assert.Equal(t, "timed out", recent[1].Error)
	assert.True(t, recent[0].StartedAt.Equal(base.Add(2*time.Hour)))

	portal, err := s.Recent(ctx, "620", 0)
	require.NoError(t, err)
	assert.Len(t, portal, 2)

	sums, err := s.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, "620", sums[0].AppID)
	assert.Equal(t, 2, sums[0].Launches)
	assert.Equal(t, 0, sums[0].Failures)
	assert.Equal(t, 40*time.Minute, sums[0].PlayTime)
	assert.Equal(t, 1, sums[1].Failures)
	assert.Equal(t, time.Duration(0), sums[1].PlayTime)
}

func TestInstalls(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Install(ctx, "620")
	assert.True(t, errors.Is(err, ErrNotInstalled))

	first := InstallRecord{AppID: "620", DisplayName: "Portal", Executable: "portal2.sh", ScriptPath: "/a.sh", InstalledAt: time.UnixMilli(1000)}
	require.NoError(t, s.RecordInstall(ctx, first))

	second := first
	second.DisplayName = "Portal 2"
	second.InstalledAt = time.UnixMilli(2000)
	require.NoError(t, s.RecordInstall(ctx, second))

	got, err := s.Install(ctx, "620")
	require.NoError(t, err)
	assert.Equal(t, "Portal 2", got.DisplayName)
	assert.True(t, got.InstalledAt.Equal(time.UnixMilli(2000)))

	all, err := s.Installs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
