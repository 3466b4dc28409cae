package launcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanm101/vent/internal/system"
	"github.com/ryanm101/vent/internal/system/systemtest"
)

type fakeObserver struct {
	missesBeforeHit int // -1 never matches
	pid             int
	queries         int
}

func (f *fakeObserver) Find(ctx context.Context, name string) (int, bool, error) {
	f.queries++
	if f.missesBeforeHit >= 0 && f.queries > f.missesBeforeHit {
		return f.pid, true, nil
	}
	return 0, false, nil
}

type countingSleeper struct {
	sleeps int
	total  time.Duration
}

func (s *countingSleeper) Sleep(d time.Duration) {
	s.sleeps++
	s.total += d
}

func newTestLauncher(obs ProcessObserver, sleeper Sleeper) (*Launcher, *systemtest.Runner) {
	runner := &systemtest.Runner{}
	l := New(runner, DefaultPolicy())
	l.Observer = obs
	l.Sleeper = sleeper
	return l, runner
}

var portal = Request{AppID: "620", DisplayName: "Portal 2", Executable: "portal2_linux"}

func TestLaunch_FoundAfterMisses(t *testing.T) {
	obs := &fakeObserver{missesBeforeHit: 5, pid: 4242}
	sleeper := &countingSleeper{}
	l, runner := newTestLauncher(obs, sleeper)

	var progress []int
	l.Progress = func(remaining int) { progress = append(progress, remaining) }

	h, err := l.Launch(context.Background(), portal)
	require.NoError(t, err)

	assert.Equal(t, 4242, h.PID)
	assert.Equal(t, "portal2_linux", h.Executable)
	assert.Equal(t, 6, obs.queries)
	assert.Equal(t, 5, sleeper.sleeps)
	assert.Equal(t, []int{60, 59, 58, 57, 56}, progress)
	assert.Equal(t, []string{"steam steam://rungameid/620"}, runner.Commands())
}

func TestLaunch_Timeout(t *testing.T) {
	obs := &fakeObserver{missesBeforeHit: -1}
	sleeper := &countingSleeper{}
	l, _ := newTestLauncher(obs, sleeper)

	h, err := l.Launch(context.Background(), portal)
	assert.Nil(t, h)

	var terr *LaunchTimeoutError
	require.True(t, errors.As(err, &terr))
	assert.True(t, errors.Is(err, ErrLaunchTimeout))
	assert.Equal(t, 60, obs.queries)
	assert.Equal(t, 60*time.Second, sleeper.total)
	assert.Equal(t, "620", terr.AppID)
	assert.Equal(t, "Portal 2", terr.DisplayName)
	assert.Equal(t, "portal2_linux", terr.Executable)
	assert.Equal(t, Advisory, terr.Advisory)
}

func TestLaunch_CustomBudget(t *testing.T) {
	obs := &fakeObserver{missesBeforeHit: -1}
	l, _ := newTestLauncher(obs, &countingSleeper{})
	l.Policy = Policy{Attempts: 3, Interval: time.Millisecond}

	_, err := l.Launch(context.Background(), portal)
	assert.True(t, errors.Is(err, ErrLaunchTimeout))
	assert.Equal(t, 3, obs.queries)
}

func TestLaunch_SteamExitStatusIgnored(t *testing.T) {
	obs := &fakeObserver{missesBeforeHit: 0, pid: 7}
	l, runner := newTestLauncher(obs, &countingSleeper{})
	runner.OnRun = func(name string, args []string) error {
		return &system.CommandError{Command: "steam", ExitCode: 1, Err: errors.New("exit status 1")}
	}

	h, err := l.Launch(context.Background(), portal)
	require.NoError(t, err)
	assert.Equal(t, 7, h.PID)
	assert.Equal(t, 1, obs.queries)
}

func TestLaunch_SteamMissing(t *testing.T) {
	obs := &fakeObserver{missesBeforeHit: 0, pid: 7}
	l, runner := newTestLauncher(obs, &countingSleeper{})
	runner.OnRun = func(name string, args []string) error {
		return &system.CommandError{Command: "steam", ExitCode: -1, Err: errors.New("executable file not found in $PATH")}
	}

	_, err := l.Launch(context.Background(), portal)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrLaunchTimeout))
	assert.Equal(t, 0, obs.queries)
}

func TestPSObserver_Find(t *testing.T) {
	runner := &systemtest.Runner{
		OnOutput: func(name string, args []string) ([]byte, error) {
			return []byte("    PID COMMAND\n      1 systemd\n   1337 steam\n   4242 Portal2_Linux\n"), nil
		},
	}

	pid, ok, err := (&PSObserver{Runner: runner}).Find(context.Background(), "./portal2_linux")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4242, pid)
	assert.Equal(t, []string{"ps ax -o pid,comm"}, runner.Commands())
}

func TestMatchProcess(t *testing.T) {
	table := "    PID COMMAND\n    100 bash\n    200 Game.exe\n    300 wineserver\n"

	tests := []struct {
		name       string
		executable string
		pid        int
		ok         bool
	}{
		{"case insensitive", "game.EXE", 200, true},
		{"windows path", `bin\Game.exe`, 200, true},
		{"substring", "wine", 300, true},
		{"header ignored", "COMMAND", 0, false},
		{"absent", "portal2", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pid, ok := MatchProcess(table, tt.executable)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.pid, pid)
		})
	}
}
