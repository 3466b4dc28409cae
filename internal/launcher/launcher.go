// Package launcher asks Steam to start a game and waits for its process to
// show up. The steam:// request returns before the game exists, so the
// process table is polled on a fixed budget.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/metrics"
	"github.com/ryanm101/vent/internal/system"
	"github.com/ryanm101/vent/internal/tracing"
)

// Advisory is attached to a timeout: Steam may have half-started the game.
const Advisory = "System may be in an unusable state. Consider using the reset kill switch?"

// ErrLaunchTimeout matches any *LaunchTimeoutError.
var ErrLaunchTimeout = errors.New("launch timed out")

// LaunchTimeoutError means the game process never appeared in the process table.
type LaunchTimeoutError struct {
	AppID       string
	DisplayName string
	Executable  string
	Attempts    int
	Advisory    string
}

func (e *LaunchTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for appID=%s game=%q executable=%q after %d attempts",
		e.AppID, e.DisplayName, e.Executable, e.Attempts)
}

func (e *LaunchTimeoutError) Is(target error) bool {
	return target == ErrLaunchTimeout
}

// Request identifies the game to launch and the process to wait for.
type Request struct {
	AppID       string
	DisplayName string
	Executable  string
}

// Handle is the observed game process.
type Handle struct {
	PID        int
	AppID      string
	Executable string
	Observed   time.Time
}

// Policy bounds the process-table polling.
type Policy struct {
	Attempts int
	Interval time.Duration
}

// DefaultPolicy waits up to a minute.
func DefaultPolicy() Policy {
	return Policy{Attempts: 60, Interval: time.Second}
}

// Launcher requests a launch through the Steam client.
type Launcher struct {
	Runner   system.Runner
	Observer ProcessObserver
	Sleeper  Sleeper
	Policy   Policy

	// Progress, if set, is called after every miss with the number of
	// attempts left including the one just made.
	Progress func(remaining int)
}

// New returns a launcher that polls with ps and sleeps for real.
func New(runner system.Runner, policy Policy) *Launcher {
	if policy.Attempts <= 0 {
		policy.Attempts = DefaultPolicy().Attempts
	}
	return &Launcher{
		Runner:   runner,
		Observer: &PSObserver{Runner: runner},
		Sleeper:  SleeperFunc(time.Sleep),
		Policy:   policy,
	}
}

// Launch requests the game and blocks until its process is observed or the
// polling budget runs out. Once requested the launch is not abandoned early:
// ctx is only passed through to the commands.
func (l *Launcher) Launch(ctx context.Context, req Request) (*Handle, error) {
	ctx, span := tracing.StartSpan(ctx, "launcher.Launch",
		tracing.WithAttributes(
			attribute.String("app.id", req.AppID),
			attribute.String("app.executable", req.Executable),
		),
	)
	defer span.End()

	// Only a failure to run steam at all is an error; its exit status says
	// nothing about whether the game will start.
	if err := l.Runner.Run(ctx, "steam", "steam://rungameid/"+req.AppID); err != nil {
		var cerr *system.CommandError
		if !errors.As(err, &cerr) || cerr.ExitCode < 0 {
			tracing.RecordError(span, err)
			return nil, fmt.Errorf("request launch of %s: %w", req.AppID, err)
		}
		logging.Warn("steam exited non-zero, waiting for the game anyway", "app_id", req.AppID, "error", err)
	}

	logging.Debug("waiting for executable", "executable", req.Executable)

	attempts := l.Policy.Attempts
	for attempt := 1; attempt <= attempts; attempt++ {
		pid, ok, err := l.Observer.Find(ctx, req.Executable)
		if err != nil {
			logging.Warn("process table query failed", "error", err)
		}
		if ok {
			metrics.PollAttempts.Observe(float64(attempt))
			span.SetAttributes(attribute.Int("process.pid", pid), attribute.Int("launch.attempts", attempt))
			logging.Debug("executable running",
				"app_id", req.AppID,
				"game", req.DisplayName,
				"executable", req.Executable,
				"pid", pid,
			)
			return &Handle{PID: pid, AppID: req.AppID, Executable: req.Executable, Observed: time.Now()}, nil
		}

		if l.Progress != nil {
			l.Progress(attempts - attempt + 1)
		}
		l.Sleeper.Sleep(l.Policy.Interval)
	}

	err := &LaunchTimeoutError{
		AppID:       req.AppID,
		DisplayName: req.DisplayName,
		Executable:  req.Executable,
		Attempts:    attempts,
		Advisory:    Advisory,
	}
	logging.Error("timed out waiting for game",
		"app_id", req.AppID,
		"game", req.DisplayName,
		"executable", req.Executable,
	)
	tracing.RecordError(span, err)
	return nil, err
}
