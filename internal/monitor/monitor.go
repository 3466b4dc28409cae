// Package monitor owns a launched game process until it exits.
//
// A Monitor moves Idle -> Launching -> Running -> Exited. While Running it
// waits on the process exit handle and on termination requests; a request
// is forwarded to the game as SIGTERM and the wait continues until the game
// is actually gone. The caller's cleanup runs exactly once on every path.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ryanm101/vent/internal/launcher"
	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/metrics"
	"github.com/ryanm101/vent/internal/tracing"
)

// State is the lifecycle position of a monitored launch.
type State int

const (
	Idle State = iota
	Launching
	Running
	Exited
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Launching:
		return "launching"
	case Running:
		return "running"
	case Exited:
		return "exited"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrAlreadyStarted is returned when Run is called twice on one Monitor.
var ErrAlreadyStarted = errors.New("monitor already started")

// ExitWaiter is a waitable handle on a process that is not our child.
type ExitWaiter interface {
	// Done is closed once the process has exited.
	Done() <-chan struct{}
	// Signal delivers sig to the process behind the handle.
	Signal(sig syscall.Signal) error
	Close() error
}

// WaiterFactory opens an ExitWaiter for pid.
type WaiterFactory func(pid int) (ExitWaiter, error)

// LaunchFunc starts the game and returns its handle.
type LaunchFunc func(ctx context.Context) (*launcher.Handle, error)

// Result describes a completed session.
type Result struct {
	PID       int
	Forwarded int           // termination signals delivered to the game
	Duration  time.Duration // from the process being observed until it exited
}

// Terminated reports whether the game exited after a forwarded signal.
func (r Result) Terminated() bool {
	return r.Forwarded > 0
}

// Monitor tracks one launch. The zero value is not usable; call New.
type Monitor struct {
	NewWaiter WaiterFactory

	mu        sync.Mutex
	state     State
	notice    io.Writer
	terminate chan struct{}
}

// msgPendingExit tells the player why the game will close right after it starts.
const msgPendingExit = "Exit requested, the game will be closed as soon as it starts."

// New returns an idle monitor using pidfds to wait on the game.
func New() *Monitor {
	return &Monitor{
		NewWaiter: OpenPidfd,
		terminate: make(chan struct{}, 1),
	}
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	logging.Debug("monitor state", "from", m.state, "to", s)
	m.state = s
}

// SetNotice sets where player-facing notices are written. nil disables them.
func (m *Monitor) SetNotice(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notice = w
}

// Terminate asks the monitor to stop the game. It never blocks and may be
// called from any goroutine, typically a signal.Notify loop. A request made
// before the game is Running is delivered once it is, and announced now.
func (m *Monitor) Terminate() {
	select {
	case m.terminate <- struct{}{}:
	default:
		return
	}

	m.mu.Lock()
	state, notice := m.state, m.notice
	m.mu.Unlock()
	if state != Idle && state != Launching {
		return
	}
	logging.Warn("termination requested before the game is running, it will be stopped once it starts", "state", state)
	if notice != nil {
		_, _ = fmt.Fprintln(notice, msgPendingExit)
	}
}

// Run launches the game and blocks until it exits. cleanup runs exactly
// once after the monitor leaves Running, or after a failed launch, even
// if launch panics.
func (m *Monitor) Run(ctx context.Context, launch LaunchFunc, cleanup func()) (Result, error) {
	m.mu.Lock()
	if m.state != Idle {
		m.mu.Unlock()
		return Result{}, ErrAlreadyStarted
	}
	m.state = Launching
	m.mu.Unlock()

	var once sync.Once
	defer once.Do(func() {
		if cleanup != nil {
			cleanup()
		}
	})
	defer m.setState(Exited)

	ctx, span := tracing.StartSpan(ctx, "monitor.Run")
	defer span.End()

	h, err := launch(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		return Result{}, err
	}
	span.SetAttributes(attribute.Int("process.pid", h.PID))

	w, err := m.NewWaiter(h.PID)
	if err != nil {
		tracing.RecordError(span, err)
		return Result{PID: h.PID}, fmt.Errorf("watch pid %d: %w", h.PID, err)
	}
	defer func() { _ = w.Close() }()

	m.setState(Running)
	res := Result{PID: h.PID}
	start := h.Observed
	if start.IsZero() {
		start = time.Now()
	}

	for {
		select {
		case <-w.Done():
			res.Duration = time.Since(start)
			metrics.SessionDuration.Observe(res.Duration.Seconds())
			span.SetAttributes(attribute.Int("signals.forwarded", res.Forwarded))
			logging.Debug("game process closed", "pid", h.PID, "executable", h.Executable, "duration", res.Duration)
			return res, nil

		case <-m.terminate:
			logging.Debug("termination requested, forwarding SIGTERM to game", "pid", h.PID)
			if err := w.Signal(syscall.SIGTERM); err != nil {
				logging.Warn("could not signal game process", "pid", h.PID, "error", err)
				continue
			}
			res.Forwarded++
			metrics.SignalsForwarded.Inc()
		}
	}
}
