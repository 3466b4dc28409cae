//go:build linux

package monitor

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ryanm101/vent/internal/logging"
)

// pidfdWaiter waits on a pidfd, which becomes readable when the process exits.
type pidfdWaiter struct {
	fd        int
	done      chan struct{}
	closeOnce sync.Once
}

// OpenPidfd opens a pidfd for pid and starts waiting on it. A process that
// is already gone yields a waiter that is done immediately.
func OpenPidfd(pid int) (ExitWaiter, error) {
	fd, err := unix.PidfdOpen(pid, 0)
	if errors.Is(err, unix.ESRCH) {
		logging.Debug("process exited before it could be watched", "pid", pid)
		return exitedWaiter(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("pidfd_open: %w", err)
	}

	w := &pidfdWaiter{fd: fd, done: make(chan struct{})}
	go w.wait()
	return w, nil
}

// livenessInterval paces the fallback checks after poll fails.
var livenessInterval = time.Second

func (w *pidfdWaiter) wait() {
	defer close(w.done)
	fds := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}} //nolint:gosec // fd fits in int32
	for {
		_, err := unix.Poll(fds, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			logging.Error("poll on pidfd failed, checking liveness instead", "error", err)
			waitGone(func() error { return unix.PidfdSendSignal(w.fd, 0, nil, 0) }, time.Sleep)
		}
		return
	}
}

// waitGone returns once probe reports the process no longer exists, or
// once the handle itself is unusable. Any other result, EPERM included,
// means the process is still there.
func waitGone(probe func() error, sleep func(time.Duration)) {
	for {
		err := probe()
		switch {
		case errors.Is(err, unix.ESRCH):
			return
		case errors.Is(err, unix.EBADF):
			logging.Error("pidfd unusable, treating game as exited", "error", err)
			return
		case err != nil:
			logging.Debug("liveness check failed", "error", err)
		}
		sleep(livenessInterval)
	}
}

func (w *pidfdWaiter) Done() <-chan struct{} {
	return w.done
}

func (w *pidfdWaiter) Signal(sig syscall.Signal) error {
	return unix.PidfdSendSignal(w.fd, sig, nil, 0)
}

// Close releases the pidfd. It must only be called once Done is closed.
func (w *pidfdWaiter) Close() error {
	var err error
	w.closeOnce.Do(func() { err = unix.Close(w.fd) })
	return err
}

type doneWaiter struct {
	done chan struct{}
}

func exitedWaiter() ExitWaiter {
	w := &doneWaiter{done: make(chan struct{})}
	close(w.done)
	return w
}

func (w *doneWaiter) Done() <-chan struct{}       { return w.done }
func (w *doneWaiter) Signal(syscall.Signal) error { return unix.ESRCH }
func (w *doneWaiter) Close() error                { return nil }
