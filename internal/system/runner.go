// Package system wraps the external commands the launcher drives: steam,
// steamcmd, xfconf-query and ps.
package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/ryanm101/vent/internal/logging"
)

// Runner executes external commands.
type Runner interface {
	// Run executes the command with output attached to the terminal.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes the command and returns its combined stdout/stderr.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*ExecRunner)(nil)

// NewExecRunner returns a runner attached to the process stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// CommandError is returned when a command cannot be started or exits non-zero.
type CommandError struct {
	Command  string
	ExitCode int // -1 when the command never ran
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmdline := Quote(name, args...)
	logging.Debug("exec> " + cmdline)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		logging.Error("subprocess failed", "command", cmdline, "error", err)
		return wrapExecError(cmdline, nil, err)
	}
	return nil
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmdline := Quote(name, args...)
	logging.Debug("exec> " + cmdline)

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return buf.Bytes(), wrapExecError(cmdline, buf.Bytes(), err)
	}
	return buf.Bytes(), nil
}

func wrapExecError(cmdline string, output []byte, err error) error {
	code := -1
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	}
	return &CommandError{Command: cmdline, ExitCode: code, Output: string(output), Err: err}
}

// Quote renders a command line the way a shell user would type it.
func Quote(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, s := range append([]string{name}, args...) {
		parts = append(parts, quoteArg(s))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("@%+=:,./-_", r)
}

// HaveBinary reports whether name resolves on PATH.
func HaveBinary(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// IsNotFound reports whether err means the command is not installed.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}

// StartBackground starts a command with its output discarded. stop sends
// it SIGTERM and reaps it.
func StartBackground(name string, args ...string) (stop func() error, err error) {
	cmdline := Quote(name, args...)
	logging.Debug("exec& " + cmdline)

	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, wrapExecError(cmdline, nil, err)
	}
	return func() error {
		if err := cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
		_ = cmd.Wait()
		return nil
	}, nil
}
