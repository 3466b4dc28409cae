// Package systemtest provides a recording system.Runner for tests.
package systemtest

import (
	"context"
	"sync"

	"github.com/ryanm101/vent/internal/system"
)

// Call is one recorded command.
type Call struct {
	Name string
	Args []string
}

// Runner records every command and answers through OnRun/OnOutput.
// Unset handlers succeed with no output.
type Runner struct {
	mu    sync.Mutex
	calls []Call

	OnRun    func(name string, args []string) error
	OnOutput func(name string, args []string) ([]byte, error)
}

var _ system.Runner = (*Runner)(nil)

// Run implements system.Runner.
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	r.record(name, args)
	if r.OnRun != nil {
		return r.OnRun(name, args)
	}
	return nil
}

// Output implements system.Runner.
func (r *Runner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.record(name, args)
	if r.OnOutput != nil {
		return r.OnOutput(name, args)
	}
	return nil, nil
}

// Calls returns the commands run so far.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Commands returns the commands run so far, quoted like a shell line.
func (r *Runner) Commands() []string {
	var out []string
	for _, c := range r.Calls() {
		out = append(out, system.Quote(c.Name, c.Args...))
	}
	return out
}

func (r *Runner) record(name string, args []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Name: name, Args: append([]string(nil), args...)})
}
