package launcher

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ryanm101/vent/internal/system"
)

// ProcessObserver looks up a running process by executable name.
type ProcessObserver interface {
	// Find returns the pid of the first process whose command name contains
	// name, case-insensitively. ok is false when nothing matches.
	Find(ctx context.Context, name string) (pid int, ok bool, err error)
}

// Sleeper pauses between process-table queries.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(d time.Duration)

// Sleep implements Sleeper.
func (f SleeperFunc) Sleep(d time.Duration) {
	f(d)
}

// PSObserver queries the process table with `ps ax -o pid,comm`.
type PSObserver struct {
	Runner system.Runner
}

var _ ProcessObserver = (*PSObserver)(nil)

// Find implements ProcessObserver.
func (o *PSObserver) Find(ctx context.Context, name string) (int, bool, error) {
	out, err := o.Runner.Output(ctx, "ps", "ax", "-o", "pid,comm")
	if err != nil {
		return 0, false, err
	}
	pid, ok := MatchProcess(string(out), name)
	return pid, ok, nil
}

// MatchProcess scans `ps -o pid,comm` output for the first command name
// containing the base name of executable. The header line is skipped
// because its pid column does not parse.
func MatchProcess(table, executable string) (int, bool) {
	needle := strings.ToLower(baseName(executable))
	if needle == "" {
		return 0, false
	}

	for _, line := range strings.Split(table, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		comm := strings.ToLower(strings.Join(fields[1:], " "))
		if strings.Contains(comm, needle) {
			return pid, true
		}
	}
	return 0, false
}

// baseName strips directories from either path style, since windows
// executables run under Proton may be given as bin\Game.exe.
func baseName(executable string) string {
	if i := strings.LastIndexAny(executable, `/\`); i >= 0 {
		return executable[i+1:]
	}
	return executable
}
