//go:build !linux

package monitor

import (
	"errors"
	"fmt"
)

// OpenPidfd is only available on Linux.
func OpenPidfd(pid int) (ExitWaiter, error) {
	return nil, fmt.Errorf("watch pid %d: %w", pid, errors.ErrUnsupported)
}
