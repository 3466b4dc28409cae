package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ryanm101/vent/internal/identity"
	"github.com/ryanm101/vent/internal/launcher"
	"github.com/ryanm101/vent/internal/valve"
)

// Error is a failed launch or install with whatever was known about the
// game when it failed.
type Error struct {
	Op          string // "launch" or "install"
	AppID       string
	DisplayName string // empty until metadata loaded
	Executable  string // empty until resolved
	Err         error
}

func (e *Error) Error() string {
	parts := []string{"appID=" + e.AppID}
	if e.DisplayName != "" {
		parts = append(parts, fmt.Sprintf("game=%q", e.DisplayName))
	}
	if e.Executable != "" {
		parts = append(parts, fmt.Sprintf("executable=%q", e.Executable))
	}
	return fmt.Sprintf("%s %s: %v", e.Op, strings.Join(parts, " "), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind names the error category for the operator.
func (e *Error) Kind() string {
	return Kind(e.Err)
}

// Advisory returns recovery guidance, if any.
func (e *Error) Advisory() string {
	var terr *launcher.LaunchTimeoutError
	if errors.As(e.Err, &terr) {
		return terr.Advisory
	}
	return ""
}

// Kind classifies err into the launcher's error taxonomy.
func Kind(err error) string {
	switch {
	case errors.Is(err, valve.ErrFetch):
		return "FetchError"
	case errors.Is(err, valve.ErrParse):
		return "ParseError"
	case errors.Is(err, identity.ErrResolution):
		return "ResolutionError"
	case errors.Is(err, launcher.ErrLaunchTimeout):
		return "LaunchTimeoutError"
	default:
		return "Error"
	}
}

func wrap(op string, id identity.Identity, err error) error {
	if err == nil {
		return nil
	}
	name := id.DisplayName
	if name == identity.UnknownName {
		name = ""
	}
	return &Error{Op: op, AppID: id.AppID, DisplayName: name, Executable: id.Executable, Err: err}
}
