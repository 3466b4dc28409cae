package identity

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ryanm101/vent/internal/metacache"
	"github.com/ryanm101/vent/internal/valve"
)

// ErrResolution matches any *ResolutionError.
var ErrResolution = errors.New("no suitable executable")

// ResolutionError means the app info is valid but names no executable we can run.
type ResolutionError struct {
	AppID string
	Err   error // set when config.launch itself is missing
}

func (e *ResolutionError) Error() string {
	msg := "couldn't find a suitable executable to run this game"
	if e.AppID != "" {
		msg = fmt.Sprintf("%s (appID %s)", msg, e.AppID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// LaunchEntry is one config.launch entry of the app info.
type LaunchEntry struct {
	Key        string
	Executable string
	OSList     string // empty when the entry has no OS constraint
	HasOSList  bool
}

// LaunchEntries returns the config.launch entries ordered by key. Keys are
// "0", "1", ... so they sort numerically; any non-numeric key sorts last.
// Entries without an executable are skipped.
func LaunchEntries(vdf metacache.Blob) ([]LaunchEntry, error) {
	launch, err := valve.Map(vdf, "config", "launch")
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(launch))
	for k := range launch {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aerr := strconv.Atoi(keys[i])
		b, berr := strconv.Atoi(keys[j])
		switch {
		case aerr == nil && berr == nil:
			return a < b
		case aerr == nil:
			return true
		case berr == nil:
			return false
		}
		return keys[i] < keys[j]
	})

	entries := make([]LaunchEntry, 0, len(keys))
	for _, k := range keys {
		entry, ok := launch[k].(map[string]any)
		if !ok {
			continue
		}
		exe, err := valve.String(entry, "executable")
		if err != nil || exe == "" {
			continue
		}
		oslist, osErr := valve.String(entry, "config", "oslist")
		entries = append(entries, LaunchEntry{
			Key:        k,
			Executable: exe,
			OSList:     oslist,
			HasOSList:  osErr == nil,
		})
	}
	return entries, nil
}

// ResolveExecutable picks the executable name to wait for after launching.
// A native linux entry wins, with any leading "./" removed. Otherwise the
// first windows or unconstrained entry is used as-is, on the assumption
// that Proton runs it.
func ResolveExecutable(vdf metacache.Blob) (string, error) {
	entries, err := LaunchEntries(vdf)
	if err != nil {
		return "", &ResolutionError{Err: err}
	}

	for _, e := range entries {
		if e.HasOSList && e.OSList == "linux" {
			return strings.TrimPrefix(e.Executable, "./"), nil
		}
	}

	for _, e := range entries {
		if !e.HasOSList || e.OSList == "windows" {
			return e.Executable, nil
		}
	}

	return "", &ResolutionError{}
}
