package frontend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ryanm101/vent/internal/metacache"
)

// ScriptName is the runscript file name for a game, which EmulationStation
// shows when no gamelist entry exists.
func ScriptName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == 0 {
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		name = "game"
	}
	return name + ".sh"
}

// WriteRunscript writes an executable script that launches appID with vent.
func WriteRunscript(path, appID string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil { //nolint:gosec // Standard dir permissions
		return err
	}
	script := fmt.Sprintf("#!/usr/bin/env bash\nvent launch %s\n", appID)
	return metacache.WriteFileAtomic(path, []byte(script), 0755) //nolint:gosec // Must be executable
}
