package keymap

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/metacache"
	"github.com/ryanm101/vent/internal/system"
)

// Switch repoints the active symlink at desired, or at defaultTarget when
// desired does not exist. The link is replaced with a rename so keyd never
// sees it missing. It returns the target actually used.
func Switch(active, defaultTarget, desired string) (string, error) {
	target := desired
	if _, err := os.Stat(desired); err != nil {
		if desired != defaultTarget {
			logging.Warn("keymap not found, using default", "keymap", desired, "default", defaultTarget)
		}
		target = defaultTarget
	}

	if cur, err := os.Readlink(active); err == nil && cur == target {
		return target, nil
	}

	tmp := fmt.Sprintf("%s.%d.tmp", active, os.Getpid())
	_ = os.Remove(tmp)
	if err := os.Symlink(target, tmp); err != nil {
		return "", fmt.Errorf("link keymap: %w", err)
	}
	if err := os.Rename(tmp, active); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("activate keymap: %w", err)
	}
	logging.Debug("keymap switched", "active", active, "target", target)
	return target, nil
}

// Switcher switches keymaps and tells keyd to pick up the change.
type Switcher struct {
	Runner  system.Runner
	Active  string
	Default string
}

// Use activates desired and reloads keyd.
func (s *Switcher) Use(ctx context.Context, desired string) error {
	if _, err := Switch(s.Active, s.Default, desired); err != nil {
		return err
	}
	s.reload(ctx)
	return nil
}

// Restore activates the default keymap.
func (s *Switcher) Restore(ctx context.Context) error {
	return s.Use(ctx, s.Default)
}

// keyd follows the symlink only on reload; a failed reload leaves the old
// mapping active, which is annoying but not fatal.
func (s *Switcher) reload(ctx context.Context) {
	if s.Runner == nil {
		return
	}
	if err := s.Runner.Run(ctx, "keyd", "reload"); err != nil {
		if system.IsNotFound(err) {
			logging.Warn("keyd not installed, keymap change not applied")
			return
		}
		logging.Warn("keyd reload failed", "error", err)
	}
}

// EnsureDefault creates an empty default keymap if none exists.
func EnsureDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil { //nolint:gosec // Standard dir permissions
		return err
	}
	return os.WriteFile(path, []byte("# This space for rent!\n"), 0644) //nolint:gosec // keyd reads it as another user
}

// SaveProfile writes a per-game profile to path.
func SaveProfile(path, appID, name string, t *Table) error {
	var buf bytes.Buffer
	if err := WriteProfile(&buf, appID, name, t); err != nil {
		return err
	}
	return metacache.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// Setup prepares keyd for per-game keymaps. The common aliases are written
// next to keydConfig, the default keymap is created and activated, and
// keydConfig is replaced with a link to active.
func Setup(keydConfig, active, defaultKeymap string, t *Table) error {
	var buf bytes.Buffer
	if err := WriteCommon(&buf, t); err != nil {
		return err
	}
	common := filepath.Join(filepath.Dir(keydConfig), "common")
	if err := metacache.WriteFileAtomic(common, buf.Bytes(), 0644); err != nil {
		return err
	}
	if err := EnsureDefault(defaultKeymap); err != nil {
		return err
	}
	if _, err := Switch(active, defaultKeymap, defaultKeymap); err != nil {
		return err
	}
	_, err := Switch(keydConfig, active, active)
	return err
}
