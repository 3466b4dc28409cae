// Package splash sets the kiosk terminal's background to the game's artwork
// while it loads, through xfconf-query.
package splash

import (
	"context"
	"errors"

	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/system"
)

const (
	channel   = "xfce4-terminal"
	fontName  = "Monospace Bold 20"
	propImage = "/background-image-file"
	propMode  = "/background-mode"
	propStyle = "/background-image-style"
	propFont  = "/font-name"
)

// Splash drives the terminal configuration.
type Splash struct {
	Runner system.Runner
}

// New returns a splash controller.
func New(r system.Runner) *Splash {
	return &Splash{Runner: r}
}

// Configure shows img as a scaled background. An empty img clears the
// background. A missing xfconf-query is logged and otherwise ignored.
func (s *Splash) Configure(ctx context.Context, img string) error {
	err := s.configure(ctx, img)
	if system.IsNotFound(err) {
		logging.Warn("could not change terminal background, is xfconf-query installed?")
		return nil
	}
	return err
}

func (s *Splash) configure(ctx context.Context, img string) error {
	if err := s.set(ctx, propFont, fontName); err != nil {
		return err
	}
	if img == "" {
		return s.remove(ctx)
	}
	if err := s.set(ctx, propImage, img); err != nil {
		return err
	}
	if err := s.set(ctx, propMode, "TERMINAL_BACKGROUND_IMAGE"); err != nil {
		return err
	}
	return s.set(ctx, propStyle, "TERMINAL_BACKGROUND_STYLE_SCALED")
}

// Remove resets the background properties. Every property is attempted
// even if an earlier one fails.
func (s *Splash) Remove(ctx context.Context) error {
	err := s.remove(ctx)
	if system.IsNotFound(err) {
		logging.Warn("could not reset terminal background, is xfconf-query installed?")
		return nil
	}
	return err
}

func (s *Splash) remove(ctx context.Context) error {
	var errs []error
	for _, prop := range []string{propImage, propMode, propStyle} {
		if err := s.Runner.Run(ctx, "xfconf-query", "-c", channel, "-p", prop, "-r"); err != nil {
			if system.IsNotFound(err) {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Splash) set(ctx context.Context, prop, value string) error {
	return s.Runner.Run(ctx, "xfconf-query",
		"--create",
		"--type", "string",
		"-c", channel,
		"-p", prop,
		"-s", value,
	)
}
