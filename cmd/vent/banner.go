package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ryanm101/vent/internal/session"
)

// writeBanner tells the person at the cabinet that something broke and
// how to recover.
func writeBanner(w io.Writer, err error) {
	kind := session.Kind(err)
	advisory := ""
	var serr *session.Error
	if errors.As(err, &serr) {
		advisory = serr.Advisory()
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Oww...!!")
	_, _ = fmt.Fprintf(w, "%s: %v\n", kind, err)
	if advisory != "" {
		_, _ = fmt.Fprintln(w, advisory)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "This event has been logged. If you have admin access, type "+
		"`journalctl --identifier=vent --since=today` to review the logs.")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Please report this failure to the cabinet maintainers.")
	_, _ = fmt.Fprintln(w, "Thank you, and sorry for the inconvenience!")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "You may want to press the reset switch inside the control deck.")
	_, _ = fmt.Fprintln(w, "The control panel lifts up, and there's a pink box with a black button on it.")
	_, _ = fmt.Fprintln(w, "Push it to reset the system.")
	_, _ = fmt.Fprintln(w)
}

// hold keeps the banner on screen for d, counting down once a second.
func hold(w io.Writer, d time.Duration, sleep func(time.Duration)) {
	for remaining := d.Truncate(time.Second); remaining > 0; remaining -= time.Second {
		_, _ = fmt.Fprintf(w, "\rReturn to menu in %s", formatCountdown(remaining))
		sleep(time.Second)
	}
	if d > 0 {
		_, _ = fmt.Fprintln(w)
	}
}

func formatCountdown(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
