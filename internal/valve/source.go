// Package valve retrieves game metadata from Valve: the steamcmd app info
// dump and two store web APIs. Each source returns one raw document; the
// Loader caches them per app ID.
package valve

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ryanm101/vent/internal/metacache"
)

// Source retrieves one raw metadata representation for an app ID.
type Source interface {
	Kind() metacache.Kind
	Fetch(ctx context.Context, appID string) (metacache.Blob, error)
}

// ParseAppID validates a Steam app ID given on the command line.
func ParseAppID(s string) (string, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return "", fmt.Errorf("invalid app ID %q", s)
	}
	return strconv.FormatUint(n, 10), nil
}
