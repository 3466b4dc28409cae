package valve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ryanm101/vent/internal/metacache"
)

// Sentinel errors for the metadata taxonomy; match with errors.Is.
var (
	ErrFetch        = errors.New("fetch failed")
	ErrParse        = errors.New("parse failed")
	ErrMissingField = errors.New("missing field")
)

// FetchError is a network or process non-success while retrieving metadata.
type FetchError struct {
	Source     metacache.Kind
	AppID      string
	URL        string // empty for the steamcmd source
	StatusCode int    // 0 when no HTTP response was received
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s metadata for %s", e.Source, e.AppID)
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d", msg, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// ParseReason distinguishes why a response could not be used.
type ParseReason string

const (
	// ReasonDelimiterNotFound means steamcmd printed something other than the
	// app info dump: usually a transient steamcmd problem, not a parser bug.
	ReasonDelimiterNotFound ParseReason = "delimiter not found"
	ReasonMalformed         ParseReason = "malformed"
	ReasonMissingPath       ParseReason = "missing path"
)

// ParseError is a malformed or incomplete response body.
type ParseError struct {
	Source metacache.Kind
	AppID  string
	Reason ParseReason
	Path   string // expected sub-object for ReasonMissingPath
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse %s metadata for %s: %s", e.Source, e.AppID, e.Reason)
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// MissingFieldError is returned by blob lookups when a field is absent or
// does not have the expected shape.
type MissingFieldError struct {
	Path []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", strings.Join(e.Path, "."))
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}
