package valve

import (
	"encoding/json"
	"fmt"
)

// Lookup walks nested mappings along path.
func Lookup(blob map[string]any, path ...string) (any, error) {
	var cur any = blob
	for i, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, &MissingFieldError{Path: path[:i+1]}
		}
		v, ok := m[key]
		if !ok || v == nil {
			return nil, &MissingFieldError{Path: path[:i+1]}
		}
		cur = v
	}
	return cur, nil
}

// Map looks up a nested mapping.
func Map(blob map[string]any, path ...string) (map[string]any, error) {
	v, err := Lookup(blob, path...)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &MissingFieldError{Path: path}
	}
	return m, nil
}

// List looks up an ordered sequence.
func List(blob map[string]any, path ...string) ([]any, error) {
	v, err := Lookup(blob, path...)
	if err != nil {
		return nil, err
	}
	l, ok := v.([]any)
	if !ok {
		return nil, &MissingFieldError{Path: path}
	}
	return l, nil
}

// String looks up a scalar and renders it as a string. VDF stores every
// scalar as a string while the web APIs use JSON numbers, so both are accepted.
func String(blob map[string]any, path ...string) (string, error) {
	v, err := Lookup(blob, path...)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case float64, int, int64, bool:
		return fmt.Sprint(s), nil
	default:
		return "", &MissingFieldError{Path: path}
	}
}

// StringOr returns the string at path, or def when it is missing.
func StringOr(blob map[string]any, def string, path ...string) string {
	s, err := String(blob, path...)
	if err != nil {
		return def
	}
	return s
}
