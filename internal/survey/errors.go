package survey

import (
	"fmt"
	"sort"
)

// ErrorType grades a validation error.
type ErrorType int

const (
	ErrorFatal ErrorType = iota + 1
	ErrorWarning
)

func (t ErrorType) String() string {
	switch t {
	case ErrorFatal:
		return "fatal"
	case ErrorWarning:
		return "warning"
	}
	return "unknown"
}

// Error is a validation problem attached to one chunk field.
type Error struct {
	Type       ErrorType
	Message    string
	Suppressed bool
}

// sameError ignores the suppression flag.
func (e Error) sameError(o Error) bool {
	return e.Type == o.Type && e.Message == o.Message
}

func (e Error) String() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorKey addresses one field of a chunk.
type ErrorKey struct {
	Index int
	Role  Role
}

// FieldError is an Error together with the field it belongs to.
type FieldError struct {
	ErrorKey
	Error
}

// errorIndex is a multi-valued (index, role) -> errors mapping.
type errorIndex map[ErrorKey][]Error

func (m errorIndex) clone() errorIndex {
	out := make(errorIndex, len(m))
	for k, v := range m {
		out[k] = append([]Error(nil), v...)
	}
	return out
}

// replace stores derived for key, keeping suppression flags of errors that
// survive. It reports whether a previously unseen error appeared; errors
// that disappear are dropped without being reported.
func (m errorIndex) replace(key ErrorKey, derived []Error) bool {
	existing := m[key]
	changed := false

	merged := make([]Error, 0, len(derived))
	for _, d := range derived {
		found := false
		for _, e := range existing {
			if e.sameError(d) {
				d.Suppressed = e.Suppressed
				found = true
				break
			}
		}
		if !found {
			changed = true
		}
		merged = append(merged, d)
	}

	if len(merged) == 0 {
		delete(m, key)
	} else {
		m[key] = merged
	}
	return changed
}

// sortedKeys returns keys ordered by index then role.
func (m errorIndex) sortedKeys() []ErrorKey {
	keys := make([]ErrorKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Index != keys[j].Index {
			return keys[i].Index < keys[j].Index
		}
		return keys[i].Role < keys[j].Role
	})
	return keys
}
