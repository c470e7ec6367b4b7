package services

import (
	"errors"
	"strings"
)

// Markers classify failures reported by Discord, the store and ntfy.
var (
	ErrNotFound      = errors.New("not found")
	ErrPermission    = errors.New("permission denied")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrRateLimited   = errors.New("rate limited")
	ErrTransient     = errors.New("transient failure")
)

var kinds = []struct {
	marker    error
	kind      string
	retryable bool
}{
	{ErrNotFound, "not_found", false},
	{ErrPermission, "permission", false},
	{ErrValidation, "validation", false},
	{ErrConfiguration, "configuration", false},
	{ErrTimeout, "timeout", true},
	{ErrRateLimited, "rate_limited", true},
	{ErrTransient, "transient", true},
}

// Error is a failure tagged with a marker and the component that saw it.
type Error struct {
	Marker    error
	Component string
	Operation string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Marker.Error())
	b.WriteString(": ")
	b.WriteString(e.detail())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

func (e *Error) detail() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Component, e.Operation, e.Message} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// Wrap tags err with marker and component context. A nil marker means
// ErrTransient.
func Wrap(marker error, component, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &Error{
		Marker:    marker,
		Component: component,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// Kind returns a short label for err suitable for the error_kind log field.
// Unmarked errors are reported as transient.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.kind
		}
	}
	return "transient"
}

// Retryable reports whether err carries a marker for a temporary condition.
func Retryable(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.retryable
		}
	}
	return false
}
