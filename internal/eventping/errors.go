package eventping

import (
	"errors"
	"fmt"

	"valier/internal/services"
)

var (
	// ErrParentNotFound reports that the configured parent category does not exist.
	ErrParentNotFound = errors.New("parent category not found")
	// ErrPermissionDenied reports that the bot lacks a guild permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrProvider wraps any other failure returned by Discord.
	ErrProvider = errors.New("provider failure")
	// ErrResourceNotFound reports that a provisioned room no longer exists.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrAlreadyMonitored rejects a second monitor for the same room.
	ErrAlreadyMonitored = errors.New("resource already monitored")
	// ErrUnauthorized rejects invokers without an allowed role.
	ErrUnauthorized = errors.New("invoker not authorized")
	// ErrUnknownRole rejects role labels outside the configured set.
	ErrUnknownRole = errors.New("unknown role label")
	// ErrSessionNotActive rejects monitors for sessions that are not Active.
	ErrSessionNotActive = errors.New("session not active")
	// ErrRegistryClosed rejects monitors started after shutdown began.
	ErrRegistryClosed = errors.New("monitor registry closed")
)

// classify maps a provider error onto the package sentinels while keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrProvider), errors.Is(err, ErrResourceNotFound):
		return err
	case errors.Is(err, services.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case errors.Is(err, services.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrResourceNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}
}
