package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry and batch-store operations. Callers match
// with errors.Is; single-item mutators surface these softly while batch
// operations escalate ErrNotFound into a hard abort.
var (
	// ErrAlreadyExists is returned when adding a profile under a taken name.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound is returned for operations on unknown profile or batch names.
	ErrNotFound = errors.New("not found")
)

// LaunchError wraps a driver-level launch failure for one profile.
type LaunchError struct {
	Profile string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch profile %q: %v", e.Profile, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// CloseError wraps a driver-level close failure. Always non-fatal: callers
// log it and carry on.
type CloseError struct {
	Profile string
	Err     error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("failed to close session for profile %q: %v", e.Profile, e.Err)
}

func (e *CloseError) Unwrap() error { return e.Err }
