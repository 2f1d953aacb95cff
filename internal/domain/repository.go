package domain

import (
	"context"
	"time"
)

// StatePort persists a string-keyed mapping of records.
// Implementation: pretty-printed JSON file in infra.
type StatePort[T any] interface {
	// Load returns the persisted mapping. A missing or malformed backing
	// file degrades to an empty mapping; Load never fails.
	Load() map[string]T

	// Save writes the full mapping, replacing previous contents.
	Save(m map[string]T) error
}

// SessionHandle is an opaque reference to a live browser session.
// Only the driver that issued a handle can close it.
type SessionHandle interface {
	// ID identifies the session for logging (typically the profile dir).
	ID() string
}

// SessionDriver launches and closes browser sessions.
// Implementation: playwright-go on the msedge channel. This boundary keeps
// the core free of browser-automation details; fakes implement it in tests.
type SessionDriver interface {
	// Launch starts a browser session for the given spec.
	Launch(ctx context.Context, spec LaunchSpec) (SessionHandle, error)

	// Close shuts down a previously launched session.
	Close(ctx context.Context, handle SessionHandle) error
}

// Sleeper blocks the calling goroutine for a duration.
// Sleeps are the only throttling mechanism; there is no parallel launching.
type Sleeper interface {
	// Sleep waits for d or until ctx is canceled, returning ctx.Err()
	// when interrupted.
	Sleep(ctx context.Context, d time.Duration) error
}

// BrowserInspector reports on running Edge processes.
// Implementation: uses gopsutil for cross-platform support.
type BrowserInspector interface {
	// RunningPIDs returns PIDs of running Edge browser processes.
	RunningPIDs() ([]int, error)
}
