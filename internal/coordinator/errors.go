// Package coordinator orchestrates per-store scrape runs: single-flight
// execution, job bookkeeping, wait semantics and system health.
package coordinator

import (
	"errors"
)

// Error types for the coordinator package.
var (
	// ErrNotRegistered is returned when no agent is bound to the store.
	ErrNotRegistered = errors.New("no agent registered for store")

	// ErrWaitTimeout is returned when WaitForIdle's deadline elapses while
	// operations are still running.
	ErrWaitTimeout = errors.New("timed out waiting for operations to finish")
)
