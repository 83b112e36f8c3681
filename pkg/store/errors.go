package store

import "errors"

// ErrNotFound is returned by Get* methods when no row matches.
var ErrNotFound = errors.New("store: not found")

// ErrNoTaskAvailable is returned by WorkflowStore.ClaimNextTask when no
// queued task is currently claimable (all dependencies unmet or queue empty).
var ErrNoTaskAvailable = errors.New("store: no task available")
