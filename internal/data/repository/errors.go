package repository

import "errors"

var (
	// ErrVersionConflict is returned when an optimistic-concurrency update
	// matched zero rows because another writer bumped the version first.
	ErrVersionConflict = errors.New("order version conflict")

	// ErrHoldNotHeld is returned when a status-guarded hold update matched
	// zero rows because the hold already left the held status.
	ErrHoldNotHeld = errors.New("hold is not in held status")
)
