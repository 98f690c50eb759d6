package shared

import "errors"

// Sentinel errors shared across domain modules.
var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates rejected input; the write never happened.
	ErrValidation = errors.New("validation failed")
	// ErrLocked indicates a mutation against a completed, locked entity.
	ErrLocked = errors.New("entity is locked")
	// ErrForbidden indicates the caller's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrDailyLimitExceeded is returned when a single entry exceeds the daily cap.
	ErrDailyLimitExceeded = errors.New("daily hours limit exceeded")
	// ErrWeeklyLimitExceeded is returned when an entry would push the week past the cap.
	ErrWeeklyLimitExceeded = errors.New("weekly hours limit exceeded")
)
