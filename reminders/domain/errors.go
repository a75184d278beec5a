package domain

import "errors"

var (
	// ErrReminderNotFound is returned when no reminder exists for an ID.
	ErrReminderNotFound = errors.New("reminder not found")

	// ErrExecutionNotFound is returned when no execution exists for a key.
	ErrExecutionNotFound = errors.New("execution not found")
)
