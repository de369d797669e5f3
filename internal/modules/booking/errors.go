package booking

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("booking not found")
	ErrForbidden  = errors.New("caller is not allowed to perform this operation")
	// ErrConflict covers overlapping confirmed bookings and invalid
	// status transitions.
	ErrConflict = errors.New("booking conflict")
)
