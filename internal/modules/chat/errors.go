package chat

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("booking not found")
	// ErrForbidden: the caller is not the booking's host, its DJ, or an admin.
	ErrForbidden = errors.New("caller is not a participant of this booking")
)
