package stream

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("stream not found")
	ErrForbidden  = errors.New("caller is not allowed to perform this operation")
	// ErrConflict covers a second live stream on a booking and invalid
	// lifecycle transitions.
	ErrConflict = errors.New("stream conflict")
	// ErrExternal is a fatal failure of the live-video provider;
	// best-effort calls (metrics, teardown) never surface it.
	ErrExternal = errors.New("streaming provider error")
)
