package payment

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("payment not found")
	ErrForbidden  = errors.New("caller is not allowed to perform this operation")
	// ErrConflict: a succeeded payment already exists for the booking,
	// or the booking is in a state that cannot be paid for.
	ErrConflict = errors.New("payment conflict")
	// ErrExternal is a fatal payment-provider failure.
	ErrExternal = errors.New("payment provider error")
)
