package dj

import "errors"

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("dj profile not found")
	ErrProfileExists = errors.New("dj profile already exists for this user")
)
