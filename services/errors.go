package services

import "errors"

var (
	ErrDuplicateAccount  = errors.New("an account with this email already exists")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrListingNotFound   = errors.New("listing not found")
	// ErrCorruptState means a persisted collection could not be parsed.
	ErrCorruptState = errors.New("persisted state is corrupt")
)
