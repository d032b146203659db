package services

import "errors"

var (
	// ErrForbidden is returned when the actor lacks ownership or role for
	// the operation. It deliberately carries no detail about what exists.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation wraps malformed or self-contradictory input.
	ErrValidation = errors.New("validation error")
)
