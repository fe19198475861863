package entity

import "errors"

// Domain errors for entity construction.
var (
	// ErrInvalidRadius indicates a base radius that is zero, negative or non-finite.
	ErrInvalidRadius = errors.New("entity: base radius must be positive")

	// ErrInvalidFloor indicates a scale or brightness floor outside (0, 1].
	ErrInvalidFloor = errors.New("entity: floor must be in (0, 1]")

	// ErrUnknownKind indicates a kind name that is not one of the known kinds.
	ErrUnknownKind = errors.New("entity: unknown kind")
)
