package force

import "errors"

var (
	// ErrDuplicateNode indicates AddNode with an id already in the arena.
	ErrDuplicateNode = errors.New("force: duplicate node")

	// ErrMissingEndpoint indicates AddLink with an endpoint that is not in the arena.
	ErrMissingEndpoint = errors.New("force: link endpoint not found")
)
