package arena

import "errors"

var (
	// ErrZeroSize is returned when an allocation of zero (or fewer) bytes is requested.
	ErrZeroSize = errors.New("arena: allocation size must be positive")

	// ErrArenaFull is returned when an allocation would exceed the arena's limit.
	// Callers may recover from it, e.g. by rotating to a fresh arena.
	ErrArenaFull = errors.New("arena: memory limit exceeded")
)
