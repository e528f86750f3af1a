package engine

import "errors"

var (
	// ErrClosed is returned when the engine is used after Close.
	ErrClosed = errors.New("engine is closed")

	// ErrEmptyKey is returned when a write uses an empty key.
	ErrEmptyKey = errors.New("key must not be empty")

	// ErrTooManyFrozen is returned when a memtable cannot be frozen because
	// the configured number of frozen memtables are still awaiting release.
	ErrTooManyFrozen = errors.New("too many frozen memtables")
)
