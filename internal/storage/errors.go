package storage

import "errors"

var (
	// ErrCorruptedKey is returned when an internal key is too short to hold a tag.
	ErrCorruptedKey = errors.New("corrupted internal key")

	// ErrSequenceOverflow is returned when a sequence number does not fit in a tag.
	ErrSequenceOverflow = errors.New("sequence number overflows tag")
)
