package storage

import "errors"

var (
	// ErrNotFound indicates a missing run or record.
	ErrNotFound = errors.New("storage: not found")

	// ErrCorrupt indicates a persisted file that could not be decoded.
	ErrCorrupt = errors.New("storage: corrupt record")
)
