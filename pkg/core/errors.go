package core

import "errors"

// Common errors.
var (
	ErrInvalidKey      = errors.New("invalid storage key")
	ErrUnsupportedArea = errors.New("unsupported storage area")
	ErrNoteNotFound    = errors.New("note not found")
	ErrCorruptValue    = errors.New("stored value cannot be decoded")
	ErrClosed          = errors.New("storage is closed")
)
