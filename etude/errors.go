package etude

import "errors"

var (
	// ErrDuplicateSource is returned by Hub.Add when a document with the
	// same identifier is already present.
	ErrDuplicateSource = errors.New("etude: duplicate source")

	// ErrInvalidInput marks request payloads that fail validation before
	// any model call is made.
	ErrInvalidInput = errors.New("etude: invalid input")
)
