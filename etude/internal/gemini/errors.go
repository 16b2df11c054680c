package gemini

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the model produces no text at all.
var ErrEmptyResponse = errors.New("gemini: model returned an empty response")

// ErrUpstream wraps network, quota, and service-side failures from the API.
var ErrUpstream = errors.New("gemini: upstream request failed")

// MalformedError is returned when the model output cannot be parsed as JSON
// despite the response schema. Raw keeps the unparsable text for diagnostics.
type MalformedError struct {
	Raw string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("gemini: model returned invalid JSON: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }
