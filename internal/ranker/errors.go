package ranker

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means no credential for the ranking service is present.
// Callers surface it as a specific remediation message, distinct from a
// generic service failure; plain filtering stays usable.
var ErrNotConfigured = errors.New("ranking service credential not configured")

// ErrServiceUnavailable means the ranking service could not be reached or did
// not answer within the deadline.
var ErrServiceUnavailable = errors.New("ranking service unavailable")

// MalformedResponseError means the service responded, but the text could not
// be parsed into the expected id array even after sanitization. Raw carries
// the unsanitized response for diagnostics.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed ranking response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
