package deviceflow

import (
	"errors"
	"fmt"
)

// Common errors that may occur during a device authorization attempt
var (
	// ErrMalformedResponse indicates a provider reply that could not be
	// decoded or was missing a required field
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrDenied indicates the token endpoint rejected the authorization
	ErrDenied = errors.New("authorization denied")

	// ErrTimedOut indicates the polling budget elapsed before the user
	// completed authorization
	ErrTimedOut = errors.New("authorization timed out")
)

// AuthorizationError indicates the device authorization endpoint rejected
// the initial request. The status code is kept for diagnostics only.
type AuthorizationError struct {
	StatusCode int
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("device authorization failed with status %d", e.StatusCode)
}
