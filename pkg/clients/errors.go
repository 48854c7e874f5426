package clients

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured indicates a client without a base URL.
	ErrNotConfigured = errors.New("client not configured")

	// ErrNotFound indicates the remote system has no matching record.
	ErrNotFound = errors.New("not found")
)

// ClientError is returned for failed vendor API calls.
type ClientError struct {
	// Client is the name of the client that made the call.
	Client string

	// StatusCode is the HTTP status code (0 for transport errors).
	StatusCode int

	// Message is the response body or a description of the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Cause != nil:
		return fmt.Sprintf("%s: status %d: %s: %v", e.Client, e.StatusCode, e.Message, e.Cause)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status %d: %s", e.Client, e.StatusCode, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Client, e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Client, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches ErrNotFound for 404 responses.
func (e *ClientError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err means the remote record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var cerr *ClientError
	if !errors.As(err, &cerr) {
		return false
	}
	return cerr.StatusCode == http.StatusUnauthorized || cerr.StatusCode == http.StatusForbidden
}
