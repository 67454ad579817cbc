package mtc

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the MTC protocol client.
var (
	// ErrUnknownEndpoint indicates an endpoint key with no descriptor.
	ErrUnknownEndpoint = errors.New("unknown endpoint key")

	// ErrProtocolMismatch indicates a vendor script no longer matches
	// the expected version pattern. Not retryable; the patterns need a
	// human update.
	ErrProtocolMismatch = errors.New("vendor script does not match expected pattern")

	// ErrSession indicates the bootstrap handshake did not yield the
	// required cookies or version token.
	ErrSession = errors.New("session bootstrap incomplete")

	// ErrAuthentication indicates the server rejected the credentials
	// or withheld the rotated anti-forgery token.
	ErrAuthentication = errors.New("authentication failed")
)

// ProtocolError wraps ErrProtocolMismatch with the endpoint involved.
type ProtocolError struct {
	Endpoint string
	Script   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("version pattern for %q not found in %s", e.Endpoint, e.Script)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocolMismatch
}

// APIError is a server-reported rejection carried in a 2xx response.
type APIError struct {
	Op      string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsProtocolMismatch checks whether err signals changed vendor internals.
func IsProtocolMismatch(err error) bool {
	return errors.Is(err, ErrProtocolMismatch)
}
