// ABOUTME: Error taxonomy for backend service calls
// ABOUTME: Sentinels for errors.Is plus StatusError carrying the HTTP status code

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Service call errors
var (
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrTimeout            = errors.New("request timed out")
)

// StatusError reports a non-success HTTP status from a service.
type StatusError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server returned status %d", e.Code)
}

// Unwrap lets errors.Is(err, ErrServiceUnavailable) match a StatusError.
func (e *StatusError) Unwrap() error {
	return ErrServiceUnavailable
}

// transportError classifies an error from http.Client.Do.
func transportError(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, err)
}

// decodeError wraps a body decoding failure.
func decodeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrMalformedResponse, err)
}

// bodyError classifies a failure while reading a response body: an expired
// deadline is a timeout, anything else means the body was not what we expected.
func bodyError(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return decodeError(op, err)
}
