package errors

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// TransientError marks an upstream failure as retry-able.
type TransientError struct {
	Err        error
	StatusCode int // HTTP status code if applicable
	RetryAfter int // Seconds to wait before retry, from Retry-After header
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks an upstream failure as non-retry-able.
type PermanentError struct {
	Err        error
	StatusCode int
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// FromHTTPStatus wraps err according to the upstream response status so
// callers can route it through IsTransient.
func FromHTTPStatus(status int, err error) error {
	if err == nil {
		err = fmt.Errorf("http status %d", status)
	}
	if isTransientHTTPStatus(status) {
		return &TransientError{Err: err, StatusCode: status}
	}
	return &PermanentError{Err: err, StatusCode: status}
}

// IsTransient reports whether an error is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}

	return isNetworkError(err)
}

func isTransientHTTPStatus(status int) bool {
	switch status {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout() || isConnectionError(err)
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ETIMEDOUT)
}
