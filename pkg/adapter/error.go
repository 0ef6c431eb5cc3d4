package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// AdapterError carries the HTTP status and retryability of a failed
// provider call alongside the underlying error.
type AdapterError struct {
	Status    int
	Temporary bool
	Err       error
}

func (e *AdapterError) Error() string {
	if e == nil {
		return "adapter error"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("adapter error (status=%d)", e.Status)
}

func (e *AdapterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// retryable reports whether the error's status or flag marks it
// worth retrying. Rate limits and server-side failures qualify.
func (e *AdapterError) retryable() bool {
	if e.Temporary {
		return true
	}
	return e.Status == http.StatusTooManyRequests ||
		(e.Status >= 500 && e.Status < 600)
}

// IsTransient reports whether err describes a failure that could
// succeed on a later attempt. A canceled context is deliberate and
// never transient; deadline expiry and network timeouts are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.retryable()
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
