package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the rail's credentials are not configured.
	ErrUnavailable = errors.New("payment provider is not configured")

	// ErrIntegrityFailure means a callback failed signature or hash
	// verification. The caller must not apply any state transition.
	ErrIntegrityFailure = errors.New("callback integrity verification failed")
)

// RejectedError is a confirmed business rejection from the provider, e.g. an
// invalid basket. It is not retryable.
type RejectedError struct {
	Provider string
	Message  string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected the request: %s", e.Provider, e.Message)
}

// TransientError wraps a network failure or an unknown provider response.
// It must never be treated as a confirmed payment failure; the payment stays
// pending until resolved by a later callback or the expiry sweep.
type TransientError struct {
	Provider string
	Op       string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable/unknown provider failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
