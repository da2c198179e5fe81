package model

import "errors"

// ErrorKind classifies a download failure for retry decisions
type ErrorKind string

const (
	// ErrorKindTransient covers timeouts, rate limits, and transient
	// server errors; these are retryable
	ErrorKindTransient ErrorKind = "transient"

	// ErrorKindPermanent covers invalid or unsupported URLs and missing
	// authentication; retrying these wastes a slot
	ErrorKindPermanent ErrorKind = "permanent"

	// ErrorKindCancelled marks a user-initiated cancellation; a distinct
	// terminal kind rather than an error
	ErrorKindCancelled ErrorKind = "cancelled"

	// ErrorKindStore marks a history persistence failure; it never fails
	// the originating task
	ErrorKindStore ErrorKind = "store"
)

// Retryable returns true if the kind may be retried.
func (k ErrorKind) Retryable() bool {
	return k == ErrorKindTransient
}

// DownloadError is a classified download failure.
type DownloadError struct {
	Kind    ErrorKind
	Message string
	Err     error // underlying cause, may be nil
}

// Error implements the error interface
func (e *DownloadError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind) + " error"
}

// Unwrap returns the underlying cause
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// NewDownloadError builds a classified error from a kind and cause.
func NewDownloadError(kind ErrorKind, message string, err error) *DownloadError {
	return &DownloadError{Kind: kind, Message: message, Err: err}
}

// KindOf classifies an arbitrary error from the fetch primitive. Unknown
// errors are treated as permanent so the pool fails fast instead of
// retrying into an unknown failure mode.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *DownloadError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrorKindPermanent
}
