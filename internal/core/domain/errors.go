package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies every failure that can terminate or interrupt a query.
// Kinds are the only error detail ever shown to the user; raw transport
// errors stay wrapped underneath.
type ErrorKind string

// Failure classifications.
const (
	// Content source failures.

	// KindSourceUnavailable indicates a network failure or timeout reaching
	// the WordPress API. Transient: the adapter retries these with backoff.
	KindSourceUnavailable ErrorKind = "source_unavailable"

	// KindSourceAuthError indicates the WordPress API rejected the
	// credentials. Never retried.
	KindSourceAuthError ErrorKind = "source_auth_error"

	// KindSourceProtocolError indicates an unexpected response shape from
	// the WordPress API (non-2xx or a non-list payload).
	KindSourceProtocolError ErrorKind = "source_protocol_error"

	// Model backend failures.

	// KindBackendUnavailable indicates a timeout or 5xx from the model
	// backend. Transient: retried on the same candidate.
	KindBackendUnavailable ErrorKind = "backend_unavailable"

	// KindBackendAuthError indicates the backend rejected the API key.
	// Non-retryable for the candidate; triggers a registry advance.
	KindBackendAuthError ErrorKind = "backend_auth_error"

	// KindBackendQuotaExceeded indicates the backend refused the request on
	// quota or rate-limit grounds. Non-retryable for the candidate.
	KindBackendQuotaExceeded ErrorKind = "backend_quota_exceeded"

	// KindBackendProtocolError indicates a malformed stream or response
	// from the backend. Non-retryable for the candidate.
	KindBackendProtocolError ErrorKind = "backend_protocol_error"

	// Session-internal invariant violations.

	// KindProtocolError indicates the backend violated the tool-calling
	// contract, such as requesting a second tool call while one is pending.
	KindProtocolError ErrorKind = "protocol_error"

	// KindRoundLimitExceeded indicates the backend kept requesting tool
	// calls past the configured round cap.
	KindRoundLimitExceeded ErrorKind = "round_limit_exceeded"

	// KindCancelled indicates the user interrupted the query.
	KindCancelled ErrorKind = "cancelled"
)

// Retryable reports whether a failure of this kind may succeed on a repeat
// attempt against the same collaborator. Auth and protocol failures cannot.
func (k ErrorKind) Retryable() bool {
	return k == KindSourceUnavailable || k == KindBackendUnavailable
}

// String returns the kind identifier.
func (k ErrorKind) String() string { return string(k) }

// QueryError is the error type crossing component boundaries. It pairs a
// classification with a human-readable message and keeps the underlying
// cause available for wrapping without ever surfacing it to the user.
type QueryError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

// NewQueryError creates a classified error. cause may be nil.
func NewQueryError(kind ErrorKind, message string, cause error) *QueryError {
	return &QueryError{Kind: kind, Message: message, cause: cause}
}

// Errorf creates a classified error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *QueryError {
	return &QueryError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause for errors.Is/errors.As chains.
func (e *QueryError) Unwrap() error { return e.cause }

// KindOf extracts the classification from any error. Context cancellation
// maps to KindCancelled; everything unclassified is treated as a backend
// protocol violation because classified paths always wrap explicitly.
func KindOf(err error) ErrorKind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	return KindBackendProtocolError
}

// MessageOf extracts the user-facing message from any error. Unclassified
// errors fall back to their Error string.
func MessageOf(err error) string {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Message
	}
	return err.Error()
}
