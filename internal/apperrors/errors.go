package apperrors

import (
	"errors"
	"fmt"
)

// Kind identifies a failure class. Callers branch on kinds, never on error
// message text.
type Kind string

// AI failure kinds.
const (
	KindTimeout         Kind = "timeout"
	KindRateLimited     Kind = "rate_limited"
	KindInvalidAPIKey   Kind = "invalid_api_key"
	KindInvalidResponse Kind = "invalid_response"
	KindParseError      Kind = "parse_error"
	KindContentFiltered Kind = "content_filtered"
	KindInvalidRequest  Kind = "invalid_request"
	KindUnknown         Kind = "unknown"
)

// Network failure kinds.
const (
	KindNoConnection Kind = "no_connection"
	KindServerError  Kind = "server_error"
	KindNotFound     Kind = "not_found"
)

// Sync failure kinds.
const (
	KindPermissionDenied Kind = "permission_denied"
	KindSyncFailed       Kind = "sync_failed"
)

// AppError carries a failure kind, a user-facing message and the wrapped
// cause. Services return *AppError so handlers can map kinds to status codes
// without inspecting internals.
type AppError struct {
	Kind     Kind
	Message  string
	Internal error
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Kind, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is matches two AppErrors by kind, falling back to the wrapped cause.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Kind == t.Kind
	}
	return errors.Is(e.Internal, target)
}

// New creates an AppError with the given kind and user-facing message.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an existing error.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Internal: err}
}

// KindOf extracts the kind from err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the failure class is transient. Only these
// kinds are eligible for the AI retry policy.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindRateLimited, KindNoConnection, KindServerError:
		return true
	}
	return false
}

// MessageOf returns the user-facing message, or the raw error text for
// foreign errors.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
