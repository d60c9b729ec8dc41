// Package apierrors defines the error taxonomy returned by the accounts core.
// Messages are safe to show to clients; wrapped causes are for logs only.
package apierrors

import (
	"errors"
	"fmt"
)

// Kind classifies an APIError.
type Kind string

const (
	KindConflict           Kind = "conflict"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthenticated    Kind = "unauthenticated"
	KindUnavailable        Kind = "unavailable"
	KindMalformed          Kind = "malformed"
	KindNotFound           Kind = "not_found"
	KindInternal           Kind = "internal"
)

// APIError is a typed error with a client-facing message.
type APIError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches any *APIError of the same kind.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}

// Retryable reports whether the caller may retry the operation as is.
func Retryable(err error) bool {
	return KindOf(err) == KindUnavailable
}

// Sentinels for errors.Is comparisons.
var (
	ErrConflict           = &APIError{Kind: KindConflict}
	ErrInvalidCredentials = &APIError{Kind: KindInvalidCredentials}
	ErrUnauthenticated    = &APIError{Kind: KindUnauthenticated}
	ErrUnavailable        = &APIError{Kind: KindUnavailable}
	ErrMalformed          = &APIError{Kind: KindMalformed}
	ErrNotFound           = &APIError{Kind: KindNotFound}
)

// NewErrUserAlreadyExists deliberately does not say which field collided.
func NewErrUserAlreadyExists(cause error) *APIError {
	return &APIError{Kind: KindConflict, Message: "username or email already exists", Err: cause}
}

// NewErrInvalidCredentials is shared by every failed login path.
func NewErrInvalidCredentials(cause error) *APIError {
	return &APIError{Kind: KindInvalidCredentials, Message: "incorrect username or password", Err: cause}
}

func NewErrInvalidFederatedAssertion(cause error) *APIError {
	return &APIError{Kind: KindInvalidCredentials, Message: "invalid authentication credentials", Err: cause}
}

func NewErrUnauthenticated(cause error) *APIError {
	return &APIError{Kind: KindUnauthenticated, Message: "could not validate credentials", Err: cause}
}

func NewErrMissingAuthorizationToken() *APIError {
	return &APIError{Kind: KindUnauthenticated, Message: "missing authorization token"}
}

func NewErrUnavailable(cause error) *APIError {
	return &APIError{Kind: KindUnavailable, Message: "service temporarily unavailable", Err: cause}
}

func NewErrMalformed(message string, cause error) *APIError {
	return &APIError{Kind: KindMalformed, Message: message, Err: cause}
}

func NewErrNotFound(what string) *APIError {
	return &APIError{Kind: KindNotFound, Message: what + " not found"}
}

func NewErrInternal(cause error) *APIError {
	return &APIError{Kind: KindInternal, Message: "internal server error", Err: cause}
}
