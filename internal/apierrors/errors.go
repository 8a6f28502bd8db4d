// Package apierrors provides the error taxonomy shared by the transport
// and the public client surface. Every failure that crosses the API
// boundary is exactly one Kind.
package apierrors

import (
	"fmt"
	"net/http"
)

// Kind classifies an API failure.
type Kind int

const (
	// KindAuthentication indicates a missing or rejected bearer token.
	KindAuthentication Kind = iota + 1
	// KindInvalidCredentials indicates a rejected login attempt.
	KindInvalidCredentials
	// KindNotFound indicates the requested resource does not exist.
	KindNotFound
	// KindRateLimited indicates the upstream rate limit was exceeded
	// and retries were exhausted.
	KindRateLimited
	// KindNetwork indicates a transport-level failure (timeout, DNS,
	// connection refused) after retries were exhausted.
	KindNetwork
	// KindValidation indicates the request was rejected as malformed,
	// locally or by the server.
	KindValidation
	// KindServer indicates a 5xx upstream failure after retries
	// were exhausted.
	KindServer
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindInvalidCredentials:
		return "invalid credentials"
	case KindNotFound:
		return "not found"
	case KindRateLimited:
		return "rate limited"
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Resource indicates which type of resource an error relates to.
type Resource string

const (
	// ResourceUnknown indicates the resource type is not specified.
	ResourceUnknown Resource = ""
	// ResourceAccount indicates the error relates to an account.
	ResourceAccount Resource = "account"
	// ResourceMessage indicates the error relates to a message.
	ResourceMessage Resource = "message"
	// ResourceDomain indicates the error relates to a domain.
	ResourceDomain Resource = "domain"
)

// Error is a classified API failure. StatusCode is zero for failures
// that never produced an HTTP response.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Resource   Resource
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (%d)", e.Kind, e.StatusCode)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// FromStatus classifies an HTTP error status into a taxonomy Error.
// It is only called for statuses >= 400.
func FromStatus(status int, message string) *Error {
	var kind Kind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuthentication
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= 500:
		kind = KindServer
	default:
		kind = KindValidation
	}
	return &Error{Kind: kind, StatusCode: status, Message: message}
}

// Network wraps a transport-level failure.
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Err: err}
}

// Validation reports a locally detected invalid argument.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Authentication reports a locally detected missing session.
func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// WithResource returns a copy of the error with the resource type set,
// so callers can distinguish a missing message from a missing account.
func (e *Error) WithResource(r Resource) *Error {
	dup := *e
	dup.Resource = r
	return &dup
}

// AsInvalidCredentials re-tags an authentication failure observed
// during a login attempt. Other kinds pass through unchanged.
func (e *Error) AsInvalidCredentials() *Error {
	if e.Kind != KindAuthentication {
		return e
	}
	dup := *e
	dup.Kind = KindInvalidCredentials
	return &dup
}

// Retryable reports whether the status code is transient per the
// default policy: 429 plus the common 5xx gateway statuses.
func Retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
