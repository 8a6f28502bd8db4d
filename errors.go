package mailtm

import (
	"context"
	"errors"
	"fmt"

	"github.com/pryvon/mailtm-go/internal/apierrors"
	"github.com/pryvon/mailtm-go/internal/cache"
)

// Sentinel errors for errors.Is() checks.
var (
	// ErrNotLoggedIn is returned when an operation requires an
	// authenticated session and none is active.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrInvalidCredentials is returned when a login attempt is
	// rejected by the provider.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountNotFound is returned when an account is not found.
	ErrAccountNotFound = errors.New("account not found")

	// ErrMessageNotFound is returned when a message is not found.
	ErrMessageNotFound = errors.New("message not found")

	// ErrRateLimited is returned when the provider's rate limit is
	// exceeded and retries are exhausted.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ErrorKind classifies a failure surfaced by the client. Every error
// returned from a client operation is exactly one kind.
type ErrorKind int

const (
	// KindAuthentication indicates a missing or invalidated session.
	KindAuthentication ErrorKind = iota + 1
	// KindInvalidCredentials indicates a rejected login attempt.
	KindInvalidCredentials
	// KindNotFound indicates the requested resource does not exist.
	KindNotFound
	// KindRateLimited indicates retries were exhausted against 429s.
	KindRateLimited
	// KindNetwork indicates a transport-level failure after retries.
	KindNetwork
	// KindValidation indicates an invalid argument or rejected request.
	KindValidation
	// KindServer indicates a 5xx upstream failure after retries.
	KindServer
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
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

// Error is a classified failure from a client operation. StatusCode is
// zero when no HTTP response was involved.
type Error struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Detail
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.StatusCode != 0 && msg != "":
		return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Kind, e.StatusCode, msg)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Kind, e.StatusCode)
	case msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotLoggedIn:
		return e.Kind == KindAuthentication
	case ErrInvalidCredentials:
		return e.Kind == KindInvalidCredentials
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrAccountNotFound:
		return e.Kind == KindNotFound && e.resource() != apierrors.ResourceMessage
	case ErrMessageNotFound:
		return e.Kind == KindNotFound && e.resource() != apierrors.ResourceAccount
	}
	return false
}

func (e *Error) resource() apierrors.Resource {
	var apiErr *apierrors.Error
	if errors.As(e.Err, &apiErr) {
		return apiErr.Resource
	}
	return apierrors.ResourceUnknown
}

// wrapError converts internal errors into the public Error type.
// Context cancellation passes through untouched.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pubErr *Error
	if errors.As(err, &pubErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *apierrors.Error
	if errors.As(err, &apiErr) {
		// ErrorKind values mirror apierrors.Kind one-to-one.
		return &Error{
			Kind:       ErrorKind(apiErr.Kind),
			Op:         op,
			StatusCode: apiErr.StatusCode,
			Detail:     apiErr.Message,
			Err:        apiErr,
		}
	}
	if errors.Is(err, cache.ErrInvalidTTL) {
		return &Error{Kind: KindValidation, Op: op, Err: err}
	}

	return &Error{Kind: KindNetwork, Op: op, Err: err}
}
