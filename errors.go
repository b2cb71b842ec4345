package storefront

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned for both unknown emails and wrong
	// passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotVerified is returned when the password is right but the email was
	// never confirmed.
	ErrNotVerified     = errors.New("email not verified")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrForbidden       = errors.New("forbidden")
	// ErrRegistrationIncomplete asks the caller to finish verification first.
	ErrRegistrationIncomplete = errors.New("complete registration first")
	ErrLoginRateLimited       = errors.New("login rate limited")

	ErrCodeNotFound      = errors.New("verification code not found")
	ErrCodeExpired       = errors.New("verification code expired")
	ErrAttemptsExhausted = errors.New("verification attempts exhausted")
	ErrCodeMismatch      = errors.New("verification code mismatch")

	ErrNotFound = errors.New("not found")
	// ErrDependency wraps store and mail failures. Callers may retry.
	ErrDependency = errors.New("dependency unavailable")

	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrOrderExists            = errors.New("order already exists")
	ErrInvalidTransition      = errors.New("invalid status transition")

	ErrEngineNotReady = errors.New("engine not initialized")
)

// CodeMismatchError is returned for a wrong verification code and carries
// the attempts left before the code is burned.
type CodeMismatchError struct {
	Remaining int
}

func (e *CodeMismatchError) Error() string {
	return fmt.Sprintf("%s: %d attempts remaining", ErrCodeMismatch.Error(), e.Remaining)
}

func (e *CodeMismatchError) Unwrap() error { return ErrCodeMismatch }

// ErrorKind groups errors by how a caller should react.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindAuth
	KindVerification
	KindNotFound
	KindDependency
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindVerification:
		return "verification"
	case KindNotFound:
		return "not_found"
	case KindDependency:
		return "dependency"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Unrecognized errors are KindUnknown.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrEmailAlreadyRegistered),
		errors.Is(err, ErrOrderExists),
		errors.Is(err, ErrInvalidTransition):
		return KindValidation
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrNotVerified),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrRegistrationIncomplete),
		errors.Is(err, ErrLoginRateLimited):
		return KindAuth
	case errors.Is(err, ErrCodeNotFound),
		errors.Is(err, ErrCodeExpired),
		errors.Is(err, ErrAttemptsExhausted),
		errors.Is(err, ErrCodeMismatch):
		return KindVerification
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDependency), errors.Is(err, ErrEngineNotReady):
		return KindDependency
	default:
		return KindUnknown
	}
}

// RemainingAttempts extracts the attempts left from a code mismatch.
func RemainingAttempts(err error) (int, bool) {
	var mismatch *CodeMismatchError
	if errors.As(err, &mismatch) {
		return mismatch.Remaining, true
	}
	return 0, false
}
