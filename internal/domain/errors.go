package domain

import "errors"

// Sentinel errors for client-side error conditions.
// Use errors.Is() for matching - never compare error strings.
var (
	// Credential errors. ErrMalformedCredential never reaches a caller of the
	// session package: a credential that cannot be decoded is treated as expired.
	ErrMalformedCredential = errors.New("malformed credential")
	ErrNoCredential        = errors.New("credential not present")

	// Session lifecycle errors
	ErrRefreshFailed  = errors.New("access credential refresh failed")
	ErrSessionExpired = errors.New("session has expired")

	// Remote response errors
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("permission denied")
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrUnavailable        = errors.New("service temporarily unavailable")
	ErrUnexpectedResponse = errors.New("unexpected response from server")

	// Configuration errors
	ErrConfigRequired = errors.New("required configuration key missing")
	ErrConfigInvalid  = errors.New("invalid configuration value")
)

// IsSessionFatal reports whether err ends the current session. Session-fatal
// errors have already cleared the credential store and redirected the user;
// callers only need to stop.
func IsSessionFatal(err error) bool {
	return errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrRefreshFailed)
}

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrRateLimited)
}

// clientErrors enumerates the errors caused by the request itself.
var clientErrors = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrConflict,
	ErrForbidden,
	ErrUnauthorized,
}

// IsClientError returns true if the error will not succeed on retry without
// changing the request.
func IsClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
