package session

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation wraps client-side validation failures; no request was sent
	ErrValidation = errors.New("validation failed")

	// ErrSessionExpired is returned when the API rejected the session with 401.
	// The stored session has already been cleared when it is returned, unless
	// Restore had not run yet.
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrNavigationFailed is returned with a session that was logged in but
	// whose dashboard could not be opened
	ErrNavigationFailed = errors.New("logged in but failed to open dashboard")

	ErrNotLoggedIn            = errors.New("not logged in")
	ErrAlreadyRestored        = errors.New("session already restored")
	ErrInvalidLoginResponse   = errors.New("invalid login response")
	ErrWebClientNotConfigured = errors.New("web client not configured (set WEB_URL)")
)

// ActivationRequiredError is returned by Login when the account exists but
// has not been activated yet. Callers send the user to the activation flow.
type ActivationRequiredError struct {
	Email   string
	Message string
	Err     error
}

func (e *ActivationRequiredError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("account activation required for %s: %s", e.Email, e.Message)
	}
	return fmt.Sprintf("account activation required for %s", e.Email)
}

func (e *ActivationRequiredError) Unwrap() error {
	return e.Err
}

// NeedsActivation is always true; it mirrors the needs_activation flag
func (e *ActivationRequiredError) NeedsActivation() bool {
	return true
}
