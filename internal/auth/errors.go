package auth

import (
	"fmt"
)

// AuthError is returned when no credential source yields a usable token,
// when a token endpoint exchange fails, or when the interactive flow fails.
// It always carries a human-actionable remediation hint.
type AuthError struct {
	// Op names the failed operation ("resolve", "code exchange",
	// "token refresh", "interactive flow").
	Op string

	// Status and Body describe a non-success token endpoint response.
	// Status is zero when the failure was not an HTTP response.
	Status int
	Body   string

	// Hint tells the user where to authorize.
	Hint string

	Err error
}

func (e *AuthError) Error() string {
	msg := e.Op + " failed"
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (%d): %s", msg, e.Status, e.Body)
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
