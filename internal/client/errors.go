package client

import (
	"errors"
	"fmt"
)

// AuthError marks an authentication or quota failure (HTTP 401/429). It is
// fatal for the affected device's polling loop: the coordinator must stop
// retrying and surface a reauthentication requirement instead.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	if e.StatusCode == 429 {
		return "too many API requests - limit is 10000/account/day (HTTP 429)"
	}
	return fmt.Sprintf("unauthorized - check your API key (HTTP %d)", e.StatusCode)
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// CommandError is a vendor-reported control failure: the HTTP exchange
// succeeded but the echoed capability state carries status "failure". The
// vendor's reason is preserved so callers can surface it.
type CommandError struct {
	Code int
	Msg  string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("vendor rejected command: %d - %s", e.Code, e.Msg)
}
