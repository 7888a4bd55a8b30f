package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown user name and a wrong
	// password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountDisabled    = errors.New("auth: account disabled")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrTokenInvalid       = errors.New("auth: token invalid")
	ErrMissingSecret      = errors.New("auth: signing secret is not configured")
)
