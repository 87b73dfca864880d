// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrEmailAlreadyRegistered is returned when registering with an email that already has an account.
	ErrEmailAlreadyRegistered = errors.New("email already registered")

	// ErrTokenNotFound is returned when a verification token is absent or already consumed.
	// The two cases share one error so callers cannot probe which tokens exist.
	ErrTokenNotFound = errors.New("verification token not found")

	// ErrInvalidCredentials is returned when login fails, regardless of whether
	// the email is unknown or the password is wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = errors.New("user not found")
)
