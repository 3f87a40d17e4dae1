package services

import "errors"

// Sentinel errors for the failure classes the API distinguishes. Handlers
// map these to HTTP statuses; anything else becomes a 500.
var (
	// ErrDuplicateEmail is returned when registering an email that is taken.
	ErrDuplicateEmail = errors.New("user with this email already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login failures cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDeactivated is returned when logging into a deactivated account.
	ErrAccountDeactivated = errors.New("account is deactivated")
	// ErrUserNotFound is returned by profile operations on a missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrIncorrectPassword is returned when the current password check fails.
	ErrIncorrectPassword = errors.New("current password is incorrect")
	// ErrInvalidToken covers every token verification failure: bad signature,
	// expiry, unknown user and deactivated user are indistinguishable.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrExpenseNotFound covers both a missing expense and an expense owned
	// by another user.
	ErrExpenseNotFound = errors.New("expense not found")
)

// ValidationError reports one or more invalid input fields.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string { return "validation failed" }
