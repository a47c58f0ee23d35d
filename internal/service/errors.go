package service

import "errors"

var (
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrTooManyAttempts          = errors.New("too many failed sign-in attempts")
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
	ErrForbidden                = errors.New("operation not permitted for this user")
	ErrEmailRegistered          = errors.New("email already registered")
	ErrEmailTaken               = errors.New("email already taken by another user")
	ErrUserNotFound             = errors.New("user not found")
)

// ValidationError reports malformed input. Its message is safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
