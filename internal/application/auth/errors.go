package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmail          = errors.New("Invalid Email")
	ErrIncorrectPassword     = errors.New("Incorrect Password")
	ErrNotAuthenticated      = errors.New("Not authenticated")
	ErrInvalidResetToken     = errors.New("Invalid or expired reset token")
	ErrWeakPassword          = errors.New("Password must be at least 8 characters and include a letter, a number and a special character")
	ErrResetUnavailable      = errors.New("Password reset is not configured")
)
