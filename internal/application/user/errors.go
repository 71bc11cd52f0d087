package user

import "errors"

var (
	ErrNameRequired     = errors.New("Name is required")
	ErrInvalidName      = errors.New("Name contains invalid characters")
	ErrInvalidEmail     = errors.New("Invalid email format")
	ErrWeakPassword     = errors.New("Password must be at least 8 characters and include a letter, a number and a special character")
	ErrInvalidPhone     = errors.New("Invalid phone number")
	ErrEmailTaken       = errors.New("Email already registered")
	ErrUserNotFound     = errors.New("User not found")
	ErrInvalidRole      = errors.New("Invalid role")
	ErrCannotDeleteSelf = errors.New("You cannot delete your own account")
	ErrNoUpdateFields   = errors.New("No valid update fields provided")

	ErrCannotChangeOwnRole = errors.New("Users cannot modify their own role")
	ErrLastAdmin           = errors.New("There must be at least one admin")
)
