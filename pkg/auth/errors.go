package auth

import "errors"

var (
	// ErrUserNotFound is returned by stores when no user matches
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when registering a username that is taken
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrPasswordMismatch is returned when a password and its confirmation differ
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrIncorrectPassword is returned when the current password check fails
	ErrIncorrectPassword = errors.New("password is incorrect")
	// ErrMissingCredentials is returned when username or password is empty
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash
	ErrPasswordTooLong = errors.New("password is too long")
)
