package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for new hashes
var PasswordCost = bcrypt.DefaultCost

// MaxPasswordBytes is the longest password bcrypt accepts
const MaxPasswordBytes = 72

// ValidatePassword rejects passwords that cannot be stored
func ValidatePassword(password string) error {
	if password == "" {
		return ErrMissingCredentials
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password against hash.
// It returns ErrIncorrectPassword on mismatch or when no hash is set.
func CheckPassword(hash, password string) error {
	if hash == "" {
		return ErrIncorrectPassword
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrIncorrectPassword
	}
	if err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	}
	return nil
}
