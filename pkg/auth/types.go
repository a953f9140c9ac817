package auth

import (
	"context"
	"time"
)

// Provider identifies an external identity provider
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderGitHub   Provider = "github"
)

// Providers lists every supported external identity provider
var Providers = []Provider{ProviderGoogle, ProviderFacebook, ProviderGitHub}

// Valid reports whether p is one of the supported providers
func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderFacebook, ProviderGitHub:
		return true
	}
	return false
}

// User represents a CodeHub account
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // Never expose hash
	GoogleID     string    `json:"google_id,omitempty"`
	FacebookID   string    `json:"facebook_id,omitempty"`
	GitHubID     string    `json:"github_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ExternalID returns the user's id at the given provider, or "" if unlinked
func (u *User) ExternalID(p Provider) string {
	switch p {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderFacebook:
		return u.FacebookID
	case ProviderGitHub:
		return u.GitHubID
	}
	return ""
}

// SetExternalID links the user to an id at the given provider
func (u *User) SetExternalID(p Provider, id string) {
	switch p {
	case ProviderGoogle:
		u.GoogleID = id
	case ProviderFacebook:
		u.FacebookID = id
	case ProviderGitHub:
		u.GitHubID = id
	}
}

// HasPassword reports whether the account can log in with local credentials
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// UserStore persists users.
//
// Implementations return ErrUserNotFound for lookups that match nothing.
// Update is a full overwrite; concurrent updates are last write wins.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByProviderID(ctx context.Context, provider Provider, externalID string) (*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error

	// FindOrCreate returns the user linked to externalID at provider,
	// creating one named username if none exists. The bool is true when a
	// new user was created.
	FindOrCreate(ctx context.Context, provider Provider, externalID, username string) (*User, bool, error)

	Close() error
}

// RegisterRequest is the local signup form
type RegisterRequest struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// ChangePasswordRequest is the settings password form
type ChangePasswordRequest struct {
	OldPassword        string
	NewPassword        string
	ConfirmNewPassword string
}
