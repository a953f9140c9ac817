package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret"))
	assert.ErrorIs(t, CheckPassword(hash, "S3cret"), ErrIncorrectPassword)
	assert.ErrorIs(t, CheckPassword("", "s3cret"), ErrIncorrectPassword)
}

func TestHashPassword_Salted(t *testing.T) {
	PasswordCost = bcrypt.MinCost

	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "empty", password: "", wantErr: ErrMissingCredentials},
		{name: "short", password: "pw1"},
		{name: "at limit", password: strings.Repeat("a", MaxPasswordBytes)},
		{name: "over limit", password: strings.Repeat("a", MaxPasswordBytes+1), wantErr: ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	PasswordCost = bcrypt.MinCost

	_, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestUserExternalID(t *testing.T) {
	var u User
	for _, p := range Providers {
		assert.Empty(t, u.ExternalID(p))
		u.SetExternalID(p, string(p)+"-1")
		assert.Equal(t, string(p)+"-1", u.ExternalID(p))
	}
	assert.True(t, ProviderGitHub.Valid())
	assert.False(t, Provider("twitter").Valid())
	assert.False(t, u.HasPassword())
}
