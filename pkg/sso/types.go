package sso

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/platinummonkey/codehub/pkg/auth"
)

// Profile is the identity returned by a provider
type Profile struct {
	ID          string
	DisplayName string
	Email       string
}

// Provider is one external identity provider
type Provider interface {
	// Name identifies the provider in routes and on the user record
	Name() auth.Provider
	// AuthCodeURL is the provider login URL carrying state
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the user's profile
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// ProviderConfig holds credentials and optional endpoint overrides for one
// provider. Empty endpoint fields use the provider's public URLs.
type ProviderConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`

	AuthURL     string `yaml:"auth_url"`
	TokenURL    string `yaml:"token_url"`
	UserInfoURL string `yaml:"userinfo_url"`
	// IssuerURL is used by OpenID Connect discovery (Google only)
	IssuerURL string `yaml:"issuer_url"`
}

// Configured reports whether credentials are present
func (c ProviderConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// CallbackPath is the path the provider redirects back to
func CallbackPath(p auth.Provider) string {
	return "/auth/" + string(p) + "/codehub"
}

// BeginPath is the path that starts the handshake
func BeginPath(p auth.Provider) string {
	return "/auth/" + string(p)
}

func nameOrDefault(name, def string) string {
	if name != "" {
		return name
	}
	return def
}

// defaultName derives a stable placeholder name for profiles without one
func defaultName(p auth.Provider, id string) string {
	sum := sha256.Sum256([]byte(id))
	return fmt.Sprintf("%s_%x", p, sum[:4])
}
