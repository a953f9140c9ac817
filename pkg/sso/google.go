package sso

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/platinummonkey/codehub/pkg/auth"
	"golang.org/x/oauth2"
)

// GoogleIssuer is the OpenID Connect issuer for Google accounts
const GoogleIssuer = "https://accounts.google.com"

const googleScopeProfile = "profile"

// Google signs users in with Google accounts over OpenID Connect
type Google struct {
	cfg      *oauth2.Config
	provider *oidc.Provider
}

type googleClaims struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewGoogle runs OIDC discovery against the issuer and builds the provider
func NewGoogle(ctx context.Context, config ProviderConfig) (*Google, error) {
	issuer := nameOrDefault(config.IssuerURL, GoogleIssuer)

	p, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("new oidc provider: %w", err)
	}

	endpoint := p.Endpoint()
	if config.AuthURL != "" {
		endpoint.AuthURL = config.AuthURL
	}
	if config.TokenURL != "" {
		endpoint.TokenURL = config.TokenURL
	}

	return &Google{
		cfg: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, googleScopeProfile},
			Endpoint:     endpoint,
		},
		provider: p,
	}, nil
}

// Name returns auth.ProviderGoogle
func (g *Google) Name() auth.Provider {
	return auth.ProviderGoogle
}

// AuthCodeURL returns the Google consent URL
func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state)
}

// Exchange trades the code for a token and reads the userinfo endpoint
func (g *Google) Exchange(ctx context.Context, code string) (*Profile, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	info, err := g.provider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}

	var claims googleClaims
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	id := nameOrDefault(info.Subject, claims.Sub)
	if id == "" {
		return nil, fmt.Errorf("missing subject in userinfo")
	}

	return &Profile{
		ID:          id,
		DisplayName: nameOrDefault(claims.Name, defaultName(auth.ProviderGoogle, id)),
		Email:       nameOrDefault(info.Email, claims.Email),
	}, nil
}
