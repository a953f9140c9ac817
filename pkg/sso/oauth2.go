package sso

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/platinummonkey/codehub/pkg/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	// FacebookProfileURL returns the fields CodeHub needs from the Graph API
	FacebookProfileURL = "https://graph.facebook.com/me?fields=id,name"
	// GitHubProfileURL returns the authenticated GitHub user
	GitHubProfileURL = "https://api.github.com/user"
)

// profileDecoder maps a provider's profile JSON to a Profile
type profileDecoder func(body []byte) (*Profile, error)

// OAuth2Provider signs users in with a plain OAuth2 provider that exposes a
// JSON profile endpoint
type OAuth2Provider struct {
	name        auth.Provider
	cfg         *oauth2.Config
	userInfoURL string
	decode      profileDecoder
}

func newOAuth2Provider(name auth.Provider, config ProviderConfig, endpoint oauth2.Endpoint, userInfoURL string, decode profileDecoder) *OAuth2Provider {
	if config.AuthURL != "" {
		endpoint.AuthURL = config.AuthURL
	}
	if config.TokenURL != "" {
		endpoint.TokenURL = config.TokenURL
	}

	return &OAuth2Provider{
		name: name,
		cfg: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Endpoint:     endpoint,
		},
		userInfoURL: nameOrDefault(config.UserInfoURL, userInfoURL),
		decode:      decode,
	}
}

// NewFacebook builds the Facebook provider
func NewFacebook(config ProviderConfig) *OAuth2Provider {
	return newOAuth2Provider(auth.ProviderFacebook, config, endpoints.Facebook, FacebookProfileURL, decodeFacebook)
}

// NewGitHub builds the GitHub provider
func NewGitHub(config ProviderConfig) *OAuth2Provider {
	return newOAuth2Provider(auth.ProviderGitHub, config, endpoints.GitHub, GitHubProfileURL, decodeGitHub)
}

// Name returns the provider name
func (p *OAuth2Provider) Name() auth.Provider {
	return p.name
}

// AuthCodeURL returns the provider consent URL
func (p *OAuth2Provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

// Exchange trades the code for a token and fetches the profile
func (p *OAuth2Provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile request failed with status %d: %s", resp.StatusCode, string(body))
	}

	profile, err := p.decode(body)
	if err != nil {
		return nil, err
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("missing user ID in %s profile", p.name)
	}
	if profile.DisplayName == "" {
		profile.DisplayName = defaultName(p.name, profile.ID)
	}
	return profile, nil
}

func decodeFacebook(body []byte) (*Profile, error) {
	var fb struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &fb); err != nil {
		return nil, fmt.Errorf("decode facebook profile: %w", err)
	}
	return &Profile{ID: fb.ID, DisplayName: fb.Name, Email: fb.Email}, nil
}

// decodeGitHub uses the login as display name, falling back to the full name
func decodeGitHub(body []byte) (*Profile, error) {
	var gh struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &gh); err != nil {
		return nil, fmt.Errorf("decode github profile: %w", err)
	}

	var id string
	if gh.ID != 0 {
		id = strconv.FormatInt(gh.ID, 10)
	}
	return &Profile{
		ID:          id,
		DisplayName: nameOrDefault(gh.Login, gh.Name),
		Email:       gh.Email,
	}, nil
}
