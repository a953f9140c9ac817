package sso

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/platinummonkey/codehub/pkg/auth"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// tokenHandler answers the OAuth2 token endpoint for code "good-code"
func tokenHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good-code" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}
	writeJSON(w, map[string]interface{}{
		"access_token": "access-123",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func requireBearer(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, "Bearer access-123", r.Header.Get("Authorization"))
}

// newGoogleServer serves OIDC discovery, token and userinfo endpoints
func newGoogleServer(t *testing.T, claims map[string]interface{}) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"issuer":                                srv.URL,
			"authorization_endpoint":                srv.URL + "/auth",
			"token_endpoint":                        srv.URL + "/token",
			"userinfo_endpoint":                     srv.URL + "/userinfo",
			"jwks_uri":                              srv.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/token", tokenHandler)
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		writeJSON(w, claims)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newProfileServer serves a token endpoint and a JSON profile endpoint
func newProfileServer(t *testing.T, profile interface{}) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler)
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		writeJSON(w, profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func endpointConfig(srv *httptest.Server) ProviderConfig {
	return ProviderConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/x/codehub",
		AuthURL:      srv.URL + "/auth",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/profile",
	}
}

func TestGoogle(t *testing.T) {
	srv := newGoogleServer(t, map[string]interface{}{
		"sub":   "10769150350006150715113082367",
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
	})
	ctx := context.Background()

	google, err := NewGoogle(ctx, ProviderConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/google/codehub",
		IssuerURL:    srv.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, auth.ProviderGoogle, google.Name())

	authURL, err := url.Parse(google.AuthCodeURL("st4te"))
	require.NoError(t, err)
	assert.Equal(t, "/auth", authURL.Path)
	assert.Equal(t, "st4te", authURL.Query().Get("state"))
	assert.Equal(t, "openid profile", authURL.Query().Get("scope"))
	assert.Equal(t, "http://localhost:8080/auth/google/codehub", authURL.Query().Get("redirect_uri"))

	profile, err := google.Exchange(ctx, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "10769150350006150715113082367", profile.ID)
	assert.Equal(t, "Ada Lovelace", profile.DisplayName)
	assert.Equal(t, "ada@example.com", profile.Email)

	_, err = google.Exchange(ctx, "bad-code")
	assert.Error(t, err)
}

func TestGoogle_NameFallback(t *testing.T) {
	srv := newGoogleServer(t, map[string]interface{}{"sub": "42"})

	google, err := NewGoogle(context.Background(), ProviderConfig{
		ClientID: "client", ClientSecret: "secret", IssuerURL: srv.URL,
	})
	require.NoError(t, err)

	profile, err := google.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, defaultName(auth.ProviderGoogle, "42"), profile.DisplayName)
}

func TestGoogle_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewGoogle(context.Background(), ProviderConfig{IssuerURL: srv.URL})
	assert.Error(t, err)
}

func TestFacebook(t *testing.T) {
	srv := newProfileServer(t, map[string]interface{}{
		"id":   "1234567890",
		"name": "Grace Hopper",
	})

	fb := NewFacebook(endpointConfig(srv))
	assert.Equal(t, auth.ProviderFacebook, fb.Name())

	profile, err := fb.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", profile.ID)
	assert.Equal(t, "Grace Hopper", profile.DisplayName)
}

func TestGitHub(t *testing.T) {
	tests := []struct {
		name        string
		profile     map[string]interface{}
		wantID      string
		wantDisplay string
		wantErr     bool
	}{
		{
			name:        "login used as display name",
			profile:     map[string]interface{}{"id": 583231, "login": "octocat", "name": "The Octocat"},
			wantID:      "583231",
			wantDisplay: "octocat",
		},
		{
			name:        "name fallback",
			profile:     map[string]interface{}{"id": 7, "name": "Seven"},
			wantID:      "7",
			wantDisplay: "Seven",
		},
		{
			name:    "missing id",
			profile: map[string]interface{}{"login": "ghost"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newProfileServer(t, tt.profile)
			gh := NewGitHub(endpointConfig(srv))

			profile, err := gh.Exchange(context.Background(), "good-code")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, profile.ID)
			assert.Equal(t, tt.wantDisplay, profile.DisplayName)
		})
	}
}

func TestOAuth2Provider_ProfileError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler)
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := NewGitHub(endpointConfig(srv)).Exchange(context.Background(), "good-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestDefaultEndpoints(t *testing.T) {
	gh := NewGitHub(ProviderConfig{ClientID: "id", ClientSecret: "secret"})
	assert.Contains(t, gh.AuthCodeURL("s"), "https://github.com/login/oauth/authorize")
	assert.Equal(t, GitHubProfileURL, gh.userInfoURL)

	fb := NewFacebook(ProviderConfig{ClientID: "id", ClientSecret: "secret"})
	assert.Contains(t, fb.AuthCodeURL("s"), "facebook.com")
	assert.Equal(t, FacebookProfileURL, fb.userInfoURL)
}

func TestNewProviders(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv := newGoogleServer(t, map[string]interface{}{"sub": "1"})

	providers := NewProviders(context.Background(), Config{
		BaseURL:  "https://codehub.example.com/",
		Google:   ProviderConfig{ClientID: "g", ClientSecret: "s", IssuerURL: srv.URL},
		GitHub:   ProviderConfig{ClientID: "gh", ClientSecret: "s"},
		Facebook: ProviderConfig{ClientID: "fb"}, // no secret: disabled
	}, logger)

	require.Len(t, providers, 2)
	assert.Equal(t, auth.ProviderGoogle, providers[0].Name())
	assert.Equal(t, auth.ProviderGitHub, providers[1].Name())

	authURL, err := url.Parse(providers[1].AuthCodeURL("s"))
	require.NoError(t, err)
	assert.Equal(t, "https://codehub.example.com/auth/github/codehub", authURL.Query().Get("redirect_uri"))
}

func TestNewProviders_GoogleDiscoveryFailureSkipsGoogle(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	providers := NewProviders(context.Background(), Config{
		Google: ProviderConfig{ClientID: "g", ClientSecret: "s", IssuerURL: srv.URL},
	}, logger)
	assert.Empty(t, providers)
}
