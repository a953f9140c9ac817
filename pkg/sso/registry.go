package sso

import (
	"context"
	"strings"

	"github.com/platinummonkey/codehub/pkg/auth"
	"github.com/sirupsen/logrus"
)

// Config lists provider credentials. BaseURL is the public origin used to
// build callback URLs.
type Config struct {
	BaseURL  string         `yaml:"base_url"`
	Google   ProviderConfig `yaml:"google"`
	Facebook ProviderConfig `yaml:"facebook"`
	GitHub   ProviderConfig `yaml:"github"`
}

// NewProviders builds every provider that has credentials. A Google
// discovery failure disables Google and is logged; the others need no
// network at startup.
func NewProviders(ctx context.Context, cfg Config, logger *logrus.Logger) []Provider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	withRedirect := func(p auth.Provider, c ProviderConfig) ProviderConfig {
		if c.RedirectURL == "" {
			c.RedirectURL = base + CallbackPath(p)
		}
		return c
	}

	var providers []Provider

	if cfg.Google.Configured() {
		google, err := NewGoogle(ctx, withRedirect(auth.ProviderGoogle, cfg.Google))
		if err != nil {
			logger.WithError(err).Warn("google sign-in disabled")
		} else {
			providers = append(providers, google)
		}
	}
	if cfg.Facebook.Configured() {
		providers = append(providers, NewFacebook(withRedirect(auth.ProviderFacebook, cfg.Facebook)))
	}
	if cfg.GitHub.Configured() {
		providers = append(providers, NewGitHub(withRedirect(auth.ProviderGitHub, cfg.GitHub)))
	}

	for _, p := range providers {
		logger.WithField("provider", p.Name()).Info("external sign-in enabled")
	}
	return providers
}
