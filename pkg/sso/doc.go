// Package sso signs users in through external identity providers.
//
// # Overview
//
// Three providers are supported: Google (OpenID Connect), Facebook and
// GitHub (plain OAuth2 with a profile API). Each implements Provider.
// The Broker drives the browser handshake:
//
//	GET /auth/{provider}          Begin: state cookie, redirect to provider
//	GET /auth/{provider}/codehub  Callback: verify state, exchange code,
//	                              find-or-create the user, start a session
//
// A successful callback redirects to /codehub; any provider-side failure
// redirects to /login.
//
// # Usage Example
//
//	providers := sso.NewProviders(ctx, sso.Config{
//		BaseURL: "http://localhost:8080",
//		GitHub:  sso.ProviderConfig{ClientID: id, ClientSecret: secret},
//	}, logger)
//
//	broker := sso.NewBroker(sso.BrokerConfig{
//		Users:    store,
//		Sessions: sessions,
//		Logger:   logger,
//	}, providers...)
//
// Endpoints default to the public provider URLs and can be overridden per
// provider, which is how the tests point them at local servers.
package sso
