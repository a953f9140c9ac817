package sso

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/platinummonkey/codehub/pkg/audit"
	"github.com/platinummonkey/codehub/pkg/auth"
	"github.com/platinummonkey/codehub/pkg/httputil"
	"github.com/platinummonkey/codehub/pkg/observability"
	"github.com/sirupsen/logrus"
)

const (
	// StateCookieName holds the anti-forgery state during the handshake
	StateCookieName = "codehub_sso_state"
	stateMaxAge     = 600

	// SuccessPath is where a completed sign-in lands
	SuccessPath = "/codehub"
	// FailurePath is where a failed sign-in lands
	FailurePath = "/login"
)

// UserLinker resolves an external identity to a local user
type UserLinker interface {
	FindOrCreate(ctx context.Context, provider auth.Provider, externalID, username string) (*auth.User, bool, error)
}

// SessionEstablisher starts a session for a user
type SessionEstablisher interface {
	Establish(ctx context.Context, w http.ResponseWriter, userID string) error
}

// BrokerConfig wires the broker to its collaborators
type BrokerConfig struct {
	Users         UserLinker
	Sessions      SessionEstablisher
	Logger        *logrus.Logger
	Metrics       *observability.Metrics
	Audit         audit.Logger
	SecureCookies bool
}

// Broker runs the redirect/callback handshake for the registered providers
type Broker struct {
	providers map[auth.Provider]Provider
	users     UserLinker
	sessions  SessionEstablisher
	logger    *logrus.Logger
	metrics   *observability.Metrics
	audit     audit.Logger
	secure    bool
}

// NewBroker creates a broker serving the given providers
func NewBroker(cfg BrokerConfig, providers ...Provider) *Broker {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	auditLogger := cfg.Audit
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}

	b := &Broker{
		providers: make(map[auth.Provider]Provider),
		users:     cfg.Users,
		sessions:  cfg.Sessions,
		logger:    logger,
		metrics:   cfg.Metrics,
		audit:     auditLogger,
		secure:    cfg.SecureCookies,
	}
	for _, p := range providers {
		b.providers[p.Name()] = p
	}
	return b
}

// Provider returns the registered provider with the given name
func (b *Broker) Provider(name auth.Provider) (Provider, bool) {
	p, ok := b.providers[name]
	return p, ok
}

// Enabled lists the registered providers in display order
func (b *Broker) Enabled() []auth.Provider {
	var names []auth.Provider
	for _, name := range auth.Providers {
		if _, ok := b.providers[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Begin stores a fresh state in a cookie and redirects to the provider.
// Unknown providers answer 404.
func (b *Broker) Begin(w http.ResponseWriter, r *http.Request, name auth.Provider) {
	provider, ok := b.providers[name]
	if !ok {
		httputil.WriteNotFound(w)
		return
	}

	state, err := generateState()
	if err != nil {
		b.logger.WithError(err).Error("failed to generate sso state")
		httputil.WriteInternalError(w)
		return
	}

	// Scoped to /auth/{provider} so it is sent only to this provider's callback
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     BeginPath(name),
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   stateMaxAge,
	})

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the handshake. Provider-side failures redirect to the
// login page; storage or session failures answer 500.
func (b *Broker) Callback(w http.ResponseWriter, r *http.Request, name auth.Provider) {
	provider, ok := b.providers[name]
	if !ok {
		httputil.WriteNotFound(w)
		return
	}

	log := b.logger.WithField("provider", name)
	b.clearState(w, name)

	profile, err := b.verify(r, provider)
	if err != nil {
		log.WithError(err).Warn("external sign-in failed")
		b.metrics.RecordSSOCallback(string(name), observability.ResultFailure)
		b.metrics.RecordLogin(string(name), observability.ResultFailure)
		event := audit.NewEvent(r, audit.EventTypeLoginFailed, audit.EventStatusFailure)
		event.Provider = string(name)
		event.Message = err.Error()
		b.record(r, event)
		httputil.Redirect(w, r, FailurePath)
		return
	}

	user, created, err := b.users.FindOrCreate(r.Context(), name, profile.ID, profile.DisplayName)
	if err != nil {
		log.WithError(err).Error("failed to resolve external user")
		b.metrics.RecordSSOCallback(string(name), observability.ResultError)
		httputil.WriteInternalError(w)
		return
	}

	if err := b.sessions.Establish(r.Context(), w, user.ID); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("failed to establish session")
		b.metrics.RecordSSOCallback(string(name), observability.ResultError)
		httputil.WriteInternalError(w)
		return
	}

	log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"created": created,
	}).Info("external sign-in")
	b.metrics.RecordSSOCallback(string(name), observability.ResultSuccess)
	b.metrics.RecordLogin(string(name), observability.ResultSuccess)
	b.metrics.RecordSessionCreated()

	event := audit.NewEvent(r, audit.EventTypeExternalLogin, audit.EventStatusSuccess)
	event.UserID = user.ID
	event.Username = user.Username
	event.Provider = string(name)
	event.Metadata = map[string]interface{}{"created": created}
	b.record(r, event)

	httputil.Redirect(w, r, SuccessPath)
}

// record writes an audit event; failures are logged and otherwise ignored
func (b *Broker) record(r *http.Request, event *audit.Event) {
	if err := b.audit.Log(r.Context(), event); err != nil {
		b.logger.WithError(err).WithField("event_type", event.EventType).Warn("failed to write audit event")
	}
}

// verify checks the callback parameters and exchanges the code
func (b *Broker) verify(r *http.Request, provider Provider) (*Profile, error) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		return nil, fmt.Errorf("provider returned error: %s", errParam)
	}

	cookie, err := r.Cookie(StateCookieName)
	if err != nil || cookie.Value == "" {
		return nil, fmt.Errorf("missing state cookie")
	}
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(query.Get("state"))) != 1 {
		return nil, fmt.Errorf("invalid state parameter")
	}

	code := query.Get("code")
	if code == "" {
		return nil, fmt.Errorf("missing authorization code")
	}

	return provider.Exchange(r.Context(), code)
}

func (b *Broker) clearState(w http.ResponseWriter, name auth.Provider) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     BeginPath(name),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func generateState() (string, error) {
	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(stateBytes), nil
}
