package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/codehub/pkg/audit"
	"github.com/platinummonkey/codehub/pkg/auth"
	"github.com/platinummonkey/codehub/pkg/contextkeys"
	"github.com/platinummonkey/codehub/pkg/httputil"
	"github.com/platinummonkey/codehub/pkg/middleware"
	"github.com/platinummonkey/codehub/pkg/observability"
	"github.com/platinummonkey/codehub/pkg/sso"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// DefaultMaxBodyBytes bounds form submissions
const DefaultMaxBodyBytes = 1 << 20

// SessionManager starts, resolves and ends browser sessions
type SessionManager interface {
	Establish(ctx context.Context, w http.ResponseWriter, userID string) error
	Resolve(r *http.Request) (userID string, token string, err error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Config wires the server to its collaborators
type Config struct {
	Auth     *auth.Service
	Users    auth.UserStore
	Sessions SessionManager
	Broker   *sso.Broker
	Renderer Renderer
	Logger   *logrus.Logger
	Audit    audit.Logger

	// Metrics and Registry are optional; without a registry /metrics is
	// not served
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Health   *observability.HealthChecker

	// RateLimiter bounds form posts per client address; nil disables it
	RateLimiter middleware.Limiter

	ServiceName  string
	MaxBodyBytes int64
}

// Server represents the CodeHub web server
type Server struct {
	auth     *auth.Service
	users    auth.UserStore
	sessions SessionManager
	broker   *sso.Broker
	renderer Renderer
	logger   *logrus.Logger
	audit    audit.Logger
	metrics  *observability.Metrics
	limiter  middleware.Limiter

	router  *mux.Router
	handler http.Handler
}

// NewServer creates a new web server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Auth == nil || cfg.Users == nil || cfg.Sessions == nil {
		return nil, errors.New("web: auth service, user store and session manager are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	renderer := cfg.Renderer
	if renderer == nil {
		tmpl, err := NewTemplateRenderer()
		if err != nil {
			return nil, err
		}
		renderer = tmpl
	}

	auditLogger := cfg.Audit
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}

	broker := cfg.Broker
	if broker == nil {
		broker = sso.NewBroker(sso.BrokerConfig{Users: cfg.Users, Sessions: cfg.Sessions, Logger: logger, Audit: auditLogger})
	}

	health := cfg.Health
	if health == nil {
		health = observability.NewHealthChecker(nil, nil)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "codehub"
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	s := &Server{
		auth:     cfg.Auth,
		users:    cfg.Users,
		sessions: cfg.Sessions,
		broker:   broker,
		renderer: renderer,
		logger:   logger,
		audit:    auditLogger,
		metrics:  cfg.Metrics,
		limiter:  cfg.RateLimiter,
		router:   mux.NewRouter(),
	}

	s.setupRoutes(health, cfg.Registry)

	s.handler = httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		observability.TracingMiddleware(serviceName),
		httputil.MaxBytesMiddleware(maxBody),
	)(s.router)

	return s, nil
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes(health *observability.HealthChecker, registry *prometheus.Registry) {
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	// Operational routes skip session resolution
	observability.RegisterHealthRoutes(s.router, health)
	if registry != nil {
		observability.RegisterMetricsEndpoint(s.router, registry)
	}

	app := s.router.PathPrefix("/").Subrouter()
	app.Use(middleware.Session(s.sessions, s.users, s.logger))

	// Public pages
	app.HandleFunc("/", s.home).Methods(http.MethodGet)
	app.HandleFunc("/register", s.registerForm).Methods(http.MethodGet)
	app.Handle("/register", s.limited(s.register)).Methods(http.MethodPost)
	app.HandleFunc("/login", s.loginForm).Methods(http.MethodGet)
	app.Handle("/login", s.limited(s.login)).Methods(http.MethodPost)

	// External sign-in
	app.HandleFunc("/auth/{provider}", s.beginExternal).Methods(http.MethodGet)
	app.HandleFunc("/auth/{provider}/codehub", s.externalCallback).Methods(http.MethodGet)

	// Pages that need a session
	gated := app.NewRoute().Subrouter()
	gated.Use(middleware.RequireAuth)
	gated.HandleFunc("/codehub", s.page(PageCodehub)).Methods(http.MethodGet)
	gated.HandleFunc("/source", s.page(PageSource)).Methods(http.MethodGet)
	gated.HandleFunc("/projects", s.page(PageProjects)).Methods(http.MethodGet)
	gated.HandleFunc("/integration", s.page(PageIntegration)).Methods(http.MethodGet)
	gated.HandleFunc("/setting", s.page(PageSetting)).Methods(http.MethodGet)
	gated.Handle("/resetusername", s.limited(s.resetUsername)).Methods(http.MethodPost)
	gated.Handle("/resetpassword", s.limited(s.resetPassword)).Methods(http.MethodPost)
	gated.HandleFunc("/logout", s.logout).Methods(http.MethodGet)
}

// limited applies the rate limiter, when configured, to a form post
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	if s.limiter == nil {
		return h
	}
	return middleware.RateLimit(s.limiter, s.logger)(h)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the route table
func (s *Server) Router() *mux.Router {
	return s.router
}

// requestLogger returns an entry carrying the request and trace ids
func (s *Server) requestLogger(r *http.Request) *logrus.Entry {
	entry := s.logger.WithField("request_id", contextkeys.GetRequestID(r.Context()))
	return observability.WithTraceContext(r.Context(), entry)
}

// render writes page or answers 500 when the template fails
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data PageData) {
	if err := s.renderer.Render(w, http.StatusOK, page, data); err != nil {
		s.requestLogger(r).WithError(err).WithField("page", page).Error("failed to render page")
		httputil.WriteInternalError(w)
	}
}
