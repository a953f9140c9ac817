package observability

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/platinummonkey/codehub/pkg/httputil"
)

const (
	StatusOK        = "ok"
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// readinessTimeout bounds all checks of one /readyz request
const readinessTimeout = 5 * time.Second

// PingFunc reports whether a backing service answers
type PingFunc func(ctx context.Context) error

// dependencyCheck pings one backing service
type dependencyCheck struct {
	name string
	ping PingFunc
}

// HealthChecker answers liveness and readiness for the server. Readiness
// pings the user database and the Redis session store when they are in use.
type HealthChecker struct {
	checks []dependencyCheck
}

// NewHealthChecker builds a checker. A nil db or redis client is skipped,
// which is the case for the in-memory stores.
func NewHealthChecker(db *sql.DB, redisClient *redis.Client) *HealthChecker {
	h := &HealthChecker{}
	if db != nil {
		h.checks = append(h.checks, dependencyCheck{name: "database", ping: db.PingContext})
	}
	if redisClient != nil {
		h.checks = append(h.checks, dependencyCheck{name: "redis", ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	return h
}

// AddCheck adds a check for a backend that is not a *sql.DB or Redis
// client, such as the ArangoDB user store
func (h *HealthChecker) AddCheck(name string, ping PingFunc) *HealthChecker {
	h.checks = append(h.checks, dependencyCheck{name: name, ping: ping})
	return h
}

// HealthStatus is the /readyz response body
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus is the outcome of one check
type DependencyStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Liveness answers 200 while the process is serving
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": StatusOK})
}

// Readiness answers 503 when any check fails
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := h.Check(ctx)
	code := http.StatusOK
	if status.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, status)
}

// Check runs every check in order. A session store outage signs every user
// out, so Redis counts the same as the database.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	result := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now().UTC(),
		Dependencies: make(map[string]DependencyStatus, len(h.checks)),
	}

	for _, c := range h.checks {
		dep := runCheck(ctx, c)
		if dep.Status == StatusUnhealthy {
			result.Status = StatusUnhealthy
		}
		result.Dependencies[c.name] = dep
	}
	return result
}

func runCheck(ctx context.Context, c dependencyCheck) DependencyStatus {
	start := time.Now()
	err := c.ping(ctx)

	dep := DependencyStatus{Status: StatusHealthy, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		dep.Status = StatusUnhealthy
		dep.Message = err.Error()
	}
	return dep
}

// RegisterHealthRoutes mounts /healthz and /readyz on router
func RegisterHealthRoutes(router *mux.Router, checker *HealthChecker) {
	router.HandleFunc("/healthz", checker.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/readyz", checker.Readiness).Methods(http.MethodGet)
}
