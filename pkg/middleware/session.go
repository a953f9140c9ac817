package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/platinummonkey/codehub/pkg/auth"
	"github.com/platinummonkey/codehub/pkg/contextkeys"
	"github.com/platinummonkey/codehub/pkg/httputil"
	"github.com/platinummonkey/codehub/pkg/session"
	"github.com/sirupsen/logrus"
)

// SessionResolver resolves a request to the user id of its session
type SessionResolver interface {
	Resolve(r *http.Request) (userID string, token string, err error)
}

// UserGetter loads users by id
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*auth.User, error)
}

// Session loads the user of the request's session into the context.
// Requests without a valid session pass through anonymous. A session whose
// user no longer exists is also treated as anonymous. Backend failures
// answer 500.
func Session(sessions SessionResolver, users UserGetter, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, token, err := sessions.Resolve(r)
			if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrInvalidToken) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				logger.WithError(err).WithField("request_id", contextkeys.GetRequestID(r.Context())).
					Error("failed to resolve session")
				httputil.WriteInternalError(w)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if errors.Is(err, auth.ErrUserNotFound) {
				logger.WithField("user_id", userID).Warn("session refers to missing user")
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				logger.WithError(err).WithField("user_id", userID).Error("failed to load session user")
				httputil.WriteInternalError(w)
				return
			}

			ctx := contextkeys.WithUser(r.Context(), user)
			ctx = contextkeys.WithSessionToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
