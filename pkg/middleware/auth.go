package middleware

import (
	"net/http"

	"github.com/platinummonkey/codehub/pkg/auth"
	"github.com/platinummonkey/codehub/pkg/contextkeys"
	"github.com/platinummonkey/codehub/pkg/httputil"
)

// LoginPath is where anonymous requests to gated pages are sent
const LoginPath = "/login"

// CurrentUser returns the signed-in user, or nil for anonymous requests
func CurrentUser(r *http.Request) *auth.User {
	user, ok := r.Context().Value(contextkeys.UserKey).(*auth.User)
	if !ok {
		return nil
	}
	return user
}

// IsAuthenticated reports whether the request carries a signed-in user
func IsAuthenticated(r *http.Request) bool {
	return CurrentUser(r) != nil
}

// RequireAuth redirects anonymous requests to the login page
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAuthenticated(r) {
			httputil.Redirect(w, r, LoginPath)
			return
		}
		next.ServeHTTP(w, r)
	})
}
