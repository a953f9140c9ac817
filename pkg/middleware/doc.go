// Package middleware attaches the signed-in user to each request and gates
// pages that require one.
//
// Session loads the user bound to the session cookie, when there is one, and
// stores it in the request context. RequireAuth redirects anonymous requests
// to the login page.
//
//	router.Use(middleware.Session(sessions, users, logger))
//	gated := router.NewRoute().Subrouter()
//	gated.Use(middleware.RequireAuth)
//
// Handlers read the user back with CurrentUser:
//
//	user := middleware.CurrentUser(r)
//
// RateLimit answers 429 once a client address exceeds its budget. The budget
// lives in process (RateLimiter) or in Redis (DistributedRateLimiter) when
// several instances serve the same users.
package middleware
