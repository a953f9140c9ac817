// Package httputil provides the HTTP plumbing shared by the CodeHub server:
// middleware chaining, request ids, request logging, panic recovery and a
// few response helpers.
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//	)(router)
//
// # Responses
//
//	httputil.Redirect(w, r, "/login")
//	httputil.WriteJSON(w, http.StatusOK, status)
//	httputil.WriteInternalError(w)
package httputil
