// Package web is the CodeHub route dispatcher.
//
// Server maps every path to its handler:
//
//	GET  /                      landing page
//	GET  /register, /login      signup and signin forms
//	POST /register, /login      local registration and login
//	GET  /auth/{provider}       start an external sign-in
//	GET  /auth/{provider}/codehub  provider callback
//	GET  /codehub, /source, /projects, /integration, /setting
//	POST /resetusername, /resetpassword
//	GET  /logout
//	GET  /healthz, /readyz, /metrics
//
// The dashboard, content pages, settings mutations and logout require a
// session; anonymous requests are redirected to /login.
//
// Pages are rendered through a Renderer. TemplateRenderer serves the
// embedded html/template pages under templates/.
package web
