package web

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/codehub/pkg/audit"
	"github.com/platinummonkey/codehub/pkg/auth"
	"github.com/platinummonkey/codehub/pkg/httputil"
	"github.com/platinummonkey/codehub/pkg/middleware"
	"github.com/platinummonkey/codehub/pkg/observability"
	"github.com/sirupsen/logrus"
)

// Messages shown inline on re-rendered forms
const (
	MsgPasswordMismatch    = "Password do not Match :("
	MsgUserExists          = "User already exists"
	MsgInvalidCredentials  = "Invalid username or password"
	MsgNewPasswordMismatch = "Passwords Does not Match"
	MsgIncorrectPassword   = "Old password is incorrect"
	MsgPasswordRequired    = "New password is required"
	MsgPasswordTooLong     = "Password must be at most 72 characters"
)

const (
	dashboardPath = "/codehub"
	loginPath     = middleware.LoginPath
	methodLocal   = "local"
)

// home handles GET /
func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, PageHome, s.pageData(r))
}

// registerForm handles GET /register
func (s *Server) registerForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, PageSignup, s.pageData(r))
}

// register handles POST /register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	req := auth.RegisterRequest{
		Username:        httputil.FormValue(r, "username"),
		Email:           httputil.FormValue(r, "email"),
		Password:        r.PostFormValue("pass"),
		ConfirmPassword: r.PostFormValue("re_pass"),
	}

	user, err := s.auth.Register(r.Context(), req)
	if err != nil {
		s.metrics.RecordRegistration(observability.ResultFailure)
		event := audit.NewEvent(r, audit.EventTypeRegister, audit.EventStatusFailure)
		event.Username = req.Username
		event.Message = err.Error()
		s.record(r, event)
		data := s.pageData(r)

		switch {
		case errors.Is(err, auth.ErrPasswordMismatch):
			data.WrongPass = MsgPasswordMismatch
			s.render(w, r, PageSignup, data)
		case errors.Is(err, auth.ErrUserExists):
			data.UserExists = MsgUserExists
			s.render(w, r, PageSignup, data)
		case errors.Is(err, auth.ErrMissingCredentials):
			s.render(w, r, PageSignup, data)
		case errors.Is(err, auth.ErrPasswordTooLong):
			data.WrongPass = MsgPasswordTooLong
			s.render(w, r, PageSignup, data)
		case errors.Is(err, auth.ErrInvalidCredentials):
			// created but the new credential did not verify
			httputil.Redirect(w, r, loginPath)
		default:
			s.requestLogger(r).WithError(err).WithField("username", req.Username).Error("registration failed")
			httputil.WriteInternalError(w)
		}
		return
	}

	s.metrics.RecordRegistration(observability.ResultSuccess)
	s.record(r, userEvent(r, audit.EventTypeRegister, user))
	s.startSession(w, r, user, methodLocal)
}

// loginForm handles GET /login
func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, PageSignin, s.pageData(r))
}

// login handles POST /login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	username := httputil.FormValue(r, "username")

	user, err := s.auth.Authenticate(r.Context(), username, r.PostFormValue("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.metrics.RecordLogin(methodLocal, observability.ResultFailure)
		event := audit.NewEvent(r, audit.EventTypeLoginFailed, audit.EventStatusFailure)
		event.Username = username
		event.Provider = methodLocal
		event.Message = "invalid credentials"
		s.record(r, event)
		data := s.pageData(r)
		data.WrongPass = MsgInvalidCredentials
		s.render(w, r, PageSignin, data)
		return
	}
	if err != nil {
		s.metrics.RecordLogin(methodLocal, observability.ResultError)
		s.requestLogger(r).WithError(err).WithField("username", username).Error("login failed")
		httputil.WriteInternalError(w)
		return
	}

	s.record(r, userEvent(r, audit.EventTypeLogin, user))
	s.startSession(w, r, user, methodLocal)
}

// startSession signs user in and sends them to the dashboard
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user *auth.User, method string) {
	if err := s.sessions.Establish(r.Context(), w, user.ID); err != nil {
		s.metrics.RecordLogin(method, observability.ResultError)
		s.requestLogger(r).WithError(err).WithField("user_id", user.ID).Error("failed to establish session")
		httputil.WriteInternalError(w)
		return
	}

	s.requestLogger(r).WithFields(logrus.Fields{
		"user_id": user.ID,
		"method":  method,
	}).Info("user signed in")
	s.metrics.RecordLogin(method, observability.ResultSuccess)
	s.metrics.RecordSessionCreated()

	httputil.Redirect(w, r, dashboardPath)
}

// logout handles GET /logout
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if !s.endSession(w, r) {
		return
	}
	s.record(r, userEvent(r, audit.EventTypeLogout, middleware.CurrentUser(r)))
	httputil.Redirect(w, r, loginPath)
}

// endSession destroys the request's session. It answers 500 and returns
// false when the store fails.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request) bool {
	if err := s.sessions.Destroy(r.Context(), w, r); err != nil {
		s.requestLogger(r).WithError(err).Error("failed to destroy session")
		httputil.WriteInternalError(w)
		return false
	}
	s.metrics.RecordSessionDestroyed()
	return true
}

// page renders one of the signed-in content pages
func (s *Server) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, name, s.pageData(r))
	}
}

// resetUsername handles POST /resetusername
func (s *Server) resetUsername(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	data := s.pageData(r)

	username := httputil.FormValue(r, "username")
	if username == "" {
		s.render(w, r, PageSetting, data)
		return
	}

	updated, err := s.auth.ChangeUsername(r.Context(), user.ID, username)
	if err != nil {
		s.requestLogger(r).WithError(err).WithField("user_id", user.ID).Error("failed to change username")
		httputil.WriteInternalError(w)
		return
	}

	event := userEvent(r, audit.EventTypeUsernameChange, updated)
	event.Metadata = map[string]interface{}{"previous_username": user.Username}
	s.record(r, event)

	data.Username = updated.Username
	s.render(w, r, PageSetting, data)
}

// resetPassword handles POST /resetpassword
func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	req := auth.ChangePasswordRequest{
		OldPassword:        r.PostFormValue("oldpassword"),
		NewPassword:        r.PostFormValue("newpassword"),
		ConfirmNewPassword: r.PostFormValue("re_newpass"),
	}

	_, err := s.auth.ChangePassword(r.Context(), user.ID, req)
	if err != nil {
		event := userEvent(r, audit.EventTypePasswordChange, user)
		event.Status = audit.EventStatusFailure
		event.Message = err.Error()
		s.record(r, event)
		data := s.pageData(r)

		switch {
		case errors.Is(err, auth.ErrPasswordMismatch):
			data.PassDoNotMatch = MsgNewPasswordMismatch
			s.render(w, r, PageSetting, data)
		case errors.Is(err, auth.ErrIncorrectPassword):
			data.PassDoNotMatch = MsgIncorrectPassword
			s.render(w, r, PageSetting, data)
		case errors.Is(err, auth.ErrMissingCredentials):
			data.PassDoNotMatch = MsgPasswordRequired
			s.render(w, r, PageSetting, data)
		case errors.Is(err, auth.ErrPasswordTooLong):
			data.PassDoNotMatch = MsgPasswordTooLong
			s.render(w, r, PageSetting, data)
		default:
			s.requestLogger(r).WithError(err).WithField("user_id", user.ID).Error("failed to change password")
			httputil.WriteInternalError(w)
		}
		return
	}

	s.record(r, userEvent(r, audit.EventTypePasswordChange, user))

	// The old session ends with the old password
	if !s.endSession(w, r) {
		return
	}
	httputil.Redirect(w, r, loginPath)
}

// beginExternal handles GET /auth/{provider}
func (s *Server) beginExternal(w http.ResponseWriter, r *http.Request) {
	provider, ok := s.providerFromPath(w, r)
	if !ok {
		return
	}
	s.broker.Begin(w, r, provider)
}

// externalCallback handles GET /auth/{provider}/codehub
func (s *Server) externalCallback(w http.ResponseWriter, r *http.Request) {
	provider, ok := s.providerFromPath(w, r)
	if !ok {
		return
	}
	s.broker.Callback(w, r, provider)
}

func (s *Server) providerFromPath(w http.ResponseWriter, r *http.Request) (auth.Provider, bool) {
	name, err := httputil.ParsePathString(r, "provider")
	if err != nil {
		httputil.WriteNotFound(w)
		return "", false
	}

	provider := auth.Provider(name)
	if !provider.Valid() {
		httputil.WriteNotFound(w)
		return "", false
	}
	return provider, true
}

// pageData fills the fields every page shares
func (s *Server) pageData(r *http.Request) PageData {
	data := PageData{Providers: s.broker.Enabled()}
	if user := middleware.CurrentUser(r); user != nil {
		data.Username = user.Username
	}
	return data
}

// userEvent builds a successful audit event for user
func userEvent(r *http.Request, eventType audit.EventType, user *auth.User) *audit.Event {
	event := audit.NewEvent(r, eventType, audit.EventStatusSuccess)
	if user != nil {
		event.UserID = user.ID
		event.Username = user.Username
	}
	return event
}

// record writes an audit event. A failed write never fails the request.
func (s *Server) record(r *http.Request, event *audit.Event) {
	if err := s.audit.Log(r.Context(), event); err != nil {
		s.requestLogger(r).WithError(err).WithField("event_type", event.EventType).Warn("failed to write audit event")
	}
}
