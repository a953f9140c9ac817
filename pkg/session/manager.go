package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultCookieName is the name of the session cookie
const DefaultCookieName = "codehub.sid"

// ErrInvalidToken is returned when the session cookie fails verification
var ErrInvalidToken = errors.New("invalid session token")

// Config controls cookie issuing
type Config struct {
	Secret     string
	TTL        time.Duration // zero means a browser-session cookie with no server expiry
	CookieName string
	Secure     bool
}

// Claims carried by the session cookie. The session token travels as jti.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager issues, resolves and destroys sessions
type Manager struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

// NewManager creates a session manager backed by store
func NewManager(store Store, config Config) (*Manager, error) {
	if config.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	name := config.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &Manager{
		store:      store,
		secret:     []byte(config.Secret),
		ttl:        config.TTL,
		cookieName: name,
		secure:     config.Secure,
	}, nil
}

// CookieName returns the name of the session cookie
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Establish starts a session for userID and sets the cookie on w
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, userID string) error {
	token, err := generateToken()
	if err != nil {
		return err
	}

	if err := m.store.Save(ctx, token, userID, m.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	value, err := m.sign(token)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if m.ttl > 0 {
		cookie.MaxAge = int(m.ttl.Seconds())
		cookie.Expires = time.Now().Add(m.ttl)
	}
	http.SetCookie(w, cookie)
	return nil
}

// Resolve returns the user id bound to the request's session cookie.
// Anonymous requests yield ErrNotFound or ErrInvalidToken.
func (m *Manager) Resolve(r *http.Request) (userID string, token string, err error) {
	token, err = m.tokenFromRequest(r)
	if err != nil {
		return "", "", err
	}

	userID, err = m.store.Lookup(r.Context(), token)
	if err != nil {
		return "", "", err
	}
	return userID, token, nil
}

// Destroy deletes the request's session and expires the cookie
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	token, err := m.tokenFromRequest(r)
	if err != nil {
		// Nothing stored to remove
		return nil
	}

	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (m *Manager) tokenFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNotFound
	}
	return m.verify(cookie.Value)
}

func (m *Manager) sign(token string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       token,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

func (m *Manager) verify(value string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
