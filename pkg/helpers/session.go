package helpers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionCookieName = "empreendedor_token"
	SessionTTL        = 30 * 24 * time.Hour
)

// Session is the authenticated identity carried by the session cookie.
type Session struct {
	ID        int64
	Email     string
	Name      string
	ExpiresAt time.Time
}

// SessionManager owns the session cookie lifecycle: Mint, Read and Clear.
// Sessions live a fixed window from Mint; nothing renews them.
type SessionManager struct {
	JWT     *JWTManager
	Cookies *Manager
}

func NewSessionManager(secret, cookieDomain string, secure bool) *SessionManager {
	return &SessionManager{
		JWT:     NewJWTManager(secret, SessionTTL),
		Cookies: NewCookie(cookieDomain, secure),
	}
}

// Mint signs a session for the identity and stores it in the cookie.
func (m *SessionManager) Mint(c *gin.Context, id int64, email, name string) (*Session, error) {
	token, claims, err := m.JWT.Generate(id, email, name)
	if err != nil {
		return nil, err
	}
	m.Cookies.Set(c, SessionCookieName, token, m.JWT.TTL)
	return sessionFrom(claims), nil
}

// Read returns the current session, or nil when anonymous. A missing, forged or
// malformed cookie is anonymous; an expired one is anonymous and also cleared.
func (m *SessionManager) Read(c *gin.Context) *Session {
	token, ok := m.Cookies.Get(c, SessionCookieName)
	if !ok {
		return nil
	}
	claims, err := m.JWT.Parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			m.Clear(c)
		}
		return nil
	}
	return sessionFrom(*claims)
}

// Clear removes the session cookie unconditionally.
func (m *SessionManager) Clear(c *gin.Context) {
	m.Cookies.Delete(c, SessionCookieName)
}

func sessionFrom(c SessionClaims) *Session {
	return &Session{ID: c.ID, Email: c.Email, Name: c.Name, ExpiresAt: c.ExpiresAt()}
}
