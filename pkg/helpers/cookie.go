package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Manager writes site-wide HttpOnly, SameSite=Lax cookies.
type Manager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure}
}

func (m *Manager) Set(c *gin.Context, name, value string, maxAge time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(maxAge.Seconds()), "/", m.Domain, m.Secure, true)
}

func (m *Manager) Get(c *gin.Context, name string) (string, bool) {
	v, err := c.Cookie(name)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (m *Manager) Delete(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", m.Domain, m.Secure, true)
}
