package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/vitrine-empreendedores/pkg/helpers"
	"github.com/oksasatya/vitrine-empreendedores/pkg/response"
)

const (
	CtxSessionKey        = "session"
	CtxEntrepreneurIDKey = "entrepreneurID"
)

// Session reads the session cookie on every request and exposes the identity
// to handlers. Anonymous requests pass through untouched.
func Session(sm *helpers.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s := sm.Read(c); s != nil {
			c.Set(CtxSessionKey, s)
			c.Set(CtxEntrepreneurIDKey, strconv.FormatInt(s.ID, 10))
		}
		c.Next()
	}
}

// RequireSession rejects anonymous requests with 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c) == nil {
			response.Abort(c, http.StatusUnauthorized, "login required")
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session set by Session, or nil.
func CurrentSession(c *gin.Context) *helpers.Session {
	v, ok := c.Get(CtxSessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*helpers.Session)
	return s
}
