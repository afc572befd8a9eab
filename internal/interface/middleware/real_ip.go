package middleware

import (
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP stores the client address under "real_ip" for rate limiting and
// auditing. With trustProxy set, CF-Connecting-IP and then the left-most
// X-Forwarded-For entry win over the socket address.
func RealIP(trustProxy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if trustProxy {
			if fwd := forwardedIP(c); fwd != "" {
				ip = fwd
			}
		}
		c.Set("real_ip", ip)
		c.Next()
	}
}

func forwardedIP(c *gin.Context) string {
	candidates := []string{c.GetHeader("CF-Connecting-IP")}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		candidates = append(candidates, strings.SplitN(xff, ",", 2)[0])
	}
	for _, raw := range candidates {
		if addr, err := netip.ParseAddr(strings.TrimSpace(raw)); err == nil {
			return addr.String()
		}
	}
	return ""
}
