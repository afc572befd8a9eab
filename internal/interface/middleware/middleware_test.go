package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oksasatya/vitrine-empreendedores/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(sm *helpers.SessionManager) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware(), RealIP(true), Session(sm))
	r.GET("/open", func(c *gin.Context) {
		id := int64(0)
		if s := CurrentSession(c); s != nil {
			id = s.ID
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "ip": c.GetString("real_ip"), "key": KeyBySession()(c)})
	})
	r.GET("/closed", RequireSession(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func mintCookie(t *testing.T, sm *helpers.SessionManager, id int64) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := sm.Mint(c, id, "a@x.com", "A"); err != nil {
		t.Fatal(err)
	}
	return w.Result().Cookies()[0]
}

func TestRequireSession(t *testing.T) {
	sm := helpers.NewSessionManager("secret", "", false)
	r := newEngine(sm)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/closed", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.AddCookie(mintCookie(t, sm, 5))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("signed in: expected 204, got %d", w.Code)
	}
}

func TestSessionKeysRateLimitByEntrepreneur(t *testing.T) {
	sm := helpers.NewSessionManager("secret", "", false)
	r := newEngine(sm)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(mintCookie(t, sm, 5))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if body := w.Body.String(); !strings.Contains(body, `"key":"rl:entrepreneur:5"`) {
		t.Errorf("unexpected body %s", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if body := w.Body.String(); !strings.Contains(body, `"key":"rl:anon:ip:203.0.113.9"`) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine(helpers.NewSessionManager("secret", "", false))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set(RequestIDHeader, "6f1c2a8e-3b0d-4f2e-9a57-0c1d2e3f4a5b")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "6f1c2a8e-3b0d-4f2e-9a57-0c1d2e3f4a5b" {
		t.Errorf("expected client request id to be reused, got %q", got)
	}
}

func TestAllowPrivateIP(t *testing.T) {
	allow := AllowPrivateIP()
	for ip, want := range map[string]bool{"10.1.2.3": true, "127.0.0.1": true, "203.0.113.9": false} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Set("real_ip", ip)
		if got := allow(c); got != want {
			t.Errorf("%s: got %v want %v", ip, got, want)
		}
	}
}

func TestRateLimitWithoutRedisIsNoop(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimit(nil, 1, 0, KeyByIP(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestRealIP_IgnoresForwardedUnlessTrusted(t *testing.T) {
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(RealIP(false))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "192.0.2.10" {
		t.Errorf("expected socket address, got %q", w.Body.String())
	}
}

// TestRateLimitWindow needs a scratch redis in TEST_REDIS_ADDR.
func TestRateLimitWindow(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}
	rdb := helpers.NewRedisClient(addr, "", 0)
	t.Cleanup(func() { _ = rdb.Close() })

	key := "rl:test:" + uuid.NewString()
	r := gin.New()
	r.GET("/", RateLimit(rdb, 2, time.Minute, func(*gin.Context) string { return key }, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
	if got := last.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected remaining 0, got %q", got)
	}
	if ra, _ := strconv.Atoi(last.Header().Get("Retry-After")); ra < 1 || ra > 60 {
		t.Errorf("unexpected Retry-After %d", ra)
	}
}
