package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/vitrine-empreendedores/internal/container"
	handlers "github.com/oksasatya/vitrine-empreendedores/internal/interface/http"
	"github.com/oksasatya/vitrine-empreendedores/internal/interface/middleware"
)

// AccountModule wires registration and the session lifecycle.
// Public: POST /api/empreendedores, POST /api/login, POST /api/logout, GET /api/me
// Owner only: PUT /api/empreendedores/:id, DELETE /api/empreendedores/:id
type AccountModule struct {
	Handler *handlers.AccountHandler
}

func NewAccountModule(h *handlers.AccountHandler) *AccountModule {
	return &AccountModule{Handler: h}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	perMinute := container.GetConfig().LoginRateLimit

	loginLimiter := middleware.RateLimit(rdb, perMinute, time.Minute, middleware.KeyByIPAndPath(), nil)
	registerLimiter := middleware.RateLimit(rdb, perMinute, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/empreendedores", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/logout", m.Handler.Logout)
	rg.GET("/me", m.Handler.Me)

	owner := rg.Group("/")
	owner.Use(
		middleware.RequireSession(),
		middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyBySession(), nil),
	)
	{
		owner.PUT("/empreendedores/:id", m.Handler.Update)
		owner.DELETE("/empreendedores/:id", m.Handler.Delete)
	}
}
