package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/vitrine-empreendedores/internal/container"
	"github.com/oksasatya/vitrine-empreendedores/internal/interface/middleware"
)

// DebugModule serves expvar metrics when DEBUG_METRICS_ENABLED is set.
type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// rate-limited per IP; private networks (probes, sidecars) bypass the limit
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
