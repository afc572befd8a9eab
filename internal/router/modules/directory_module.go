package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/vitrine-empreendedores/internal/container"
	handlers "github.com/oksasatya/vitrine-empreendedores/internal/interface/http"
	"github.com/oksasatya/vitrine-empreendedores/internal/interface/middleware"
)

// DirectoryModule exposes the public, read-only directory:
// GET /api/categorias, GET /api/empreendedores, GET /api/empreendedores/sugestoes,
// GET /api/empreendedores/:id, GET /api/empreendedores/:id/foto
type DirectoryModule struct {
	Handler *handlers.DirectoryHandler
}

func NewDirectoryModule(h *handlers.DirectoryHandler) *DirectoryModule {
	return &DirectoryModule{Handler: h}
}

func (m *DirectoryModule) Register(rg *gin.RouterGroup) {
	// suggestions fire on every keystroke; give them their own budget
	suggestLimiter := middleware.RateLimit(container.GetRedis(), 240, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.GET("/categorias", m.Handler.ListCategories)
	rg.GET("/empreendedores", m.Handler.List)
	rg.GET("/empreendedores/sugestoes", suggestLimiter, m.Handler.Suggest)
	rg.GET("/empreendedores/:id", m.Handler.Get)
	rg.GET("/empreendedores/:id/foto", m.Handler.Photo)
}
