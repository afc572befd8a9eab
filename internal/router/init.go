package router

import (
	"github.com/oksasatya/vitrine-empreendedores/internal/application"
	"github.com/oksasatya/vitrine-empreendedores/internal/container"
	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
	"github.com/oksasatya/vitrine-empreendedores/internal/infrastructure/search"
	handlers "github.com/oksasatya/vitrine-empreendedores/internal/interface/http"
	"github.com/oksasatya/vitrine-empreendedores/internal/router/modules"
	"github.com/oksasatya/vitrine-empreendedores/pkg/helpers"
	mailtpl "github.com/oksasatya/vitrine-empreendedores/pkg/mailer/templates"
)

// CategoryCacheKey is the redis key holding the cached category list.
const CategoryCacheKey = "directory:categories"

type DirectoryDeps struct {
	Service   *application.Service
	Directory *handlers.DirectoryHandler
	Account   *handlers.AccountHandler
}

// buildService wires the use cases to the repositories and to whichever
// optional backends were configured. Ports are only assigned when the backend
// exists so a nil pointer never hides inside a non-nil interface.
func buildService() *application.Service {
	cfg := container.GetConfig()
	svc := application.NewService(container.GetDirectoryRepo(), container.GetAuditRepo(), container.GetLogger())
	if cfg.MaxPhotoBytes > 0 {
		svc.MaxPhotoBytes = cfg.MaxPhotoBytes
	}
	svc.Links = mailtpl.Links{AppName: "Vitrine Empreendedores", BaseURL: cfg.PublicBaseURL}

	if rdb := container.GetRedis(); rdb != nil {
		svc.Categories = helpers.NewJSONCache[[]entity.Category](rdb, CategoryCacheKey, cfg.CategoryCacheTTL)
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		svc.Photos = helpers.NewPhotoBucket(gcs, cfg.GCSBucket)
	}
	if es := container.GetES(); es != nil {
		svc.Index = search.NewDirectoryIndex(es, cfg.ESDirectoryIndex)
	}
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		svc.Mail = pub
	}
	return svc
}

func buildDirectoryDeps() DirectoryDeps {
	svc := buildService()
	logger := container.GetLogger()
	return DirectoryDeps{
		Service:   svc,
		Directory: handlers.NewDirectoryHandler(svc, logger),
		Account:   handlers.NewAccountHandler(svc, container.GetSessions(), logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDirectoryDeps()
	r.Add(modules.NewDirectoryModule(deps.Directory))
	r.Add(modules.NewAccountModule(deps.Account))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
