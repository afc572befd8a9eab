package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vitrine-empreendedores/internal/application"
	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
	"github.com/oksasatya/vitrine-empreendedores/pkg/helpers"
	"github.com/oksasatya/vitrine-empreendedores/pkg/response"
)

// writeError maps application errors to the response envelope. Anything
// unexpected is logged and reported as a generic 500.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error[any](c, http.StatusBadRequest, "invalid payload", verr.FieldErrors)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
	case errors.Is(err, application.ErrForbidden):
		response.Error[any](c, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, application.ErrNotFound):
		response.Error[any](c, http.StatusNotFound, "entrepreneur not found", nil)
	case errors.Is(err, application.ErrEmailTaken):
		response.Error[any](c, http.StatusConflict, "email already registered", nil)
	default:
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
		})
		response.Error[any](c, http.StatusInternalServerError, "operation failed", nil)
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}

func requestMeta(c *gin.Context) application.RequestMeta {
	ip := c.GetString("real_ip")
	if ip == "" {
		ip = c.ClientIP()
	}
	return application.RequestMeta{IP: ip, UserAgent: c.GetHeader("User-Agent")}
}

// present fills foto_url with the photo endpoint when no public copy exists.
func present(e *entity.Entrepreneur) *entity.Entrepreneur {
	if e == nil || e.PhotoURL != "" || !e.HasPhoto() {
		return e
	}
	cp := *e
	cp.PhotoURL = fmt.Sprintf("/api/empreendedores/%d/foto", e.ID)
	return &cp
}

func presentAll(list []*entity.Entrepreneur) []*entity.Entrepreneur {
	out := make([]*entity.Entrepreneur, 0, len(list))
	for _, e := range list {
		out = append(out, present(e))
	}
	return out
}
