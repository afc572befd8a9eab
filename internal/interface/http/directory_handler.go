package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vitrine-empreendedores/internal/application"
	"github.com/oksasatya/vitrine-empreendedores/pkg/response"
)

// DirectoryHandler serves the public, read-only side of the directory.
type DirectoryHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewDirectoryHandler(svc *application.Service, logger *logrus.Logger) *DirectoryHandler {
	return &DirectoryHandler{Svc: svc, Logger: logger}
}

// ListCategories GET /api/categorias
func (h *DirectoryHandler) ListCategories(c *gin.Context) {
	cats, err := h.Svc.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, cats, "categories", nil)
}

// List GET /api/empreendedores?q=&categoria=1&categoria=2
func (h *DirectoryHandler) List(c *gin.Context) {
	categoryIDs, ok := parseIDs(c.QueryArray("categoria"))
	if !ok {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"categoria": "must be a list of category ids"})
		return
	}
	list, err := h.Svc.Browse(c.Request.Context(), c.Query("q"), categoryIDs)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentAll(list), "entrepreneurs", map[string]any{"total": len(list)})
}

// Suggest GET /api/empreendedores/sugestoes?q=&limite=
func (h *DirectoryHandler) Suggest(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("limite"))
	out, err := h.Svc.Suggest(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, out, "suggestions", nil)
}

// Get GET /api/empreendedores/:id
func (h *DirectoryHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	e, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, present(e), "entrepreneur", nil)
}

// Photo GET /api/empreendedores/:id/foto streams the stored blob.
func (h *DirectoryHandler) Photo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	e, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if !e.HasPhoto() {
		response.Error[any](c, http.StatusNotFound, "photo not found", nil)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, http.DetectContentType(e.Photo), e.Photo)
}

// parseIDs accepts repeated and comma-separated values: ?categoria=1&categoria=2,3
func parseIDs(raw []string) ([]int64, bool) {
	var ids []int64
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, false
			}
			ids = append(ids, id)
		}
	}
	return ids, true
}
