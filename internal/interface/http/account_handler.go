package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vitrine-empreendedores/internal/application"
	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
	"github.com/oksasatya/vitrine-empreendedores/internal/interface/middleware"
	"github.com/oksasatya/vitrine-empreendedores/pkg/helpers"
	"github.com/oksasatya/vitrine-empreendedores/pkg/response"
	"github.com/oksasatya/vitrine-empreendedores/pkg/validation"
)

// AccountHandler serves registration, the session lifecycle and owner-only
// profile changes.
type AccountHandler struct {
	Svc      *application.Service
	Sessions *helpers.SessionManager
	Logger   *logrus.Logger
}

func NewAccountHandler(svc *application.Service, sm *helpers.SessionManager, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{Svc: svc, Sessions: sm, Logger: logger}
}

// profileForm binds the multipart/urlencoded (or JSON) profile payload; the
// photo travels as the "foto" file part.
type profileForm struct {
	Name             string  `form:"nome" json:"nome"`
	ShortDescription string  `form:"descricao_curta" json:"descricao_curta"`
	LongDescription  string  `form:"descricao_completa" json:"descricao_completa"`
	WhatsApp         string  `form:"whatsapp" json:"whatsapp"`
	Email            string  `form:"email" json:"email"`
	Categories       []int64 `form:"categorias" json:"categorias"`
	Password         string  `form:"senha" json:"senha"`
}

func (f profileForm) profile(photo []byte) application.ProfileInput {
	return application.ProfileInput{
		Name:             f.Name,
		ShortDescription: f.ShortDescription,
		LongDescription:  f.LongDescription,
		WhatsApp:         f.WhatsApp,
		Email:            f.Email,
		CategoryIDs:      f.Categories,
		Photo:            photo,
	}
}

type loginRequest struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"senha" json:"senha" binding:"required"`
}

// Register POST /api/empreendedores
func (h *AccountHandler) Register(c *gin.Context) {
	form, photo, ok := h.bindProfile(c)
	if !ok {
		return
	}
	e, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		ProfileInput: form.profile(photo),
		Password:     form.Password,
	}, requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.mint(c, e)
	response.Success(c, http.StatusCreated, present(e), "registered", nil)
}

// Login POST /api/login
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	e, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.mint(c, e)
	response.Success(c, http.StatusOK, present(e), "logged in", nil)
}

// Logout POST /api/logout
func (h *AccountHandler) Logout(c *gin.Context) {
	h.Sessions.Clear(c)
	response.Success[any](c, http.StatusOK, nil, "logged out", nil)
}

// Me GET /api/me returns the signed-in entrepreneur, or null data when anonymous.
func (h *AccountHandler) Me(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if s == nil {
		response.Success[*entity.Entrepreneur](c, http.StatusOK, nil, "anonymous", nil)
		return
	}
	e, err := h.Svc.Current(c.Request.Context(), s.ID)
	if errors.Is(err, application.ErrNotFound) {
		h.Sessions.Clear(c)
		response.Success[*entity.Entrepreneur](c, http.StatusOK, nil, "anonymous", nil)
		return
	}
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, present(e), "current entrepreneur", nil)
}

// Update PUT /api/empreendedores/:id (owner only)
func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s := middleware.CurrentSession(c)
	if s == nil {
		response.Abort(c, http.StatusUnauthorized, "login required")
		return
	}
	form, photo, ok := h.bindProfile(c)
	if !ok {
		return
	}
	e, err := h.Svc.Update(c.Request.Context(), s.ID, id, form.profile(photo), requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, present(e), "profile updated", nil)
}

// Delete DELETE /api/empreendedores/:id (owner only); also ends the session.
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s := middleware.CurrentSession(c)
	if s == nil {
		response.Abort(c, http.StatusUnauthorized, "login required")
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), s.ID, id, requestMeta(c)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Sessions.Clear(c)
	response.Success[any](c, http.StatusOK, nil, "account removed", nil)
}

func (h *AccountHandler) bindProfile(c *gin.Context) (profileForm, []byte, bool) {
	var form profileForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return form, nil, false
	}
	photo, err := h.readPhoto(c)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"foto": "could not read uploaded file"})
		return form, nil, false
	}
	return form, photo, true
}

// readPhoto returns nil when no "foto" part was sent. At most MaxPhotoBytes+1
// bytes are read so the service can reject oversized files.
func (h *AccountHandler) readPhoto(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("foto")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(io.LimitReader(f, h.Svc.MaxPhotoBytes+1))
}

// mint logs in the entrepreneur. The account operation already succeeded, so a
// signing failure is logged rather than reported.
func (h *AccountHandler) mint(c *gin.Context, e *entity.Entrepreneur) {
	if _, err := h.Sessions.Mint(c, e.ID, e.Email, e.Name); err != nil {
		helpers.LogError(h.Logger, "mint session", err, logrus.Fields{"entrepreneur_id": e.ID})
	}
}
