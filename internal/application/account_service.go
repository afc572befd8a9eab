package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
	repo "github.com/oksasatya/vitrine-empreendedores/internal/domain/repository"
	"github.com/oksasatya/vitrine-empreendedores/pkg/helpers"
	"github.com/oksasatya/vitrine-empreendedores/pkg/mailer"
	mailtpl "github.com/oksasatya/vitrine-empreendedores/pkg/mailer/templates"
	"github.com/oksasatya/vitrine-empreendedores/pkg/validation"
)

// Audit actions
const (
	ActionRegister    = "register"
	ActionLogin       = "login"
	ActionLoginFailed = "login_failed"
	ActionUpdate      = "profile_update"
	ActionDelete      = "account_delete"
)

// RequestMeta identifies the client behind an account operation for auditing.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// ProfileInput is the editable part of an entrepreneur. A nil Photo keeps the stored one.
type ProfileInput struct {
	Name             string  `json:"nome" validate:"required,max=255"`
	ShortDescription string  `json:"descricao_curta" validate:"required,max=250"`
	LongDescription  string  `json:"descricao_completa" validate:"max=999"`
	WhatsApp         string  `json:"whatsapp" validate:"whatsapp"`
	Email            string  `json:"email" validate:"required,email,max=255"`
	CategoryIDs      []int64 `json:"categorias" validate:"min=1,dive,gt=0"`
	Photo            []byte  `json:"-"`
}

// RegisterInput adds the credential chosen at sign-up.
type RegisterInput struct {
	ProfileInput
	Password string `json:"senha" validate:"pwd,max=72"`
}

// Register validates and stores a new entrepreneur, then fires the
// best-effort side effects (index, welcome email, audit).
func (s *Service) Register(ctx context.Context, in RegisterInput, meta RequestMeta) (*entity.Entrepreneur, error) {
	in.ProfileInput = normalize(in.ProfileInput)
	fields, categoryIDs, err := s.checkProfile(ctx, in.ProfileInput, validation.Struct(in))
	if err != nil {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	fields.Password = hash
	fields.PhotoURL = s.mirrorPhoto(ctx, fields.Photo)

	id, err := s.Repo.Create(ctx, fields, categoryIDs)
	if errors.Is(err, repo.ErrEmailTaken) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create entrepreneur: %w", err)
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.reindex(ctx, e)
	s.sendMail(ctx, e.Email, mailtpl.Welcome, mailtpl.NewWelcomeData(s.Links, e.ID, e.Name, e.Email))
	s.audit(ctx, e.ID, e.Email, ActionRegister, meta, nil)
	return e, nil
}

// Login verifies the credential. Unknown email and wrong password are the
// same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string, meta RequestMeta) (*entity.Entrepreneur, error) {
	email = strings.TrimSpace(email)
	e, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		s.audit(ctx, 0, email, ActionLoginFailed, meta, map[string]any{"reason": "unknown_email"})
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get entrepreneur by email: %w", err)
	}

	ok, needsRehash := helpers.VerifyPassword(e.Password, password)
	if !ok {
		s.audit(ctx, e.ID, email, ActionLoginFailed, meta, map[string]any{"reason": "wrong_password"})
		return nil, ErrInvalidCredentials
	}
	if needsRehash {
		s.upgradePassword(ctx, e.ID, password)
	}
	s.audit(ctx, e.ID, e.Email, ActionLogin, meta, nil)
	return e, nil
}

// Current loads the entrepreneur behind a session id.
func (s *Service) Current(ctx context.Context, id int64) (*entity.Entrepreneur, error) {
	return s.Get(ctx, id)
}

// Update rewrites the actor's own profile and replaces its categories.
func (s *Service) Update(ctx context.Context, actorID, id int64, in ProfileInput, meta RequestMeta) (*entity.Entrepreneur, error) {
	if actorID != id {
		return nil, ErrForbidden
	}
	in = normalize(in)
	fields, categoryIDs, err := s.checkProfile(ctx, in, validation.Struct(in))
	if err != nil {
		return nil, err
	}
	fields.PhotoURL = s.mirrorPhoto(ctx, fields.Photo)

	err = s.Repo.Update(ctx, id, fields, categoryIDs)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, repo.ErrEmailTaken):
		return nil, ErrEmailTaken
	case err != nil:
		return nil, fmt.Errorf("update entrepreneur %d: %w", id, err)
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.reindex(ctx, e)
	s.audit(ctx, e.ID, e.Email, ActionUpdate, meta, map[string]any{"photo_replaced": fields.Photo != nil})
	return e, nil
}

// Delete removes the actor's own account with its category associations.
func (s *Service) Delete(ctx context.Context, actorID, id int64, meta RequestMeta) error {
	if actorID != id {
		return ErrForbidden
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete entrepreneur %d: %w", id, err)
	}

	s.unindex(ctx, id)
	s.sendMail(ctx, e.Email, mailtpl.AccountRemoved, mailtpl.NewAccountRemovedData(s.Links, e.Name, e.Email, mailtpl.WithTime(s.Now())))
	s.audit(ctx, id, e.Email, ActionDelete, meta, nil)
	return nil
}

func normalize(in ProfileInput) ProfileInput {
	in.Name = strings.TrimSpace(in.Name)
	in.ShortDescription = strings.TrimSpace(in.ShortDescription)
	in.LongDescription = strings.TrimSpace(in.LongDescription)
	in.WhatsApp = strings.TrimSpace(in.WhatsApp)
	in.Email = strings.TrimSpace(in.Email)
	if len(in.Photo) == 0 {
		in.Photo = nil
	}
	in.CategoryIDs = dedupe(in.CategoryIDs)
	return in
}

// checkProfile merges struct validation with the checks that need storage
// (known categories) or content (photo), and converts the input to fields.
func (s *Service) checkProfile(ctx context.Context, in ProfileInput, details map[string]string) (entity.EntrepreneurFields, []int64, error) {
	verr := &ValidationError{}
	for f, msg := range details {
		verr.add(f, msg)
	}

	if in.Photo != nil {
		if int64(len(in.Photo)) > s.MaxPhotoBytes {
			verr.add("foto", fmt.Sprintf("must be at most %d bytes", s.MaxPhotoBytes))
		} else if !strings.HasPrefix(http.DetectContentType(in.Photo), "image/") {
			verr.add("foto", "must be an image")
		}
	}

	if _, bad := verr.FieldErrors["categorias"]; !bad && len(in.CategoryIDs) > 0 {
		cats, err := s.ListCategories(ctx)
		if err != nil {
			return entity.EntrepreneurFields{}, nil, err
		}
		known := make(map[int64]bool, len(cats))
		for _, c := range cats {
			known[c.ID] = true
		}
		for _, id := range in.CategoryIDs {
			if !known[id] {
				verr.add("categorias", fmt.Sprintf("unknown category %d", id))
			}
		}
	}

	if err := verr.orNil(); err != nil {
		return entity.EntrepreneurFields{}, nil, err
	}

	whatsapp, err := strconv.ParseInt(in.WhatsApp, 10, 64)
	if err != nil {
		verr.add("whatsapp", "must have 1 to 11 digits")
		return entity.EntrepreneurFields{}, nil, verr
	}
	return entity.EntrepreneurFields{
		Name:             in.Name,
		Photo:            in.Photo,
		ShortDescription: in.ShortDescription,
		LongDescription:  in.LongDescription,
		WhatsApp:         whatsapp,
		Email:            in.Email,
	}, in.CategoryIDs, nil
}

func dedupe(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// mirrorPhoto returns the public URL of the copy, or "" when there is no
// photo, no store, or the upload failed.
func (s *Service) mirrorPhoto(ctx context.Context, photo []byte) string {
	if photo == nil || s.Photos == nil {
		return ""
	}
	url, err := s.Photos.Upload(ctx, photo, http.DetectContentType(photo))
	if err != nil {
		helpers.LogWarn(s.Logger, "photo upload failed", err, nil)
		return ""
	}
	return url
}

func (s *Service) upgradePassword(ctx context.Context, id int64, plain string) {
	hash, err := helpers.HashPassword(plain)
	if err == nil {
		err = s.Repo.UpdatePassword(ctx, id, hash)
	}
	if err != nil {
		helpers.LogWarn(s.Logger, "legacy password rehash failed", err, logrus.Fields{"entrepreneur_id": id})
	}
}

func (s *Service) sendMail(ctx context.Context, to, template string, data map[string]any) {
	if s.Mail == nil {
		return
	}
	if err := s.Mail.PublishJSON(ctx, mailer.NewTemplateJob(to, template, data)); err != nil {
		helpers.LogWarn(s.Logger, "failed to publish email job", err, logrus.Fields{"template": template})
	}
}

func (s *Service) audit(ctx context.Context, id int64, email, action string, meta RequestMeta, md map[string]any) {
	if s.Audit == nil {
		return
	}
	entry := entity.AuditEntry{
		EntrepreneurID: id,
		Email:          email,
		Action:         action,
		IP:             meta.IP,
		UserAgent:      meta.UserAgent,
		Metadata:       md,
		CreatedAt:      s.Now().UTC(),
	}
	if err := s.Audit.Insert(ctx, entry); err != nil {
		helpers.LogWarn(s.Logger, "audit insert failed", err, logrus.Fields{"action": action})
	}
}
