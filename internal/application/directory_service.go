package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
	repo "github.com/oksasatya/vitrine-empreendedores/internal/domain/repository"
	"github.com/oksasatya/vitrine-empreendedores/pkg/helpers"
	mailtpl "github.com/oksasatya/vitrine-empreendedores/pkg/mailer/templates"
)

const (
	defaultMaxPhotoBytes  = 5 << 20
	defaultSuggestionSize = 8
	maxSuggestionSize     = 20
)

// Service implements the directory use cases on top of the repository.
// Categories, Photos, Index and Mail are optional; a nil value disables the
// side effect.
type Service struct {
	Repo   repo.DirectoryRepository
	Audit  repo.AuditRepository
	Logger *logrus.Logger

	Categories CategoryCache
	Photos     PhotoStore
	Index      SuggestionIndex
	Mail       EmailQueue
	Links      mailtpl.Links

	MaxPhotoBytes int64
	Now           func() time.Time
}

func NewService(r repo.DirectoryRepository, audit repo.AuditRepository, logger *logrus.Logger) *Service {
	return &Service{
		Repo:          r,
		Audit:         audit,
		Logger:        logger,
		MaxPhotoBytes: defaultMaxPhotoBytes,
		Now:           time.Now,
	}
}

// Browse applies the directory listing rule: a non-blank query searches,
// otherwise selected categories filter, otherwise everything is listed.
func (s *Service) Browse(ctx context.Context, q string, categoryIDs []int64) ([]*entity.Entrepreneur, error) {
	if q = strings.TrimSpace(q); q != "" {
		return s.Search(ctx, q)
	}
	if len(categoryIDs) > 0 {
		return s.FilterByCategories(ctx, categoryIDs)
	}
	return s.ListAll(ctx)
}

func (s *Service) ListAll(ctx context.Context) ([]*entity.Entrepreneur, error) {
	list, err := s.Repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entrepreneurs: %w", err)
	}
	return list, nil
}

func (s *Service) Search(ctx context.Context, q string) ([]*entity.Entrepreneur, error) {
	list, err := s.Repo.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search entrepreneurs: %w", err)
	}
	return list, nil
}

// FilterByCategories returns the union of every category's members,
// deduplicated by id in first-seen order.
func (s *Service) FilterByCategories(ctx context.Context, categoryIDs []int64) ([]*entity.Entrepreneur, error) {
	seen := make(map[int64]bool)
	out := make([]*entity.Entrepreneur, 0)
	for _, catID := range categoryIDs {
		list, err := s.Repo.ListByCategory(ctx, catID)
		if err != nil {
			return nil, fmt.Errorf("list category %d: %w", catID, err)
		}
		for _, e := range list {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Entrepreneur, error) {
	e, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entrepreneur %d: %w", id, err)
	}
	return e, nil
}

// ListCategories serves the category list from the cache when one is configured.
func (s *Service) ListCategories(ctx context.Context) ([]entity.Category, error) {
	if s.Categories != nil {
		cats, ok, err := s.Categories.Get(ctx)
		if err != nil {
			helpers.LogWarn(s.Logger, "category cache read failed", err, nil)
		} else if ok {
			return cats, nil
		}
	}
	cats, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if s.Categories != nil {
		if err := s.Categories.Set(ctx, cats); err != nil {
			helpers.LogWarn(s.Logger, "category cache write failed", err, nil)
		}
	}
	return cats, nil
}

// Suggest answers search-as-you-type queries from the index, falling back to
// the repository search when the index is absent or failing.
func (s *Service) Suggest(ctx context.Context, q string, size int) ([]entity.Suggestion, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []entity.Suggestion{}, nil
	}
	if size <= 0 {
		size = defaultSuggestionSize
	}
	if size > maxSuggestionSize {
		size = maxSuggestionSize
	}
	if s.Index != nil {
		out, err := s.Index.Suggest(ctx, q, size)
		if err == nil {
			return out, nil
		}
		helpers.LogWarn(s.Logger, "suggestion index query failed, using repository search", err, logrus.Fields{"q": q})
	}
	list, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Suggestion, 0, size)
	for _, e := range list {
		if len(out) == size {
			break
		}
		out = append(out, entity.Suggestion{ID: e.ID, Name: e.Name, ShortDescription: e.ShortDescription})
	}
	return out, nil
}

func (s *Service) reindex(ctx context.Context, e *entity.Entrepreneur) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, e); err != nil {
		helpers.LogWarn(s.Logger, "es index failed", err, logrus.Fields{"entrepreneur_id": e.ID})
	}
}

func (s *Service) unindex(ctx context.Context, id int64) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Remove(ctx, id); err != nil {
		helpers.LogWarn(s.Logger, "es delete failed", err, logrus.Fields{"entrepreneur_id": id})
	}
}
