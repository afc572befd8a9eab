package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
)

var (
	// ErrNotFound marks an absent row; callers treat it as "no result", not a failure.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when another entrepreneur already uses the email.
	ErrEmailTaken = errors.New("email already registered")
)

// DirectoryRepository is the sole gateway to entrepreneur, category and
// entrepreneur-category storage. Every entrepreneur it returns carries its
// resolved category list.
type DirectoryRepository interface {
	ListAll(ctx context.Context) ([]*entity.Entrepreneur, error)
	GetByID(ctx context.Context, id int64) (*entity.Entrepreneur, error)
	GetByEmail(ctx context.Context, email string) (*entity.Entrepreneur, error)
	Search(ctx context.Context, text string) ([]*entity.Entrepreneur, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Entrepreneur, error)
	Create(ctx context.Context, f entity.EntrepreneurFields, categoryIDs []int64) (int64, error)
	Update(ctx context.Context, id int64, f entity.EntrepreneurFields, categoryIDs []int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]entity.Category, error)
}

// AuditRepository stores account audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, e entity.AuditEntry) error
}
