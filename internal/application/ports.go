package application

import (
	"context"

	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
)

// CategoryCache holds the category list between requests.
type CategoryCache interface {
	Get(ctx context.Context) ([]entity.Category, bool, error)
	Set(ctx context.Context, cats []entity.Category) error
}

// PhotoStore publishes a copy of an uploaded photo and returns its public URL.
type PhotoStore interface {
	Upload(ctx context.Context, photo []byte, contentType string) (string, error)
}

// SuggestionIndex is the search-as-you-type index of the directory.
type SuggestionIndex interface {
	Put(ctx context.Context, e *entity.Entrepreneur) error
	Remove(ctx context.Context, id int64) error
	Suggest(ctx context.Context, q string, size int) ([]entity.Suggestion, error)
}

// EmailQueue enqueues email jobs for the worker.
type EmailQueue interface {
	PublishJSON(ctx context.Context, body any) error
}
