package entity

import "time"

// Entrepreneur is the aggregate root of the directory: one registered business.
// Categories is always resolved when the entrepreneur comes out of a repository.
//
// Password holds a bcrypt hash; rows written before hashing was introduced may
// still carry the raw secret (see helpers.VerifyPassword).
type Entrepreneur struct {
	ID               int64      `json:"id"`
	Name             string     `json:"nome"`
	Photo            []byte     `json:"-"`
	PhotoURL         string     `json:"foto_url,omitempty"`
	ShortDescription string     `json:"descricao_curta"`
	LongDescription  string     `json:"descricao_completa,omitempty"`
	WhatsApp         int64      `json:"whatsapp"`
	Email            string     `json:"email"`
	Password         string     `json:"-"`
	Categories       []Category `json:"categorias"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// HasPhoto reports whether a photo blob is stored for the entrepreneur.
func (e *Entrepreneur) HasPhoto() bool {
	return len(e.Photo) > 0
}

// CategoryIDs returns the ids of the resolved categories in their current order.
func (e *Entrepreneur) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(e.Categories))
	for _, c := range e.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// EntrepreneurFields carries the mutable columns written by create and update.
// A nil Photo on update keeps the stored photo.
type EntrepreneurFields struct {
	Name             string
	Photo            []byte
	PhotoURL         string
	ShortDescription string
	LongDescription  string
	WhatsApp         int64
	Email            string
	Password         string
}

// Suggestion is the lightweight search-as-you-type projection of an entrepreneur.
type Suggestion struct {
	ID               int64  `json:"id"`
	Name             string `json:"nome"`
	ShortDescription string `json:"descricao_curta"`
}
