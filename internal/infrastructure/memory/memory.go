// Package memory implements the directory repositories in process memory for
// development (STORAGE_DRIVER=memory) and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
	"github.com/oksasatya/vitrine-empreendedores/internal/domain/repository"
)

type association struct {
	id             int64
	categoryID     int64
	entrepreneurID int64
}

// DB implements repository.DirectoryRepository and repository.AuditRepository.
type DB struct {
	mu            sync.Mutex
	entrepreneurs map[int64]*entity.Entrepreneur
	categories    map[int64]entity.Category
	associations  []association
	audit         []entity.AuditEntry

	entrepreneurSeq int64
	associationSeq  int64

	now func() time.Time
}

// New creates an empty store holding the given categories.
func New(categories ...entity.Category) *DB {
	db := &DB{
		entrepreneurs: make(map[int64]*entity.Entrepreneur),
		categories:    make(map[int64]entity.Category, len(categories)),
		now:           time.Now,
	}
	for _, c := range categories {
		db.categories[c.ID] = c
	}
	return db
}

// DefaultCategories mirrors the category seed migration.
func DefaultCategories() []entity.Category {
	names := []string{
		"Alimentação", "Artesanato", "Beleza e Estética", "Moda",
		"Serviços", "Tecnologia", "Educação", "Saúde e Bem-estar",
	}
	out := make([]entity.Category, 0, len(names))
	for i, n := range names {
		out = append(out, entity.Category{ID: int64(i + 1), Name: n})
	}
	return out
}

var _ repository.DirectoryRepository = (*DB)(nil)
var _ repository.AuditRepository = (*DB)(nil)

// --- DirectoryRepository ---

func (db *DB) ListAll(ctx context.Context) ([]*entity.Entrepreneur, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.collect(func(*entity.Entrepreneur) bool { return true }), nil
}

func (db *DB) GetByID(ctx context.Context, id int64) (*entity.Entrepreneur, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.entrepreneurs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return db.resolve(e), nil
}

func (db *DB) GetByEmail(ctx context.Context, email string) (*entity.Entrepreneur, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if e := db.byEmail(email); e != nil {
		return db.resolve(e), nil
	}
	return nil, repository.ErrNotFound
}

func (db *DB) Search(ctx context.Context, text string) ([]*entity.Entrepreneur, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	needle := strings.ToLower(text)
	return db.collect(func(e *entity.Entrepreneur) bool {
		return strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.ShortDescription), needle)
	}), nil
}

func (db *DB) ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Entrepreneur, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	members := make(map[int64]bool)
	for _, a := range db.associations {
		if a.categoryID == categoryID {
			members[a.entrepreneurID] = true
		}
	}
	return db.collect(func(e *entity.Entrepreneur) bool { return members[e.ID] }), nil
}

func (db *DB) Create(ctx context.Context, f entity.EntrepreneurFields, categoryIDs []int64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.byEmail(f.Email) != nil {
		return 0, repository.ErrEmailTaken
	}
	if err := db.checkCategories(categoryIDs); err != nil {
		return 0, err
	}

	db.entrepreneurSeq++
	now := db.now().UTC()
	e := &entity.Entrepreneur{
		ID:               db.entrepreneurSeq,
		Name:             f.Name,
		Photo:            cloneBytes(f.Photo),
		PhotoURL:         f.PhotoURL,
		ShortDescription: f.ShortDescription,
		LongDescription:  f.LongDescription,
		WhatsApp:         f.WhatsApp,
		Email:            strings.TrimSpace(f.Email),
		Password:         f.Password,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	db.entrepreneurs[e.ID] = e
	db.linkCategories(e.ID, categoryIDs)
	return e.ID, nil
}

func (db *DB) Update(ctx context.Context, id int64, f entity.EntrepreneurFields, categoryIDs []int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.entrepreneurs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if other := db.byEmail(f.Email); other != nil && other.ID != id {
		return repository.ErrEmailTaken
	}
	if err := db.checkCategories(categoryIDs); err != nil {
		return err
	}

	e.Name = f.Name
	if f.Photo != nil {
		e.Photo = cloneBytes(f.Photo)
		e.PhotoURL = f.PhotoURL
	}
	e.ShortDescription = f.ShortDescription
	e.LongDescription = f.LongDescription
	e.WhatsApp = f.WhatsApp
	e.Email = strings.TrimSpace(f.Email)
	e.UpdatedAt = db.now().UTC()

	db.unlinkCategories(id)
	db.linkCategories(id, categoryIDs)
	return nil
}

func (db *DB) UpdatePassword(ctx context.Context, id int64, hash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.entrepreneurs[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Password = hash
	e.UpdatedAt = db.now().UTC()
	return nil
}

func (db *DB) Delete(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.unlinkCategories(id)
	if _, ok := db.entrepreneurs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(db.entrepreneurs, id)
	return nil
}

func (db *DB) ListCategories(ctx context.Context) ([]entity.Category, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]entity.Category, 0, len(db.categories))
	for _, c := range db.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AssociationCount reports how many association rows reference the entrepreneur.
func (db *DB) AssociationCount(entrepreneurID int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, a := range db.associations {
		if a.entrepreneurID == entrepreneurID {
			n++
		}
	}
	return n
}

// --- AuditRepository ---

func (db *DB) Insert(ctx context.Context, e entity.AuditEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = db.now().UTC()
	}
	db.audit = append(db.audit, e)
	return nil
}

// AuditEntries returns a copy of the recorded audit entries.
func (db *DB) AuditEntries() []entity.AuditEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]entity.AuditEntry, len(db.audit))
	copy(out, db.audit)
	return out
}

// --- helpers (callers hold db.mu) ---

func (db *DB) collect(keep func(*entity.Entrepreneur) bool) []*entity.Entrepreneur {
	out := make([]*entity.Entrepreneur, 0, len(db.entrepreneurs))
	for _, e := range db.entrepreneurs {
		if keep(e) {
			out = append(out, db.resolve(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// resolve returns a detached copy with its categories in association order.
func (db *DB) resolve(e *entity.Entrepreneur) *entity.Entrepreneur {
	cp := *e
	cp.Photo = cloneBytes(e.Photo)
	cp.Categories = make([]entity.Category, 0)
	for _, a := range db.associations {
		if a.entrepreneurID == e.ID {
			if c, ok := db.categories[a.categoryID]; ok {
				cp.Categories = append(cp.Categories, c)
			}
		}
	}
	return &cp
}

func (db *DB) byEmail(email string) *entity.Entrepreneur {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range db.entrepreneurs {
		if strings.ToLower(e.Email) == email {
			return e
		}
	}
	return nil
}

func (db *DB) checkCategories(ids []int64) error {
	for _, id := range ids {
		if _, ok := db.categories[id]; !ok {
			return fmt.Errorf("insert category %d: unknown category", id)
		}
	}
	return nil
}

func (db *DB) linkCategories(entrepreneurID int64, ids []int64) {
	for _, catID := range ids {
		db.associationSeq++
		db.associations = append(db.associations, association{
			id:             db.associationSeq,
			categoryID:     catID,
			entrepreneurID: entrepreneurID,
		})
	}
}

func (db *DB) unlinkCategories(entrepreneurID int64) {
	kept := db.associations[:0]
	for _, a := range db.associations {
		if a.entrepreneurID != entrepreneurID {
			kept = append(kept, a)
		}
	}
	db.associations = kept
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
