package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
	"github.com/oksasatya/vitrine-empreendedores/internal/domain/repository"
)

const (
	uniqueViolation = "23505"
	emailIndex      = "tb_empreendedor_email_uidx"
)

const entrepreneurColumns = `
	tb_empreendedor_id, tb_empreendedor_nome, tb_empreendedor_foto, tb_empreendedor_foto_url,
	tb_empreendedor_descricao_curta, tb_empreendedor_descricao_completa,
	tb_empreendedor_contato_whatsapp, tb_empreendedor_contato_email, tb_empreendedor_senha,
	created_at, updated_at`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type DirectoryRepository struct {
	pool *pgxpool.Pool
}

func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

func (r *DirectoryRepository) ListAll(ctx context.Context) ([]*entity.Entrepreneur, error) {
	return r.queryEntrepreneurs(ctx, `
		SELECT `+entrepreneurColumns+`
		FROM tb_empreendedor
		ORDER BY tb_empreendedor_nome ASC, tb_empreendedor_id ASC
	`)
}

func (r *DirectoryRepository) GetByID(ctx context.Context, id int64) (*entity.Entrepreneur, error) {
	return r.queryOne(ctx, `
		SELECT `+entrepreneurColumns+`
		FROM tb_empreendedor
		WHERE tb_empreendedor_id = $1
	`, id)
}

func (r *DirectoryRepository) GetByEmail(ctx context.Context, email string) (*entity.Entrepreneur, error) {
	return r.queryOne(ctx, `
		SELECT `+entrepreneurColumns+`
		FROM tb_empreendedor
		WHERE lower(tb_empreendedor_contato_email) = lower($1)
	`, strings.TrimSpace(email))
}

// Search matches text as a case-insensitive substring of the name or the
// short description. LIKE metacharacters in text are matched literally.
func (r *DirectoryRepository) Search(ctx context.Context, text string) ([]*entity.Entrepreneur, error) {
	pattern := "%" + escapeLike(text) + "%"
	return r.queryEntrepreneurs(ctx, `
		SELECT `+entrepreneurColumns+`
		FROM tb_empreendedor
		WHERE tb_empreendedor_nome ILIKE $1 ESCAPE '\'
		   OR tb_empreendedor_descricao_curta ILIKE $1 ESCAPE '\'
		ORDER BY tb_empreendedor_nome ASC, tb_empreendedor_id ASC
	`, pattern)
}

func (r *DirectoryRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Entrepreneur, error) {
	return r.queryEntrepreneurs(ctx, `
		SELECT `+entrepreneurColumns+`
		FROM tb_empreendedor
		WHERE tb_empreendedor_id IN (
			SELECT tb_empreendedor_id FROM tb_empreendedor_categoria WHERE tb_categoria_id = $1
		)
		ORDER BY tb_empreendedor_nome ASC, tb_empreendedor_id ASC
	`, categoryID)
}

// Create inserts the entrepreneur and its category associations in one transaction.
func (r *DirectoryRepository) Create(ctx context.Context, f entity.EntrepreneurFields, categoryIDs []int64) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin create: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO tb_empreendedor (
			tb_empreendedor_nome, tb_empreendedor_foto, tb_empreendedor_foto_url,
			tb_empreendedor_descricao_curta, tb_empreendedor_descricao_completa,
			tb_empreendedor_contato_whatsapp, tb_empreendedor_contato_email, tb_empreendedor_senha
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING tb_empreendedor_id
	`, f.Name, f.Photo, f.PhotoURL, f.ShortDescription, nullText(f.LongDescription),
		f.WhatsApp, strings.TrimSpace(f.Email), f.Password).Scan(&id)
	if err != nil {
		return 0, mapWriteErr("insert entrepreneur", err)
	}
	if err := insertCategories(ctx, tx, id, categoryIDs); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit create: %w", err)
	}
	return id, nil
}

// Update rewrites every mutable column except the password. A nil photo keeps
// the stored photo and its mirrored URL. Categories are replaced wholesale.
func (r *DirectoryRepository) Update(ctx context.Context, id int64, f entity.EntrepreneurFields, categoryIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var photoURL pgtype.Text
	if f.Photo != nil {
		photoURL = pgtype.Text{String: f.PhotoURL, Valid: true}
	}
	tag, err := tx.Exec(ctx, `
		UPDATE tb_empreendedor
		SET tb_empreendedor_nome = $1,
		    tb_empreendedor_foto = COALESCE($2, tb_empreendedor_foto),
		    tb_empreendedor_foto_url = COALESCE($3, tb_empreendedor_foto_url),
		    tb_empreendedor_descricao_curta = $4,
		    tb_empreendedor_descricao_completa = $5,
		    tb_empreendedor_contato_whatsapp = $6,
		    tb_empreendedor_contato_email = $7,
		    updated_at = now()
		WHERE tb_empreendedor_id = $8
	`, f.Name, f.Photo, photoURL, f.ShortDescription, nullText(f.LongDescription),
		f.WhatsApp, strings.TrimSpace(f.Email), id)
	if err != nil {
		return mapWriteErr("update entrepreneur", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tb_empreendedor_categoria WHERE tb_empreendedor_id = $1`, id); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	if err := insertCategories(ctx, tx, id, categoryIDs); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

func (r *DirectoryRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tb_empreendedor SET tb_empreendedor_senha = $1, updated_at = now()
		WHERE tb_empreendedor_id = $2
	`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the associations and then the entrepreneur row, atomically.
func (r *DirectoryRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM tb_empreendedor_categoria WHERE tb_empreendedor_id = $1`, id); err != nil {
		return fmt.Errorf("delete categories: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM tb_empreendedor WHERE tb_empreendedor_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete entrepreneur: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func (r *DirectoryRepository) ListCategories(ctx context.Context) ([]entity.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tb_categoria_id, tb_categoria_nome
		FROM tb_categoria
		ORDER BY tb_categoria_nome ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *DirectoryRepository) queryOne(ctx context.Context, sql string, args ...any) (*entity.Entrepreneur, error) {
	e, err := scanEntrepreneur(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get entrepreneur: %w", err)
	}
	if e.Categories, err = categoriesFor(ctx, r.pool, e.ID); err != nil {
		return nil, err
	}
	return e, nil
}

// queryEntrepreneurs drains the entrepreneur rows first and then resolves
// categories one entrepreneur at a time.
func (r *DirectoryRepository) queryEntrepreneurs(ctx context.Context, sql string, args ...any) ([]*entity.Entrepreneur, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query entrepreneurs: %w", err)
	}
	out := make([]*entity.Entrepreneur, 0)
	for rows.Next() {
		e, err := scanEntrepreneur(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan entrepreneur: %w", err)
		}
		out = append(out, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entrepreneurs: %w", err)
	}

	for _, e := range out {
		if e.Categories, err = categoriesFor(ctx, r.pool, e.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func categoriesFor(ctx context.Context, q querier, entrepreneurID int64) ([]entity.Category, error) {
	rows, err := q.Query(ctx, `
		SELECT c.tb_categoria_id, c.tb_categoria_nome
		FROM tb_categoria c
		INNER JOIN tb_empreendedor_categoria ec ON c.tb_categoria_id = ec.tb_categoria_id
		WHERE ec.tb_empreendedor_id = $1
		ORDER BY ec.tb_empreendedor_categoria_id ASC
	`, entrepreneurID)
	if err != nil {
		return nil, fmt.Errorf("categories of %d: %w", entrepreneurID, err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

func insertCategories(ctx context.Context, q querier, entrepreneurID int64, categoryIDs []int64) error {
	for _, catID := range categoryIDs {
		if _, err := q.Exec(ctx, `
			INSERT INTO tb_empreendedor_categoria (tb_categoria_id, tb_empreendedor_id)
			VALUES ($1, $2)
		`, catID, entrepreneurID); err != nil {
			return fmt.Errorf("insert category %d: %w", catID, err)
		}
	}
	return nil
}

func scanEntrepreneur(row pgx.Row) (*entity.Entrepreneur, error) {
	e := &entity.Entrepreneur{}
	var long pgtype.Text
	if err := row.Scan(&e.ID, &e.Name, &e.Photo, &e.PhotoURL, &e.ShortDescription, &long,
		&e.WhatsApp, &e.Email, &e.Password, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.LongDescription = long.String
	return e, nil
}

func scanCategories(rows pgx.Rows) ([]entity.Category, error) {
	out := make([]entity.Category, 0)
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func mapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == emailIndex {
		return repository.ErrEmailTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ repository.DirectoryRepository = (*DirectoryRepository)(nil)
