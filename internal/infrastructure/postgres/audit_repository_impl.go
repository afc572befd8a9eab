package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
	"github.com/oksasatya/vitrine-empreendedores/internal/domain/repository"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, e entity.AuditEntry) error {
	md := []byte("{}")
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
		md = b
	}
	var id pgtype.Int8
	if e.EntrepreneurID > 0 {
		id = pgtype.Int8{Int64: e.EntrepreneurID, Valid: true}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (empreendedor_id, email, action, ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, nullText(e.Email), e.Action, nullText(e.IP), nullText(e.UserAgent), md)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

var _ repository.AuditRepository = (*AuditRepository)(nil)
