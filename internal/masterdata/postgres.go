package masterdata

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/vouchergrid/internal/lookup"
	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

type postgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository returns the pgx-backed master-data repository.
func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Search(ctx context.Context, kind voucher.EntityKind, term string, limit int) ([]lookup.Candidate, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name FROM md_entities
WHERE kind=$1 AND active AND (code ILIKE $2 || '%' OR name ILIKE '%' || $2 || '%')
ORDER BY (lower(code) = lower($2)) DESC, code
LIMIT $3`, kind, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []lookup.Candidate
	for rows.Next() {
		var c lookup.Candidate
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepository) Get(ctx context.Context, kind voucher.EntityKind, id int64) (Entity, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, kind, code, name, tax_rate, active, created_at
FROM md_entities WHERE kind=$1 AND id=$2`, kind, id))
}

func (r *postgresRepository) ResolveCode(ctx context.Context, kind voucher.EntityKind, code string) (Entity, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, kind, code, name, tax_rate, active, created_at
FROM md_entities WHERE kind=$1 AND lower(code)=lower($2)`, kind, code))
}

func (r *postgresRepository) Create(ctx context.Context, e Entity) (Entity, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO md_entities (kind, code, name, tax_rate, active)
VALUES ($1,$2,$3,$4,TRUE) RETURNING id, created_at`, e.Kind, e.Code, e.Name, e.TaxRate).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_md_entities_kind_code" {
			return Entity{}, shared.ErrDuplicate
		}
		return Entity{}, err
	}
	e.Active = true
	return e, nil
}

func (r *postgresRepository) scanOne(row pgx.Row) (Entity, error) {
	var e Entity
	err := row.Scan(&e.ID, &e.Kind, &e.Code, &e.Name, &e.TaxRate, &e.Active, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entity{}, shared.ErrNotFound
		}
		return Entity{}, err
	}
	return e, nil
}
