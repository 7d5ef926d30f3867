package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/vouchergrid/internal/platform/db"
	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

type postgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository returns the pgx-backed document repository.
func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (voucher.Document, error) {
	return scanDocument(r.db.QueryRow(ctx, `SELECT payload, created_at, updated_at FROM documents WHERE id=$1`, id))
}

func (r *postgresRepository) List(ctx context.Context, vt voucher.VoucherType, status voucher.Status, limit int) ([]voucher.Document, error) {
	rows, err := r.db.Query(ctx, `SELECT payload, created_at, updated_at FROM documents
WHERE ($1 = '' OR type = $1) AND ($2 = '' OR status = $2)
ORDER BY updated_at DESC LIMIT $3`, vt, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []voucher.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *postgresRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Get(ctx context.Context, id uuid.UUID) (voucher.Document, error) {
	return scanDocument(r.tx.QueryRow(ctx, `SELECT payload, created_at, updated_at FROM documents WHERE id=$1`, id))
}

func (r *txRepository) Save(ctx context.Context, doc voucher.Document) (voucher.Document, error) {
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = doc.UpdatedAt
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return voucher.Document{}, fmt.Errorf("marshal document: %w", err)
	}
	_, err = r.tx.Exec(ctx, `INSERT INTO documents (id, number, type, status, editable, payload, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  number=EXCLUDED.number, status=EXCLUDED.status, editable=EXCLUDED.editable,
  payload=EXCLUDED.payload, updated_at=EXCLUDED.updated_at`,
		doc.ID, doc.Number, doc.Type, doc.Status, doc.Editable, payload, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return voucher.Document{}, shared.ErrDuplicate
		}
		return voucher.Document{}, err
	}
	return doc, nil
}

func (r *txRepository) NextNumber(ctx context.Context, vt voucher.VoucherType, prefix string) (string, error) {
	var n int64
	err := r.tx.QueryRow(ctx, `INSERT INTO numbering (voucher_type, next) VALUES ($1, 2)
ON CONFLICT (voucher_type) DO UPDATE SET next = numbering.next + 1
RETURNING next - 1`, vt).Scan(&n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", prefix, n), nil
}

func scanDocument(row pgx.Row) (voucher.Document, error) {
	var payload []byte
	var createdAt, updatedAt time.Time
	if err := row.Scan(&payload, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return voucher.Document{}, shared.ErrNotFound
		}
		return voucher.Document{}, err
	}
	var doc voucher.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return voucher.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	doc.CreatedAt = createdAt
	doc.UpdatedAt = updatedAt
	return doc, nil
}
