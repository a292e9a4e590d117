// Package postgres is a BillStore backed by PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/csg33k/billed/internal/adapters/objectstore"
	"github.com/csg33k/billed/internal/domain"
	"github.com/csg33k/billed/internal/ports"
)

var _ ports.BillStore = (*Repository)(nil)

var ErrDuplicateBill = errors.New("bill already exists")

const schema = `
CREATE TABLE IF NOT EXISTS bills (
    id            UUID PRIMARY KEY,
    email         TEXT NOT NULL,
    type          TEXT NOT NULL DEFAULT '',
    name          TEXT NOT NULL DEFAULT '',
    date          TEXT NOT NULL DEFAULT '',
    amount        TEXT NOT NULL DEFAULT '',
    vat           TEXT NOT NULL DEFAULT '',
    pct           TEXT NOT NULL DEFAULT '',
    commentary    TEXT NOT NULL DEFAULT '',
    file_name     TEXT NOT NULL DEFAULT '',
    file_url      TEXT NOT NULL DEFAULT '',
    proof_key     TEXT NOT NULL DEFAULT '',
    proof_type    TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'pending',
    comment_admin TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bills_email ON bills(email, created_at DESC);
ALTER TABLE bills ADD COLUMN IF NOT EXISTS proof_type TEXT NOT NULL DEFAULT '';
`

type Repository struct {
	pool   *pgxpool.Pool
	proofs ports.ProofStore
}

// New connects to databaseURL and creates the schema if needed.
func New(ctx context.Context, databaseURL string, proofs ports.ProofStore) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Repository{pool: pool, proofs: proofs}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Create(ctx context.Context, req ports.CreateBillRequest) (*domain.Bill, error) {
	b := &domain.Bill{
		ID:         uuid.NewString(),
		Type:       req.Form.Type,
		Name:       req.Form.Name,
		Date:       req.Form.Date,
		Amount:     req.Form.Amount,
		VAT:        req.Form.VAT,
		Pct:        req.Form.Pct,
		Commentary: req.Form.Commentary,
		Status:     domain.BillStatusPending,
		Email:      req.Email,
		CreatedAt:  time.Now().UTC(),
	}
	key, mimeType, err := objectstore.SaveUpload(ctx, r.proofs, req.Email, req.Proof)
	if err != nil {
		return nil, err
	}
	if key != "" {
		b.ProofKey = key
		b.ProofType = mimeType
		b.FileName = req.Proof.Name
		b.FileURL = domain.ProofPath(b.ID)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO bills (
			id, email, type, name, date, amount, vat, pct, commentary,
			file_name, file_url, proof_key, proof_type, status, comment_admin, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		b.ID, b.Email, b.Type, b.Name, b.Date, b.Amount, b.VAT, b.Pct, b.Commentary,
		b.FileName, b.FileURL, b.ProofKey, b.ProofType, string(b.Status), b.CommentAdmin, b.CreatedAt,
	)
	if err != nil {
		objectstore.Discard(ctx, r.proofs, b.ProofKey)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrDuplicateBill
		}
		return nil, fmt.Errorf("insert bill: %w", err)
	}
	return b, nil
}

const billColumns = `id::text, email, type, name, date, amount, vat, pct, commentary,
	file_name, file_url, proof_key, proof_type, status, comment_admin, created_at`

func scanBill(row pgx.Row) (domain.Bill, error) {
	var b domain.Bill
	var status string
	err := row.Scan(
		&b.ID, &b.Email, &b.Type, &b.Name, &b.Date, &b.Amount, &b.VAT, &b.Pct, &b.Commentary,
		&b.FileName, &b.FileURL, &b.ProofKey, &b.ProofType, &status, &b.CommentAdmin, &b.CreatedAt,
	)
	b.Status = domain.BillStatus(status)
	return b, err
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Bill, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	b, err := scanBill(r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) List(ctx context.Context, email string) ([]domain.Bill, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+billColumns+` FROM bills WHERE email=$1 ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}
