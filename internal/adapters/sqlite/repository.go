package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/csg33k/billed/internal/adapters/objectstore"
	"github.com/csg33k/billed/internal/domain"
	"github.com/csg33k/billed/internal/ports"
)

var _ ports.BillStore = (*Repository)(nil)

type Repository struct {
	db     *sql.DB
	proofs ports.ProofStore
}

// New opens the SQLite database at dsn and creates the schema if needed.
// Proof files are copied into proofs.
func New(dsn string, proofs ports.ProofStore) (*Repository, error) {
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Repository{db: db, proofs: proofs}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// ── Bills ─────────────────────────────────────────────────────────────────────

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

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO bills (
			id, email, type, name, date, amount, vat, pct, commentary,
			file_name, file_url, proof_key, proof_type, status, comment_admin, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.Email, b.Type, b.Name, b.Date, b.Amount, b.VAT, b.Pct, b.Commentary,
		b.FileName, b.FileURL, b.ProofKey, b.ProofType, string(b.Status), b.CommentAdmin, b.CreatedAt,
	)
	if err != nil {
		objectstore.Discard(ctx, r.proofs, b.ProofKey)
		return nil, fmt.Errorf("insert bill: %w", err)
	}
	return b, nil
}

const billColumns = `id, email, type, name, date, amount, vat, pct, commentary,
		       file_name, file_url, proof_key, proof_type, status, comment_admin, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(s scanner) (domain.Bill, error) {
	var b domain.Bill
	var status string
	err := s.Scan(
		&b.ID, &b.Email, &b.Type, &b.Name, &b.Date, &b.Amount, &b.VAT, &b.Pct, &b.Commentary,
		&b.FileName, &b.FileURL, &b.ProofKey, &b.ProofType, &status, &b.CommentAdmin, &b.CreatedAt,
	)
	b.Status = domain.BillStatus(status)
	return b, err
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Bill, error) {
	b, err := scanBill(r.db.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) List(ctx context.Context, email string) ([]domain.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+billColumns+`
		FROM bills WHERE email=? ORDER BY created_at DESC`, email)
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
