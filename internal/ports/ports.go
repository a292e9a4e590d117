package ports

//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks . BillStore,ProofStore

import (
	"context"
	"io"

	"github.com/csg33k/billed/internal/domain"
)

// ProofUpload is the proof file attached to a create request. Open is called
// at most once, by the store, when the bill is actually written.
type ProofUpload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// CreateBillRequest is the multipart payload sent to the bill store.
type CreateBillRequest struct {
	Form  domain.BillForm
	Email string
	Proof *ProofUpload
}

// BillStore is the persistence API for bills.
type BillStore interface {
	// Create persists a new pending bill and its proof. The returned bill has
	// ID, FileURL and FileName assigned.
	Create(ctx context.Context, req CreateBillRequest) (*domain.Bill, error)
	// List returns the bills owned by email.
	List(ctx context.Context, email string) ([]domain.Bill, error)
	// Get returns a single bill or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Bill, error)
}

// ProofStore stores proof files. mimeType is sniffed from the stored bytes,
// not taken from the client.
type ProofStore interface {
	Save(ctx context.Context, owner string, fileName string, r io.Reader) (key string, size int64, mimeType string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a stored proof. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Exporter writes a listing export for one owner.
type Exporter interface {
	Generate(ctx context.Context, owner string, bills []domain.Bill, w io.Writer) error
	ContentType() string
	Extension() string
}

// Navigator replaces the visible view with pathname.
type Navigator func(pathname string)
