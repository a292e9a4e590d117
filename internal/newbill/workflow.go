// Package newbill implements the NewBill submission workflow: capture a proof
// file, then create the bill through the store and navigate to the listing.
//
// A Workflow is built per form interaction with every collaborator passed in
// explicitly (store, session, navigator, proof policy), so it runs headless.
package newbill

import (
	"context"
	"errors"
	"io"
	"mime/multipart"

	"github.com/csg33k/billed/internal/domain"
	"github.com/csg33k/billed/internal/ports"
)

var (
	ErrNoFile       = errors.New("no proof file selected")
	ErrTooManyFiles = errors.New("only one proof file can be attached")
	ErrProofType    = errors.New("proof file type not allowed")
)

// TypeError reports a proof refused by the policy. It matches ErrProofType.
type TypeError struct {
	ContentType string
}

func (e *TypeError) Error() string { return ErrProofType.Error() + ": " + e.ContentType }
func (e *TypeError) Unwrap() error { return ErrProofType }

// Proof is the captured proof file. Its content is not read until Submit.
type Proof struct {
	Name        string
	ContentType string
	Size        int64
	open        func() (io.ReadCloser, error)
}

func (p *Proof) upload() *ports.ProofUpload {
	if p == nil {
		return nil
	}
	return &ports.ProofUpload{
		Name:        p.Name,
		ContentType: p.ContentType,
		Size:        p.Size,
		Open:        p.open,
	}
}

type Workflow struct {
	store    ports.BillStore
	session  domain.Session
	navigate ports.Navigator
	policy   ProofPolicy
	proof    *Proof
}

func New(store ports.BillStore, session domain.Session, navigate ports.Navigator, policy ProofPolicy) *Workflow {
	return &Workflow{store: store, session: session, navigate: navigate, policy: policy}
}

// SelectFile captures the single file of a file input. Both the type the
// client declared and the type sniffed from the content must pass the policy.
// A refused file clears any previously captured proof.
func (w *Workflow) SelectFile(files []*multipart.FileHeader) (*Proof, error) {
	switch {
	case len(files) == 0:
		w.proof = nil
		return nil, ErrNoFile
	case len(files) > 1:
		w.proof = nil
		return nil, ErrTooManyFiles
	}
	fh := files[0]
	declared := detectContentType(fh.Header.Get("Content-Type"), fh.Filename)
	sniffed, err := sniffContentType(fh)
	if err != nil {
		w.proof = nil
		return nil, err
	}
	for _, ct := range []string{declared, sniffed} {
		if !w.policy.Allows(ct) {
			w.proof = nil
			return nil, &TypeError{ContentType: ct}
		}
	}
	w.proof = &Proof{
		Name:        fh.Filename,
		ContentType: sniffed,
		Size:        fh.Size,
		open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
	return w.proof, nil
}

// Proof returns the captured proof, or nil.
func (w *Workflow) Proof() *Proof { return w.proof }

// Submit creates the bill and, on success, navigates to the bills listing.
// Store errors are returned as is; nothing is retried and the navigator is
// left alone.
func (w *Workflow) Submit(ctx context.Context, form domain.BillForm) (*domain.Bill, error) {
	bill, err := w.store.Create(ctx, ports.CreateBillRequest{
		Form:  form,
		Email: w.session.Email,
		Proof: w.proof.upload(),
	})
	if err != nil {
		return nil, err
	}
	if w.navigate != nil {
		w.navigate(domain.RouteBills)
	}
	return bill, nil
}
