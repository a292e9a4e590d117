package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/csg33k/billed/internal/domain"
	"github.com/csg33k/billed/internal/newbill"
	"github.com/csg33k/billed/internal/templates"
)

func (h *Handler) newBillPage(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	render(w, r, templates.Page("Nouvelle note de frais", templates.NewBill(domain.ExpenseTypes, h.policy.Accept())))
}

// selectProof validates the file input on change, before the form is sent.
func (h *Handler) selectProof(w http.ResponseWriter, r *http.Request, s domain.Session) {
	if !h.parseMultipart(w, r) {
		return
	}
	wf := newbill.New(h.store, s, nil, h.policy)
	p, err := wf.SelectFile(r.MultipartForm.File["file"])
	if err != nil {
		h.rejectProof(w, r, err)
		return
	}
	render(w, r, templates.ProofStatus(p.Name, ""))
}

func (h *Handler) submitBill(w http.ResponseWriter, r *http.Request, s domain.Session) {
	if !h.parseMultipart(w, r) {
		return
	}
	wf := newbill.New(h.store, s, h.navigator(w, r), h.policy)
	if files := r.MultipartForm.File["file"]; len(files) > 0 {
		if _, err := wf.SelectFile(files); err != nil {
			h.rejectProof(w, r, err)
			return
		}
	}

	bill, err := wf.Submit(r.Context(), parseBillForm(r))
	if err != nil {
		h.metrics.CreateFailures.Inc()
		h.log.Error("create bill", "email", s.Email, "err", err)
		http.Error(w, errorMessage(err), statusOf(err))
		return
	}
	h.metrics.BillsCreated.Inc()
	h.log.Info("bill created", "id", bill.ID, "email", s.Email, "proof", bill.FileName)
}

// parseBillForm reads the scalar fields of the NewBill form. Values are kept
// as typed; the store decides what is acceptable.
func parseBillForm(r *http.Request) domain.BillForm {
	return domain.BillForm{
		Type:       r.FormValue("expense-type"),
		Name:       r.FormValue("expense-name"),
		Date:       r.FormValue("datepicker"),
		Amount:     r.FormValue("amount"),
		VAT:        r.FormValue("vat"),
		Pct:        r.FormValue("pct"),
		Commentary: r.FormValue("commentary"),
	}
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			render(w, r, templates.ProofStatus("", "Fichier trop volumineux"))
			return false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) rejectProof(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	msg := "Veuillez sélectionner un seul fichier"
	var typeErr *newbill.TypeError
	if errors.As(err, &typeErr) {
		status = http.StatusUnsupportedMediaType
		msg = "Format de fichier non autorisé"
		h.metrics.ProofsRejected.WithLabelValues(typeErr.ContentType).Inc()
	}
	h.log.Warn("proof rejected", "err", err)
	w.WriteHeader(status)
	render(w, r, templates.ProofStatus("", msg))
}

// readSeeker returns rc itself when it can seek; otherwise nil, and the
// caller streams instead.
func readSeeker(rc io.ReadCloser) io.ReadSeeker {
	if rs, ok := rc.(io.ReadSeeker); ok {
		return rs
	}
	return nil
}

// proofType is the Content-Type a stored proof is served with: the type
// sniffed at upload, never one derived from the file name.
func proofType(sniffed string) string {
	if sniffed == "" {
		return "application/octet-stream"
	}
	return sniffed
}

// disposition lets the browser render images and PDFs; anything else is
// downloaded.
func disposition(sniffed string) string {
	if sniffed == "image/svg+xml" {
		return "attachment"
	}
	if strings.HasPrefix(sniffed, "image/") || sniffed == "application/pdf" {
		return "inline"
	}
	return "attachment"
}
