package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/csg33k/billed/internal/adapters/remote"
	"github.com/csg33k/billed/internal/auth"
	"github.com/csg33k/billed/internal/domain"
	"github.com/csg33k/billed/internal/metrics"
	"github.com/csg33k/billed/internal/newbill"
	"github.com/csg33k/billed/internal/ports"
	"github.com/csg33k/billed/internal/templates"
)

type Handler struct {
	store     ports.BillStore
	proofs    ports.ProofStore
	exporters []ports.Exporter
	policy    newbill.ProofPolicy
	sessions  *auth.SessionManager
	metrics   *metrics.Metrics
	maxUpload int64
	log       *slog.Logger
}

type Options struct {
	Store     ports.BillStore
	Proofs    ports.ProofStore
	Exporters []ports.Exporter
	Policy    newbill.ProofPolicy
	// Sessions signs the session cookie. Nil gets a random per-process key.
	Sessions *auth.SessionManager
	Metrics  *metrics.Metrics
	// MaxUpload bounds a multipart request body, in bytes.
	MaxUpload int64
	Logger    *slog.Logger
}

func New(o Options) *Handler {
	if o.Sessions == nil {
		o.Sessions = auth.NewSessionManager(uuid.NewString()+uuid.NewString(), 24*time.Hour)
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New(nil)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.MaxUpload <= 0 {
		o.MaxUpload = 10 << 20
	}
	return &Handler{
		store:     o.Store,
		proofs:    o.Proofs,
		exporters: o.Exporters,
		policy:    o.Policy,
		sessions:  o.Sessions,
		metrics:   o.Metrics,
		maxUpload: o.MaxUpload,
		log:       o.Logger,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, h.metrics.Instrument(pattern, fn))
	}

	handle("GET /{$}", h.loginPage)
	handle("POST /login", h.login)
	handle("POST /logout", h.logout)

	handle("GET "+domain.RouteBills, h.employee(h.billsPage))
	handle("GET "+templates.BillsTablePath, h.employee(h.billsTable))
	handle("GET "+domain.RouteNewBill, h.employee(h.newBillPage))
	handle("POST /employee/bill/proof", h.employee(h.selectProof))
	handle("POST "+domain.RouteNewBill, h.employee(h.submitBill))
	handle("GET /bills/{id}/proof", h.employee(h.proof))
	for _, e := range h.exporters {
		handle("GET "+domain.RouteBills+"/export."+e.Extension(), h.employee(h.export(e)))
	}

	mux.Handle("GET /metrics", h.metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return h.recoverer(h.logRequests(mux))
}

// ── Session ──────────────────────────────────────────────────────────────────

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, templates.Page("Connexion", templates.Login("")))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	s := domain.Session{
		Type:  domain.UserType(r.FormValue("type")),
		Email: strings.TrimSpace(r.FormValue("email")),
	}
	if err := h.setSession(w, s); err != nil {
		if auth.IsInvalid(err) {
			w.WriteHeader(http.StatusBadRequest)
			render(w, r, templates.Page("Connexion", templates.Login("Adresse email invalide")))
			return
		}
		h.log.Error("sign session", "err", err)
		http.Error(w, "Erreur 500", 500)
		return
	}
	h.navigator(w, r)(domain.RouteBills)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	clearSession(w)
	h.navigator(w, r)(domain.RouteLogin)
}

// ── Bills listing ────────────────────────────────────────────────────────────

func (h *Handler) billsPage(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	render(w, r, templates.Page("Mes notes de frais", templates.Bills(domain.ListingState{Loading: true})))
}

// billsTable is the fragment the loading placeholder swaps in.
func (h *Handler) billsTable(w http.ResponseWriter, r *http.Request, s domain.Session) {
	bills, err := h.store.List(r.Context(), s.Email)
	if err != nil {
		h.log.Error("list bills", "email", s.Email, "err", err)
		render(w, r, templates.Bills(domain.ListingState{Error: errorMessage(err)}))
		return
	}
	render(w, r, templates.Bills(domain.ListingState{Data: bills}))
}

func (h *Handler) proof(w http.ResponseWriter, r *http.Request, s domain.Session) {
	b, err := h.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, domain.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if !strings.EqualFold(b.Email, s.Email) || b.ProofKey == "" || h.proofs == nil {
		http.NotFound(w, r)
		return
	}
	rc, err := h.proofs.Open(r.Context(), b.ProofKey)
	if err != nil {
		h.log.Error("open proof", "bill", b.ID, "err", err)
		http.Error(w, "proof unavailable", 500)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", proofType(b.ProofType))
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition(b.ProofType), map[string]string{"filename": b.FileName}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if rs := readSeeker(rc); rs != nil {
		http.ServeContent(w, r, b.FileName, b.CreatedAt, rs)
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn("stream proof", "bill", b.ID, "err", err)
	}
}

func (h *Handler) export(e ports.Exporter) func(http.ResponseWriter, *http.Request, domain.Session) {
	return func(w http.ResponseWriter, r *http.Request, s domain.Session) {
		bills, err := h.store.List(r.Context(), s.Email)
		if err != nil {
			http.Error(w, errorMessage(err), statusOf(err))
			return
		}
		filename := fmt.Sprintf("notes-de-frais_%s.%s", time.Now().Format("20060102"), e.Extension())
		w.Header().Set("Content-Type", e.ContentType())
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		if err := e.Generate(r.Context(), s.Email, bills, w); err != nil {
			h.log.Error("export bills", "format", e.Extension(), "err", err)
		}
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// render writes a templ component to the response.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), 500)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// navigator replaces the visible view: an HX-Redirect for htmx requests, a
// 303 otherwise.
func (h *Handler) navigator(w http.ResponseWriter, r *http.Request) ports.Navigator {
	return func(pathname string) {
		if isHTMX(r) {
			w.Header().Set("HX-Redirect", pathname)
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, pathname, http.StatusSeeOther)
	}
}

// statusOf maps a store error to an HTTP status. Remote API errors keep theirs.
func statusOf(err error) int {
	var apiErr *remote.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.StatusCode
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the text shown to the employee for a store error.
func errorMessage(err error) string {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return fmt.Sprintf("Erreur %d", statusOf(err))
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metrics.StatusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		h.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.Status(),
			"duration", time.Since(start),
		)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				h.log.Error("panic", "path", r.URL.Path, "panic", v)
				http.Error(w, "Erreur 500", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
