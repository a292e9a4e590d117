package handlers

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	csvexport "github.com/csg33k/billed/internal/adapters/csv"
	"github.com/csg33k/billed/internal/adapters/remote"
	"github.com/csg33k/billed/internal/auth"
	"github.com/csg33k/billed/internal/domain"
	"github.com/csg33k/billed/internal/metrics"
	"github.com/csg33k/billed/internal/newbill"
	"github.com/csg33k/billed/internal/ports"
	"github.com/csg33k/billed/internal/ports/mocks"
)

var employee = domain.Session{Type: domain.UserEmployee, Email: "a@a"}

const (
	jpegBytes = "\xff\xd8\xff\xe0jpeg-bytes"
	pngBytes  = "\x89PNG\r\n\x1a\npng-bytes"
	pdfBytes  = "%PDF-1.4 facture"
)

type fixture struct {
	store    *mocks.MockBillStore
	proofs   *mocks.MockProofStore
	metrics  *metrics.Metrics
	sessions *auth.SessionManager
	server   http.Handler
}

func newFixture(t *testing.T, policy newbill.ProofPolicy) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		store:   mocks.NewMockBillStore(ctrl),
		proofs:  mocks.NewMockProofStore(ctrl),
		metrics:  metrics.New(nil),
		sessions: auth.NewSessionManager("handler-test-secret-0123456789", time.Hour),
	}
	f.server = New(Options{
		Store:     f.store,
		Proofs:    f.proofs,
		Exporters: []ports.Exporter{csvexport.Exporter{}},
		Policy:    policy,
		Sessions:  f.sessions,
		Metrics:   f.metrics,
		MaxUpload: 1 << 20,
	}).Routes()
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request, s *domain.Session) *httptest.ResponseRecorder {
	t.Helper()
	if s != nil {
		v, err := f.sessions.Generate(*s)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: v})
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

type part struct {
	field, fileName, contentType, body string
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, p.field, p.fileName))
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var billFields = map[string]string{
	"expense-type": "Transports",
	"expense-name": "Vol Paris Londres",
	"datepicker":   "2004-04-04",
	"amount":       "348",
	"vat":          "70",
	"pct":          "20",
	"commentary":   "séminaire",
}

func TestForgedSessionCookie(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))
	other, err := auth.NewSessionManager("some-other-secret-0123456789", time.Hour).Generate(employee)
	require.NoError(t, err)

	for name, value := range map[string]string{
		"plain json":   base64.RawURLEncoding.EncodeToString([]byte(`{"type":"Employee","email":"a@a"}`)),
		"other secret": other,
		"garbage":      "!!",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/employee/bills/table", nil)
			req.AddCookie(&http.Cookie{Name: sessionCookie, Value: value})
			rec := f.do(t, req, nil)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, domain.RouteLogin, rec.Header().Get("Location"))
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))

	form := url.Values{"type": {"Employee"}, "email": {"a@a"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := f.do(t, req, nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, domain.RouteBills, rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	s, err := f.sessions.Validate(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, employee, s)
}

func TestLogin_InvalidEmail(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))

	form := url.Values{"type": {"Employee"}, "email": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := f.do(t, req, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-testid="login-error"`)
	assert.Empty(t, rec.Result().Cookies())
}

func TestEmployeeRoutes_RequireSession(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, domain.RouteNewBill, nil), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, domain.RouteLogin, rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/employee/bills/table", nil)
	req.Header.Set("HX-Request", "true")
	rec = f.do(t, req, &domain.Session{Type: domain.UserAdmin, Email: "admin@a"})
	assert.Equal(t, domain.RouteLogin, rec.Header().Get("HX-Redirect"))
}

func TestBillsPage_StartsLoading(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, domain.RouteBills, nil), &employee)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="loading"`)
	assert.Contains(t, rec.Body.String(), `hx-get="/employee/bills/table"`)
}

func TestBillsTable(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))
	f.store.EXPECT().List(gomock.Any(), "a@a").Return([]domain.Bill{
		{ID: "old", Name: "janvier", Date: "2004-01-01", Amount: "10", Status: domain.BillStatusPending},
		{ID: "new", Name: "avril", Date: "2004-04-04", Amount: "20", Status: domain.BillStatusAccepted},
	}, nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/employee/bills/table", nil), &employee)

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Less(t, strings.Index(body, `data-bill-id="new"`), strings.Index(body, `data-bill-id="old"`))
	assert.Contains(t, body, "4 Avr. 04")
}

func TestBillsTable_StoreErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&remote.APIError{StatusCode: 404}, "Erreur 404"},
		{&remote.APIError{StatusCode: 500}, "Erreur 500"},
		{errors.New("disk on fire"), "Erreur 500"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			f := newFixture(t, newbill.ParseProofPolicy(""))
			f.store.EXPECT().List(gomock.Any(), "a@a").Return(nil, tt.err)

			rec := f.do(t, httptest.NewRequest(http.MethodGet, "/employee/bills/table", nil), &employee)

			assert.Contains(t, rec.Body.String(), `data-testid="error-message"`)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.NotContains(t, rec.Body.String(), "disk on fire")
		})
	}
}

func TestNewBillPage(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy("image/png"))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, domain.RouteNewBill, nil), &employee)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-testid="form-new-bill"`)
	assert.Contains(t, rec.Body.String(), `accept="image/png"`)
}

func TestSelectProof(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))

	rec := f.do(t, multipartRequest(t, "/employee/bill/proof", nil,
		part{"file", "facture.pdf", "application/pdf", pdfBytes}), &employee)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-file-name="facture.pdf"`)

	rec = f.do(t, multipartRequest(t, "/employee/bill/proof", nil,
		part{"file", "notes.txt", "text/plain", "hello"}), &employee)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="proof-error"`)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ProofsRejected.WithLabelValues("text/plain")))

	rec = f.do(t, multipartRequest(t, "/employee/bill/proof", nil), &employee)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitBill(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))

	var got ports.CreateBillRequest
	f.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, req ports.CreateBillRequest) (*domain.Bill, error) {
			got = req
			rc, err := req.Proof.Open()
			require.NoError(t, err)
			defer rc.Close()
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, jpegBytes, string(b))
			return &domain.Bill{ID: "b1", FileName: req.Proof.Name}, nil
		}).Times(1)

	req := multipartRequest(t, domain.RouteNewBill, billFields, part{"file", "bill.jpeg", "image/jpeg", jpegBytes})
	req.Header.Set("HX-Request", "true")
	rec := f.do(t, req, &employee)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.RouteBills, rec.Header().Get("HX-Redirect"))
	assert.Equal(t, "a@a", got.Email)
	assert.Equal(t, domain.BillForm{
		Type: "Transports", Name: "Vol Paris Londres", Date: "2004-04-04",
		Amount: "348", VAT: "70", Pct: "20", Commentary: "séminaire",
	}, got.Form)
	require.NotNil(t, got.Proof)
	assert.Equal(t, "bill.jpeg", got.Proof.Name)
	assert.Equal(t, "image/jpeg", got.Proof.ContentType)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.BillsCreated))
}

func TestSubmitBill_WithoutHTMX(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))
	f.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&domain.Bill{ID: "b1"}, nil)

	rec := f.do(t, multipartRequest(t, domain.RouteNewBill, nil), &employee)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, domain.RouteBills, rec.Header().Get("Location"))
}

func TestSubmitBill_StoreError(t *testing.T) {
	for _, code := range []int{404, 500} {
		t.Run(fmt.Sprint(code), func(t *testing.T) {
			f := newFixture(t, newbill.ParseProofPolicy(""))
			f.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, &remote.APIError{StatusCode: code})

			req := multipartRequest(t, domain.RouteNewBill, billFields)
			req.Header.Set("HX-Request", "true")
			rec := f.do(t, req, &employee)

			assert.Equal(t, code, rec.Code)
			assert.Empty(t, rec.Header().Get("HX-Redirect"))
			assert.Contains(t, rec.Body.String(), fmt.Sprintf("Erreur %d", code))
			assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CreateFailures))
		})
	}
}

func TestSubmitBill_RejectedProofSkipsCreate(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))

	rec := f.do(t, multipartRequest(t, domain.RouteNewBill, billFields,
		part{"file", "setup.exe", "application/x-msdownload", "MZ"}), &employee)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestSubmitBill_HTMLDeclaredAsImage(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))

	rec := f.do(t, multipartRequest(t, domain.RouteNewBill, billFields,
		part{"file", "evil.html", "image/png", "<html><script>alert(1)</script></html>"}), &employee)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ProofsRejected.WithLabelValues("text/html")))
}

func TestSubmitBill_DoubleDotFileName(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))
	f.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, req ports.CreateBillRequest) (*domain.Bill, error) {
			require.NotNil(t, req.Proof)
			assert.Equal(t, "facture..pdf", req.Proof.Name)
			assert.Equal(t, "application/pdf", req.Proof.ContentType)
			return &domain.Bill{ID: "b1", FileName: req.Proof.Name}, nil
		})

	req := multipartRequest(t, domain.RouteNewBill, billFields, part{"file", "facture..pdf", "application/pdf", pdfBytes})
	req.Header.Set("HX-Request", "true")
	rec := f.do(t, req, &employee)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.RouteBills, rec.Header().Get("HX-Redirect"))
}

func TestSubmitBill_TooLarge(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))

	big := strings.Repeat("x", 2<<20)
	rec := f.do(t, multipartRequest(t, domain.RouteNewBill, billFields,
		part{"file", "big.png", "image/png", big}), &employee)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestProof(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))
	f.store.EXPECT().Get(gomock.Any(), "b1").Return(&domain.Bill{
		ID: "b1", Email: "A@A", FileName: "bill.png", ProofKey: "k/bill.png", ProofType: "image/png",
	}, nil)
	f.proofs.EXPECT().Open(gomock.Any(), "k/bill.png").Return(io.NopCloser(strings.NewReader(pngBytes)), nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/bills/b1/proof", nil), &employee)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "inline; filename=bill.png", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestProof_ServedWithStoredType(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		proofType   string
		contentType string
		disposition string
	}{
		{"pdf", "facture.pdf", "application/pdf", "application/pdf", "inline; filename=facture.pdf"},
		{"html named as image", "evil.png", "text/html; charset=utf-8", "text/html; charset=utf-8", "attachment; filename=evil.png"},
		{"extension ignored", "evil.html", "", "application/octet-stream", "attachment; filename=evil.html"},
		{"svg", "logo.svg", "image/svg+xml", "image/svg+xml", "attachment; filename=logo.svg"},
		{"quoted name", `re"cu.pdf`, "application/pdf", "application/pdf", `inline; filename="re\"cu.pdf"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, newbill.ParseProofPolicy(""))
			f.store.EXPECT().Get(gomock.Any(), "b1").Return(&domain.Bill{
				ID: "b1", Email: "a@a", FileName: tt.fileName, ProofKey: "k", ProofType: tt.proofType,
			}, nil)
			f.proofs.EXPECT().Open(gomock.Any(), "k").Return(io.NopCloser(strings.NewReader("<html>x</html>")), nil)

			rec := f.do(t, httptest.NewRequest(http.MethodGet, "/bills/b1/proof", nil), &employee)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.disposition, rec.Header().Get("Content-Disposition"))
		})
	}
}

func TestProof_OtherOwner(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))
	f.store.EXPECT().Get(gomock.Any(), "b1").Return(&domain.Bill{ID: "b1", Email: "b@b", ProofKey: "k"}, nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/bills/b1/proof", nil), &employee)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProof_Unknown(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))
	f.store.EXPECT().Get(gomock.Any(), "nope").Return(nil, domain.ErrNotFound)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/bills/nope/proof", nil), &employee)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))
	f.store.EXPECT().List(gomock.Any(), "a@a").Return([]domain.Bill{{ID: "b1", Date: "2004-04-04"}}, nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/employee/bills/export.csv", nil), &employee)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename=notes-de-frais_\d{8}\.csv$`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "b1,")
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, newbill.ParseProofPolicy(""))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)
	assert.Equal(t, "ok", rec.Body.String())

	f.do(t, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil), nil)
	assert.Contains(t, rec.Body.String(), `billed_http_request_duration_seconds_count{method="GET",route="GET /{$}",status="200"} 1`)
}
