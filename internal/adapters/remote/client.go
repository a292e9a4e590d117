// Package remote is a BillStore talking to the Billed REST API.
//
//	POST {base}/bills           multipart: file, email and the form fields
//	GET  {base}/bills?email=... JSON array of bills
//	GET  {base}/bills/{id}      JSON bill
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/csg33k/billed/internal/domain"
	"github.com/csg33k/billed/internal/ports"
)

var _ ports.BillStore = (*Client)(nil)

// APIError is returned for any non-2xx response. Its message is the one the
// listing shows, e.g. "Erreur 404".
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Erreur %d", e.StatusCode)
}

type Client struct {
	base *url.URL
	http *http.Client
}

func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("remote api url %q: scheme and host required", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: u, http: httpClient}, nil
}

func (c *Client) endpoint(p string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + p
	u.RawQuery = q.Encode()
	return u.String()
}

// Create streams the multipart body through a pipe so the proof is never
// buffered in memory. The multipart writer sets the Content-Type boundary.
func (c *Client) Create(ctx context.Context, req ports.CreateBillRequest) (*domain.Bill, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeCreateBody(mw, req))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/bills", nil), pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	var b domain.Bill
	if err := c.do(httpReq, &b); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	return &b, nil
}

func writeCreateBody(mw *multipart.Writer, req ports.CreateBillRequest) error {
	fields := []struct{ name, value string }{
		{"email", req.Email},
		{"type", req.Form.Type},
		{"name", req.Form.Name},
		{"date", req.Form.Date},
		{"amount", req.Form.Amount},
		{"vat", req.Form.VAT},
		{"pct", req.Form.Pct},
		{"commentary", req.Form.Commentary},
		{"status", string(domain.BillStatusPending)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return err
		}
	}
	if req.Proof != nil && req.Proof.Open != nil {
		if err := writeProof(mw, req.Proof); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writeProof(mw *multipart.Writer, p *ports.ProofUpload) error {
	rc, err := p.Open()
	if err != nil {
		return fmt.Errorf("open proof %q: %w", p.Name, err)
	}
	defer rc.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(p.Name)))
	ct := p.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, rc)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

func (c *Client) List(ctx context.Context, email string) ([]domain.Bill, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/bills", url.Values{"email": {email}}), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	var bills []domain.Bill
	if err := c.do(req, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

func (c *Client) Get(ctx context.Context, id string) (*domain.Bill, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/bills/"+url.PathEscape(id), nil), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	var b domain.Bill
	if err := c.do(req, &b); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
