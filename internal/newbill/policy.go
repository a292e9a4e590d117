package newbill

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultProofTypes is the allow-list used when PROOF_TYPES is unset.
var DefaultProofTypes = []string{"image/jpeg", "image/jpg", "image/png", "application/pdf"}

// ProofPolicy is an allow-list of MIME types accepted as proof. The zero
// value accepts any type.
type ProofPolicy struct {
	allowed map[string]struct{}
}

// NewProofPolicy returns a policy accepting exactly the given types. With no
// types, every file is accepted.
func NewProofPolicy(types ...string) ProofPolicy {
	p := ProofPolicy{}
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if t == "*" || t == "*/*" {
			return ProofPolicy{}
		}
		if p.allowed == nil {
			p.allowed = make(map[string]struct{})
		}
		p.allowed[t] = struct{}{}
	}
	return p
}

// ParseProofPolicy reads a comma separated list such as
// "image/png,application/pdf". An empty string yields the default policy and
// "*" accepts anything.
func ParseProofPolicy(s string) ProofPolicy {
	if strings.TrimSpace(s) == "" {
		return NewProofPolicy(DefaultProofTypes...)
	}
	return NewProofPolicy(strings.Split(s, ",")...)
}

// AcceptsAny reports whether the policy has no allow-list.
func (p ProofPolicy) AcceptsAny() bool { return len(p.allowed) == 0 }

// Allows reports whether a file of the given media type may be attached.
func (p ProofPolicy) Allows(contentType string) bool {
	if p.AcceptsAny() {
		return true
	}
	_, ok := p.allowed[strings.ToLower(contentType)]
	return ok
}

// Types returns the allow-list, sorted. Empty when any type is accepted.
func (p ProofPolicy) Types() []string {
	out := make([]string, 0, len(p.allowed))
	for t := range p.allowed {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Accept returns the value for an <input type="file" accept="..."> attribute.
func (p ProofPolicy) Accept() string {
	return strings.Join(p.Types(), ",")
}

// detectContentType resolves the media type of an uploaded file from the
// part header, falling back to the file extension when the browser sent
// nothing useful.
func detectContentType(header, fileName string) string {
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil && mt != "application/octet-stream" {
			return strings.ToLower(mt)
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	return "application/octet-stream"
}

// sniffContentType reads the first 512 bytes of the upload and returns the
// media type they look like, without parameters.
func sniffContentType(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open proof: %w", err)
	}
	defer f.Close()
	var head [512]byte
	n, err := io.ReadFull(f, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("read proof: %w", err)
	}
	mt, _, err := mime.ParseMediaType(http.DetectContentType(head[:n]))
	if err != nil {
		return "application/octet-stream", nil
	}
	return mt, nil
}
