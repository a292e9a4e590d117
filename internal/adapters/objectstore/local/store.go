// Package local stores proof files on the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/csg33k/billed/internal/adapters/objectstore"
	"github.com/csg33k/billed/internal/ports"
)

var _ ports.ProofStore = (*Store)(nil)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Save writes r under the owner's directory and sniffs its content type from
// the first 512 bytes.
func (s *Store) Save(ctx context.Context, owner string, fileName string, r io.Reader) (string, int64, string, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, "", err
	}
	key, err := objectstore.NewKey(owner, fileName)
	if err != nil {
		return "", 0, "", fmt.Errorf("proof key: %w", err)
	}

	full := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, "", fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, "", fmt.Errorf("create proof: %w", err)
	}

	size, mimeType, err := write(f, r)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close proof: %w", cerr)
	}
	if err != nil {
		os.Remove(full)
		return "", 0, "", err
	}
	return key, size, mimeType, nil
}

// write copies r into f, sniffing the content type from the first 512 bytes.
func write(f *os.File, r io.Reader) (int64, string, error) {
	var sniff [512]byte
	n, err := io.ReadFull(r, sniff[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, "", fmt.Errorf("read proof: %w", err)
	}
	mimeType := http.DetectContentType(sniff[:n])
	if _, err := f.Write(sniff[:n]); err != nil {
		return 0, "", fmt.Errorf("write proof: %w", err)
	}
	rest, err := io.Copy(f, r)
	if err != nil {
		return 0, "", fmt.Errorf("write proof: %w", err)
	}
	return int64(n) + rest, mimeType, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := objectstore.CheckKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.baseDir, filepath.FromSlash(clean)))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := objectstore.CheckKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
