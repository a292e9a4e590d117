// Package objectstore holds the key scheme shared by the proof file stores.
// Keys look like "<sha256(owner)>/<uuid>_<file name>".
package objectstore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidKey      = errors.New("invalid storage key")
	ErrInvalidFileName = errors.New("invalid file name")
)

// SanitizeFileName keeps the last path element of name, whatever separator
// the client used. Dots inside a name ("facture..pdf") are fine.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := path.Base(s)
	switch base {
	case "", ".", "..", "/":
		return "", ErrInvalidFileName
	}
	return base, nil
}

// OwnerDir returns a path-safe directory name for an owner email.
func OwnerDir(owner string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(owner))))
	return hex.EncodeToString(sum[:])
}

// NewKey builds a fresh storage key for fileName owned by owner.
func NewKey(owner, fileName string) (string, error) {
	clean, err := SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(OwnerDir(owner), uuid.NewString()+"_"+clean), nil
}

// CheckKey rejects absolute keys and keys escaping the store root.
func CheckKey(key string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	if clean == "." || strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
