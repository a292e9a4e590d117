package objectstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/csg33k/billed/internal/ports"
)

// SaveUpload opens the proof of a create request and copies it into store,
// returning its key and sniffed media type. A nil upload is not an error and
// yields an empty key.
func SaveUpload(ctx context.Context, store ports.ProofStore, owner string, up *ports.ProofUpload) (string, string, error) {
	if up == nil || up.Open == nil {
		return "", "", nil
	}
	rc, err := up.Open()
	if err != nil {
		return "", "", fmt.Errorf("open proof %q: %w", up.Name, err)
	}
	defer rc.Close()
	key, _, mimeType, err := store.Save(ctx, owner, up.Name, rc)
	if err != nil {
		return "", "", fmt.Errorf("save proof %q: %w", up.Name, err)
	}
	return key, mimeType, nil
}

// Discard removes a proof whose bill could not be written. It runs even when
// ctx is already cancelled.
func Discard(ctx context.Context, store ports.ProofStore, key string) {
	if key == "" {
		return
	}
	if err := store.Delete(context.WithoutCancel(ctx), key); err != nil {
		slog.Warn("discard orphaned proof", "key", key, "err", err)
	}
}
