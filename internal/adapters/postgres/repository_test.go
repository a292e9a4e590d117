package postgres_test

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/billed/internal/adapters/objectstore/local"
	"github.com/csg33k/billed/internal/adapters/postgres"
	"github.com/csg33k/billed/internal/domain"
	"github.com/csg33k/billed/internal/ports"
)

// Runs against a real server only when TEST_DATABASE_URL is set.
func TestRepository(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	repo, err := postgres.New(ctx, url, local.New(t.TempDir()))
	require.NoError(t, err)
	defer repo.Close()

	email := "pg-" + t.Name() + "@example.com"
	b, err := repo.Create(ctx, ports.CreateBillRequest{
		Form:  domain.BillForm{Name: "Hôtel", Date: "2004-04-04", Amount: "400"},
		Email: email,
		Proof: &ports.ProofUpload{
			Name: "bill.jpeg",
			Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("\xff\xd8\xff\xe0jpeg")), nil },
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ProofPath(b.ID), b.FileURL)

	got, err := repo.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hôtel", got.Name)
	assert.Equal(t, "image/jpeg", got.ProofType)

	list, err := repo.List(ctx, email)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	_, err = repo.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
