package csv_test

import (
	"bytes"
	"context"
	stdcsv "encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/billed/internal/adapters/csv"
	"github.com/csg33k/billed/internal/domain"
)

func TestExporter_Generate(t *testing.T) {
	bills := []domain.Bill{
		{ID: "old", Name: "janvier", Date: "1 Jan. 04", Amount: "10", Status: domain.BillStatusPending},
		{ID: "new", Name: "avril, \"quoted\"", Date: "2004-04-04", Amount: "20", Status: domain.BillStatusAccepted, FileName: "a.jpg", FileURL: "/bills/new/proof"},
	}

	var buf bytes.Buffer
	require.NoError(t, csv.Exporter{}.Generate(context.Background(), "a@a", bills, &buf))

	records, err := stdcsv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "id", records[0][0])

	assert.Equal(t, "new", records[1][0])
	assert.Equal(t, "avril, \"quoted\"", records[1][2])
	assert.Equal(t, "4 Avr. 04", records[1][3])
	assert.Equal(t, "Accepté", records[1][8])
	assert.Equal(t, "/bills/new/proof", records[1][10])

	assert.Equal(t, "old", records[2][0])
	assert.Equal(t, "En attente", records[2][8])
}

func TestExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, csv.Exporter{}.Generate(context.Background(), "a@a", nil, &buf))
	assert.Equal(t, "id,type,name,date,amount,vat,pct,commentary,status,fileName,fileUrl\n", buf.String())
}

func TestExporter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	assert.ErrorIs(t, csv.Exporter{}.Generate(ctx, "a@a", nil, &buf), context.Canceled)
}
