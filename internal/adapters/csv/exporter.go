// Package csv exports an employee's bills as a spreadsheet-friendly CSV file.
package csv

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/csg33k/billed/internal/billdate"
	"github.com/csg33k/billed/internal/domain"
	"github.com/csg33k/billed/internal/ports"
)

var _ ports.Exporter = Exporter{}

var header = []string{"id", "type", "name", "date", "amount", "vat", "pct", "commentary", "status", "fileName", "fileUrl"}

type Exporter struct{}

func (Exporter) ContentType() string { return "text/csv; charset=utf-8" }
func (Exporter) Extension() string   { return "csv" }

// Generate writes one row per bill, newest first. Dates are written in
// display form so the file reads like the listing.
func (Exporter) Generate(ctx context.Context, _ string, bills []domain.Bill, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, b := range billdate.SortDesc(bills) {
		err := cw.Write([]string{
			b.ID, b.Type, b.Name, billdate.Display(b.Date),
			b.Amount, b.VAT, b.Pct, b.Commentary,
			b.Status.Label(), b.FileName, b.FileURL,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
