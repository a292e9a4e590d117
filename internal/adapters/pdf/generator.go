// Package pdf renders an employee's expense reports as a printable PDF
// statement: a header block, one table row per bill (newest first) and a
// footer totalling every amount that parses as a number.
package pdf

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/csg33k/billed/internal/billdate"
	"github.com/csg33k/billed/internal/domain"
	"github.com/csg33k/billed/internal/ports"
)

var _ ports.Exporter = Generator{}

type Generator struct {
	// Now is used for the "generated on" line. Defaults to time.Now.
	Now func() time.Time
}

func (Generator) ContentType() string { return "application/pdf" }
func (Generator) Extension() string   { return "pdf" }

// Generate writes the statement for owner to w.
func (g Generator) Generate(ctx context.Context, owner string, bills []domain.Bill, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("{nb}")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 7.5)
		pdf.SetTextColor(130, 130, 130)
		pdf.CellFormat(0, 5, tr("Billed · "+owner+" · page ")+strconv.Itoa(pdf.PageNo())+"/{nb}", "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	drawHeader(pdf, tr, owner, now())
	total, skipped := drawTable(pdf, tr, billdate.SortDesc(bills))
	drawTotal(pdf, tr, total, skipped)

	return pdf.Output(w)
}

func drawHeader(pdf *fpdf.Fpdf, tr func(string) string, owner string, at time.Time) {
	pageW, _ := pdf.GetPageSize()
	marginL, marginT, marginR, _ := pdf.GetMargins()
	contentW := pageW - marginL - marginR

	// ── Header bar ───────────────────────────────────────────────────────────
	pdf.SetFillColor(14, 90, 229)
	pdf.Rect(marginL, marginT, contentW, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(marginL+2, marginT+1.5)
	pdf.CellFormat(contentW-4, 7, tr("MES NOTES DE FRAIS"), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(marginL, marginT+12)
	pdf.CellFormat(contentW/2, 6, tr("Employé : "+owner), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 6, tr("Édité le "+billdate.Format(at)), "", 1, "R", false, 0, "")
	pdf.Ln(3)
}

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Type", 0.20, "L"},
	{"Nom", 0.30, "L"},
	{"Date", 0.12, "C"},
	{"Montant", 0.13, "R"},
	{"Statut", 0.12, "C"},
	{"Justificatif", 0.13, "L"},
}

func drawTable(pdf *fpdf.Fpdf, tr func(string) string, bills []domain.Bill) (decimal.Decimal, int) {
	pageW, _ := pdf.GetPageSize()
	marginL, _, marginR, _ := pdf.GetMargins()
	contentW := pageW - marginL - marginR

	header := func() {
		pdf.SetFillColor(30, 30, 30)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 8.5)
		for _, c := range columns {
			pdf.CellFormat(contentW*c.width, 7, tr(c.title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
	}
	header()

	total := decimal.Zero
	skipped := 0
	rowH := 6.5
	_, pageH := pdf.GetPageSize()
	for i, b := range bills {
		if pdf.GetY()+rowH > pageH-20 {
			pdf.AddPage()
			header()
		}
		if i%2 == 0 {
			pdf.SetFillColor(248, 248, 252)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.SetFont("Helvetica", "", 8.5)
		cells := []string{
			b.Type,
			b.Name,
			billdate.Display(b.Date),
			strings.TrimSpace(b.Amount) + " €",
			b.Status.Label(),
			b.FileName,
		}
		for j, c := range columns {
			pdf.CellFormat(contentW*c.width, rowH, tr(cells[j]), "1", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)

		if amt, ok := parseAmount(b.Amount); ok {
			total = total.Add(amt)
		} else {
			skipped++
		}
	}
	return total, skipped
}

func drawTotal(pdf *fpdf.Fpdf, tr func(string) string, total decimal.Decimal, skipped int) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 7, tr("Total : "+total.StringFixed(2)+" €"), "", 1, "R", false, 0, "")
	if skipped > 0 {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, tr(strconv.Itoa(skipped)+" montant(s) non numérique(s) exclu(s) du total"), "", 1, "R", false, 0, "")
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// parseAmount accepts "348", "348.50" and "348,50".
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
