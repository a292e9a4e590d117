package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/csg33k/billed/internal/billdate"
	"github.com/csg33k/billed/internal/domain"
)

// BillsTablePath is fetched by the loading placeholder.
const BillsTablePath = "/employee/bills/table"

type billRow struct {
	ID      string
	Type    string
	Name    string
	Date    string
	Amount  string
	Status  domain.BillStatus
	FileURL string
}

func rows(bills []domain.Bill) []billRow {
	sorted := billdate.SortDesc(bills)
	out := make([]billRow, 0, len(sorted))
	for _, b := range sorted {
		out = append(out, billRow{
			ID:      b.ID,
			Type:    b.Type,
			Name:    b.Name,
			Date:    billdate.Display(b.Date),
			Amount:  b.Amount,
			Status:  b.Status,
			FileURL: b.FileURL,
		})
	}
	return out
}

// Bills renders the bills listing for a load state: the loading placeholder
// while loading, the error page when Error is set, otherwise the table with
// bills newest first.
func Bills(state domain.ListingState) templ.Component {
	switch {
	case state.Loading:
		return LoadingPage()
	case state.Error != "":
		return ErrorPage(state.Error)
	}
	return component("bills", rows(state.Data))
}

// LoadingPage is the placeholder that fetches the table fragment once shown.
func LoadingPage() templ.Component {
	return component("loading", BillsTablePath)
}

// ErrorPage shows msg verbatim.
func ErrorPage(msg string) templ.Component {
	return component("error", msg)
}

// Page wraps body in the HTML document chrome.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html, err := templ.ToGoHTML(ctx, body)
		if err != nil {
			return err
		}
		return tmpl.ExecuteTemplate(w, "layout", struct {
			Title string
			Body  any
		}{Title: title, Body: html})
	})
}
