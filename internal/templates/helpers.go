package templates

import (
	"context"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/csg33k/billed/internal/domain"
)

var funcs = template.FuncMap{
	"euros":       euros,
	"statusClass": statusClass,
}

// euros appends the currency sign to an amount exactly as it was typed.
func euros(amount string) string {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return "0 €"
	}
	return amount + " €"
}

func statusClass(s domain.BillStatus) string {
	switch s {
	case domain.BillStatusPending, domain.BillStatusAccepted, domain.BillStatusRefused:
		return "status-" + string(s)
	default:
		return "status-unknown"
	}
}

// component adapts a named html/template to templ.Component.
func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return tmpl.ExecuteTemplate(w, name, data)
	})
}

// RenderString renders c to a string.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
