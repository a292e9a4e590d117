// Package billdate parses and formats the abbreviated French dates shown in
// the bills listing ("4 Avr. 04") and orders bills by them.
package billdate

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/csg33k/billed/internal/domain"
)

const isoLayout = "2006-01-02"

// monthMapping maps a lower-cased month abbreviation to the English
// three-letter form understood by time.Parse. English forms map to themselves
// so ISO-formatted data that went through another formatter still parses.
var monthMapping = map[string]string{
	"jan":  "Jan",
	"fév":  "Feb",
	"mar":  "Mar",
	"avr":  "Apr",
	"mai":  "May",
	"juin": "Jun",
	"juil": "Jul",
	"août": "Aug",
	"sept": "Sep",
	"oct":  "Oct",
	"nov":  "Nov",
	"déc":  "Dec",

	"feb": "Feb",
	"apr": "Apr",
	"may": "May",
	"jun": "Jun",
	"jul": "Jul",
	"aug": "Aug",
	"sep": "Sep",
	"dec": "Dec",
}

// displayMonths is indexed by time.Month.
var displayMonths = [...]string{"", "Jan", "Fév", "Mar", "Avr", "Mai", "Juin", "Juil", "Août", "Sept", "Oct", "Nov", "Déc"}

var localeDate = regexp.MustCompile(`^(\d{1,2}) ([^\s.]+)\.? (\d{2})$`)

// Parse reads either the locale form "D Mon. YY" (year 20YY) or an ISO
// "YYYY-MM-DD" date.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(isoLayout, s); err == nil {
		return t, nil
	}
	m := localeDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("billdate: unrecognised date %q", s)
	}
	month, ok := monthMapping[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}, fmt.Errorf("billdate: unknown month %q", m[2])
	}
	t, err := time.Parse("2 Jan 2006", m[1]+" "+month+" 20"+m[3])
	if err != nil {
		return time.Time{}, fmt.Errorf("billdate: %w", err)
	}
	return t, nil
}

// Format renders t in the listing's locale form, e.g. "4 Avr. 04".
func Format(t time.Time) string {
	return fmt.Sprintf("%d %s. %02d", t.Day(), displayMonths[t.Month()], t.Year()%100)
}

// Display formats an ISO date for the listing. Anything else, including
// dates already in locale form, is returned unchanged.
func Display(s string) string {
	t, err := time.Parse(isoLayout, strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return Format(t)
}

// SortDesc returns a copy of bills ordered newest first. The sort is stable;
// bills whose date does not parse keep their relative order after all dated
// bills.
func SortDesc(bills []domain.Bill) []domain.Bill {
	type keyed struct {
		bill domain.Bill
		at   time.Time
		ok   bool
	}
	ks := make([]keyed, len(bills))
	for i, b := range bills {
		t, err := Parse(b.Date)
		ks[i] = keyed{bill: b, at: t, ok: err == nil}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		switch {
		case a.ok && b.ok:
			return b.at.Compare(a.at)
		case a.ok:
			return -1
		case b.ok:
			return 1
		}
		return 0
	})
	out := make([]domain.Bill, len(ks))
	for i, k := range ks {
		out[i] = k.bill
	}
	return out
}
