package billdate_test

import (
	"testing"
	"time"

	"github.com/csg33k/billed/internal/billdate"
	"github.com/csg33k/billed/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"4 Avr. 04", date(2004, time.April, 4)},
		{"1 Jan. 04", date(2004, time.January, 1)},
		{"12 Fév. 21", date(2021, time.February, 12)},
		{"03 Mai 22", date(2022, time.May, 3)},
		{"15 Juin. 19", date(2019, time.June, 15)},
		{"15 Juil. 19", date(2019, time.July, 15)},
		{"20 Août. 20", date(2020, time.August, 20)},
		{"9 Sept. 23", date(2023, time.September, 9)},
		{"31 Déc. 99", date(2099, time.December, 31)},
		{"31 déc. 01", date(2001, time.December, 31)},
		{"2 Apr 04", date(2004, time.April, 2)},
		{"2004-04-04", date(2004, time.April, 4)},
		{"  2001-01-01 ", date(2001, time.January, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := billdate.Parse(tc.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tc.in, err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []string{"", "hello", "4 Foo. 04", "32 Jan. 04", "4 Avr. 2004", "Avr. 04"} {
		if _, err := billdate.Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		d := date(2004, m, 7)
		s := billdate.Format(d)
		got, err := billdate.Parse(s)
		if err != nil {
			t.Fatalf("Parse(Format(%v)) = %q: %v", d, s, err)
		}
		if !got.Equal(d) {
			t.Errorf("round trip %q: got %v, want %v", s, got, d)
		}
	}
	if got := billdate.Format(date(2004, time.April, 4)); got != "4 Avr. 04" {
		t.Errorf("Format = %q, want %q", got, "4 Avr. 04")
	}
}

func TestDisplay(t *testing.T) {
	if got := billdate.Display("2001-01-01"); got != "1 Jan. 01" {
		t.Errorf("Display ISO = %q", got)
	}
	if got := billdate.Display("4 Avr. 04"); got != "4 Avr. 04" {
		t.Errorf("Display locale = %q", got)
	}
	if got := billdate.Display("n/a"); got != "n/a" {
		t.Errorf("Display garbage = %q", got)
	}
}

func TestSortDesc(t *testing.T) {
	in := []domain.Bill{
		{ID: "jan", Date: "1 Jan. 04"},
		{ID: "apr", Date: "4 Avr. 04"},
		{ID: "bad", Date: "someday"},
		{ID: "iso", Date: "2003-12-31"},
		{ID: "mar", Date: "15 Mar. 04"},
	}
	got := billdate.SortDesc(in)

	want := []string{"apr", "mar", "jan", "iso", "bad"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
	if in[0].ID != "jan" {
		t.Error("SortDesc must not reorder its input")
	}
}

func TestSortDesc_StableForEqualDates(t *testing.T) {
	in := []domain.Bill{
		{ID: "a", Date: "4 Avr. 04"},
		{ID: "b", Date: "2004-04-04"},
		{ID: "c", Date: "4 Avr. 04"},
	}
	got := billdate.SortDesc(in)
	for i, id := range []string{"a", "b", "c"} {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestSortDesc_Empty(t *testing.T) {
	if got := billdate.SortDesc(nil); len(got) != 0 {
		t.Errorf("SortDesc(nil) = %v", got)
	}
}
