package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateScanAndJSON(t *testing.T) {
	want := NewDate(2024, 3, 15)
	for _, src := range []any{
		"2024-03-15",
		[]byte("2024-03-15"),
		"2024-03-15T00:00:00Z",
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	} {
		var d Date
		if err := d.Scan(src); err != nil {
			t.Fatalf("scan %v: %v", src, err)
		}
		if !d.Equal(want.Time) {
			t.Fatalf("scan %v: got %s", src, d)
		}
	}

	var d Date
	if err := d.UnmarshalJSON([]byte(`"2024-03-15T10:30:00Z"`)); err != nil {
		t.Fatalf("unmarshal timestamp: %v", err)
	}
	if d.String() != "2024-03-15" {
		t.Fatalf("expected calendar date, got %s", d)
	}
	if err := d.UnmarshalJSON([]byte(`"15/03/2024"`)); err == nil {
		t.Fatalf("expected error for bad layout")
	}
}

func TestMonthBounds(t *testing.T) {
	cases := []struct {
		year, month int
		first, last string
	}{
		{2024, 12, "2024-12-01", "2024-12-31"},
		{2024, 2, "2024-02-01", "2024-02-29"},
		{2023, 2, "2023-02-01", "2023-02-28"},
		{9999, 12, "9999-12-01", "9999-12-31"},
		{1, 1, "0001-01-01", "0001-01-31"},
	}
	for _, c := range cases {
		first, last := MonthBounds(c.year, c.month)
		if first.String() != c.first || last.String() != c.last {
			t.Fatalf("MonthBounds(%d, %d) = %s..%s, want %s..%s", c.year, c.month, first, last, c.first, c.last)
		}
	}
	if y, m := (Transaction{OccurredOn: NewDate(2024, 2, 29)}).Month(); y != 2024 || m != 2 {
		t.Fatalf("leap day grouped under %d-%02d, want 2024-02", y, m)
	}
}

func TestValidateYearMonth(t *testing.T) {
	if err := ValidateYearMonth(2024, 3); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, ym := range [][2]int{{2024, 0}, {2024, 13}, {0, 5}, {10000, 1}} {
		if err := ValidateYearMonth(ym[0], ym[1]); !errors.Is(err, ErrValidation) {
			t.Fatalf("%v: expected validation error, got %v", ym, err)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Fatalf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("transfer"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestNewTransactionValidate(t *testing.T) {
	good := NewTransaction{
		Kind:       KindExpense,
		Category:   "rent",
		Amount:     Money{Cents: 50000},
		OccurredOn: NewDate(2024, 3, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		mutate func(*NewTransaction)
		want   error
	}{
		{func(n *NewTransaction) { n.Kind = "bogus" }, ErrInvalidKind},
		{func(n *NewTransaction) { n.Category = "  " }, ErrEmptyCategory},
		{func(n *NewTransaction) { n.Category = strings.Repeat("x", 101) }, ErrCategoryTooLong},
		{func(n *NewTransaction) { n.Amount = Money{} }, ErrInvalidAmount},
		{func(n *NewTransaction) { n.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{func(n *NewTransaction) { n.OccurredOn = Date{} }, ErrInvalidDate},
	}
	for i, tc := range bads {
		n := good
		tc.mutate(&n)
		err := n.Validate()
		if !errors.Is(err, tc.want) || !IsValidation(err) {
			t.Fatalf("case %d expected validation error %v, got %v", i, tc.want, err)
		}
	}
}

func TestNewTransactionNormalize(t *testing.T) {
	blank := "   "
	n := NewTransaction{Category: "  food ", Note: &blank}.Normalize()
	if n.Category != "food" {
		t.Fatalf("category not trimmed: %q", n.Category)
	}
	if n.Note != nil {
		t.Fatalf("blank note should become absent")
	}
}

func TestNewUserValidate(t *testing.T) {
	good := NewUser{Name: "Ann", Email: " Ann@Example.com ", Role: RoleUser}.Normalize()
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if good.Email != "ann@example.com" {
		t.Fatalf("email not normalized: %q", good.Email)
	}
	if got := (NewUser{Name: "B", Email: "b@example.com"}).Normalize(); got.Role != RoleUser {
		t.Fatalf("expected default role user, got %q", got.Role)
	}

	bads := []NewUser{
		{Name: "", Email: "a@example.com", Role: RoleUser},
		{Name: "A", Email: "not-an-email", Role: RoleUser},
		{Name: "A", Email: "a@example", Role: RoleUser},
		{Name: "A", Email: "a@example.com", Role: "root"},
	}
	for i, u := range bads {
		if err := u.Validate(); !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}
