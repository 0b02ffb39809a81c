package core

import (
	"errors"
	"testing"
)

func TestDateKey(t *testing.T) {
	cases := []struct {
		y, m, d Part
		want    string
	}{
		{"2024", "1", "15", "2024-01-15"},
		{"2024", "01", "05", "2024-01-05"},
		{"2024", "12", "31", "2024-12-31"},
		{"", "", "", "0000-00-00"},
		{"abc", "3", "4", "0000-03-04"},
		{"2024", "13", "4", "2024-00-04"},
		{"2024", "0", "32", "2024-00-00"},
		{"2024", "x", "", "2024-00-00"},
		{"24", "1", "1", "0024-01-01"},
		{"999", "6", "30", "0999-06-30"},
		{"10000", "1", "1", "0000-01-01"},
		{"-5", "1", "1", "0000-01-01"},
	}
	for _, tc := range cases {
		if got := DateKey(tc.y, tc.m, tc.d); got != tc.want {
			t.Fatalf("DateKey(%q,%q,%q) = %s, want %s", tc.y, tc.m, tc.d, got, tc.want)
		}
	}
}

func TestBaseValidate(t *testing.T) {
	good := Base{Year: "2024", Month: "2", Day: "29"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	cases := []struct {
		b    Base
		want error
	}{
		{Base{Year: "", Month: "1", Day: "1"}, ErrInvalidYear},
		{Base{Year: "2024", Month: "13", Day: "1"}, ErrInvalidMonth},
		{Base{Year: "2024", Month: "1", Day: "0"}, ErrInvalidDay},
	}
	for i, tc := range cases {
		if err := tc.b.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestDecodeRecords(t *testing.T) {
	raw := []byte(`[
		{"id": 7, "year": 2024, "month": "01", "day": 20, "type": "Fixed", "category": "Rent", "cost": "15000"},
		{"year": "2024", "month": 2, "day": "1", "category": "Food", "cost": null}
	]`)
	s, err := DecodeRecords(KindExpense, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Expense) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(s.Expense))
	}
	if s.Expense[0].ID != 7 || s.Expense[0].Cost.String() != "15000" || s.Expense[0].DateKey() != "2024-01-20" {
		t.Fatalf("unexpected first record: %+v", s.Expense[0])
	}
	if !s.Expense[1].Cost.IsZero() {
		t.Fatalf("expected null cost to decode as zero")
	}
	if s.Has(KindIncome) || !s.Has(KindExpense) {
		t.Fatalf("only the expense collection should be present")
	}

	empty, err := DecodeRecords(KindTax, []byte(`null`))
	if err != nil || !empty.Has(KindTax) || len(empty.Tax) != 0 {
		t.Fatalf("null should decode to a present empty collection: %+v %v", empty, err)
	}

	if _, err := DecodeRecords(Kind("crypto"), []byte(`[]`)); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := DecodeRecords(KindLoan, []byte(`{`)); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestInterestCreditFlagDecodesToBool(t *testing.T) {
	s, err := DecodeRecords(KindInterest, []byte(`[{"year":2024,"month":3,"day":1,"cost_in":120,"credit_in":1}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bool(s.Interest[0].CreditIn) {
		t.Fatalf("expected credit_in=1 to decode as true")
	}
}

func TestSnapshotMerge(t *testing.T) {
	a := Snapshot{Income: []Income{{Name: "a"}}}
	b := Snapshot{Income: []Income{{Name: "b"}}, Tax: []Tax{}}
	m := a.Merge(b)
	if len(m.Income) != 2 || m.Income[1].Name != "b" {
		t.Fatalf("unexpected merged income: %+v", m.Income)
	}
	if !m.Has(KindTax) {
		t.Fatalf("empty tax collection should stay present")
	}
	if m.Has(KindLoan) {
		t.Fatalf("loan collection should stay absent")
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", m.Len())
	}
}

func TestIncomeIsLegacy(t *testing.T) {
	if !(Income{Salary: N(50000)}).IsLegacy() {
		t.Fatalf("salary-only row should be legacy")
	}
	if (Income{Name: "Acme", Amount: N(50000)}).IsLegacy() {
		t.Fatalf("named row should not be legacy")
	}
}

func TestSnapshotValidateRejectsHugeAmounts(t *testing.T) {
	cases := []struct {
		kind Kind
		raw  string
	}{
		{KindExpense, `[{"year":2024,"month":1,"day":1,"cost":"1e200000000"}]`},
		{KindIncome, `[{"year":2024,"month":1,"day":1,"salary":1e20}]`},
		{KindLoan, `[{"year":2024,"month":1,"day":1,"loan_repayment":"5e16"}]`},
		{KindInterest, `[{"year":2024,"month":1,"day":1,"cost_out":-1e18}]`},
	}
	for _, tc := range cases {
		s, err := DecodeRecords(tc.kind, []byte(tc.raw))
		if err != nil {
			t.Fatalf("%s: decode: %v", tc.kind, err)
		}
		if err := s.Validate(); !errors.Is(err, ErrAmountOutOfRange) {
			t.Fatalf("%s: expected ErrAmountOutOfRange, got %v", tc.kind, err)
		}
	}
}
