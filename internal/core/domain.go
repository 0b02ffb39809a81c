package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

type (
	// Base carries the fields every raw record shares.
	Base struct {
		ID            int64 `json:"id,omitempty"`
		FinancialYear Part  `json:"financial_year,omitempty"`
		Year          Part  `json:"year"`
		Month         Part  `json:"month"`
		Day           Part  `json:"day"`
	}

	Income struct {
		Base
		Type   Part   `json:"type"` // income source
		Name   Part   `json:"name"`
		Amount Number `json:"amount"`
		// Legacy schema: rows written before name/amount existed only carry these.
		Salary Number `json:"salary"`
		Tax    Number `json:"tax"`
	}

	Expense struct {
		Base
		Type     Part   `json:"type"`
		Category Part   `json:"category"`
		Cost     Number `json:"cost"`
	}

	Investment struct {
		Base
		Type        Part   `json:"type"`
		FolioNumber Part   `json:"folio_number"`
		Name        Part   `json:"name"`
		TypeOfOrder Part   `json:"type_of_order"` // "Buy" or "Sell"
		Units       Number `json:"units"`
		NAV         Number `json:"nav"`
		Cost        Number `json:"cost"`
	}

	Loan struct {
		Base
		Type          Part   `json:"type"`
		Name          Part   `json:"name"`
		Interest      Number `json:"interest"` // rate
		LoanAmount    Number `json:"loan_amount"`
		LoanRepayment Number `json:"loan_repayment"`
		Cost          Number `json:"cost"`
	}

	Interest struct {
		Base
		Type     Part   `json:"type"`
		Name     Part   `json:"name"`
		CostIn   Number `json:"cost_in"`
		CostOut  Number `json:"cost_out"`
		CreditIn Flag   `json:"credit_in"`
	}

	Tax struct {
		Base
		Type   Part   `json:"type"`
		Name   Part   `json:"name"`
		Amount Number `json:"amount"`
		Refund Number `json:"refund"`
	}

	// Other is a record from a collection whose kind this package does not model.
	Other struct {
		Base
		Kind   string `json:"kind"`
		Type   Part   `json:"type"`
		Name   Part   `json:"name"`
		Amount Number `json:"amount"`
	}

	// Snapshot holds the raw collections as fetched at one moment.
	// A nil slice is an absent collection; an empty one was fetched and had no rows.
	Snapshot struct {
		Income     []Income     `json:"income,omitempty"`
		Expense    []Expense    `json:"expense,omitempty"`
		Investment []Investment `json:"investment,omitempty"`
		Loan       []Loan       `json:"loan,omitempty"`
		Interest   []Interest   `json:"interest,omitempty"`
		Tax        []Tax        `json:"tax,omitempty"`
		Other      []Other      `json:"other,omitempty"`
	}
)

var (
	ErrInvalidYear  = errors.New("invalid year")
	ErrInvalidDay   = errors.New("invalid day")
	ErrInvalidMonth = errors.New("invalid month")
)

// DateKey is the YYYY-MM-DD key of the record.
func (b Base) DateKey() string {
	return DateKey(b.Year, b.Month, b.Day)
}

// Validate checks that all three date parts are present and in range.
func (b Base) Validate() error {
	if y, ok := b.Year.Int(); !ok || y < 1 || y > 9999 {
		return fmt.Errorf("%w: %q", ErrInvalidYear, b.Year)
	}
	if m, ok := b.Month.Int(); !ok || m < 1 || m > 12 {
		return fmt.Errorf("%w: %q", ErrInvalidMonth, b.Month)
	}
	if d, ok := b.Day.Int(); !ok || d < 1 || d > 31 {
		return fmt.Errorf("%w: %q", ErrInvalidDay, b.Day)
	}
	return nil
}

// DateKey zero-pads the parts into YYYY-MM-DD. Missing or out-of-range parts
// become the sentinels 0000, 00 and 00 so the key always has the same shape.
func DateKey(year, month, day Part) string {
	y, ok := year.Int()
	if !ok || y < 0 || y > 9999 {
		y = 0
	}
	m, ok := month.Int()
	if !ok || m < 1 || m > 12 {
		m = 0
	}
	d, ok := day.Int()
	if !ok || d < 1 || d > 31 {
		d = 0
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

// IsLegacy reports whether the row uses the old salary/tax layout.
func (i Income) IsLegacy() bool {
	return i.Name == "" && i.Amount.IsZero() && !i.Salary.IsZero()
}

// Len is the total number of records across all collections.
func (s Snapshot) Len() int {
	return len(s.Income) + len(s.Expense) + len(s.Investment) +
		len(s.Loan) + len(s.Interest) + len(s.Tax) + len(s.Other)
}

// Has reports whether the collection for k was delivered, even if empty.
func (s Snapshot) Has(k Kind) bool {
	switch k {
	case KindIncome:
		return s.Income != nil
	case KindExpense:
		return s.Expense != nil
	case KindInvestment:
		return s.Investment != nil
	case KindLoan:
		return s.Loan != nil
	case KindInterest:
		return s.Interest != nil
	case KindTax:
		return s.Tax != nil
	default:
		return s.Other != nil
	}
}

// Only returns a snapshot holding just the collection for k, copied.
func (s Snapshot) Only(k Kind) Snapshot {
	switch k {
	case KindIncome:
		return Snapshot{Income: clone(s.Income)}
	case KindExpense:
		return Snapshot{Expense: clone(s.Expense)}
	case KindInvestment:
		return Snapshot{Investment: clone(s.Investment)}
	case KindLoan:
		return Snapshot{Loan: clone(s.Loan)}
	case KindInterest:
		return Snapshot{Interest: clone(s.Interest)}
	case KindTax:
		return Snapshot{Tax: clone(s.Tax)}
	default:
		return Snapshot{}
	}
}

// Kinds lists the modelled kinds whose collections are present in s.
func (s Snapshot) Kinds() []Kind {
	var out []Kind
	for _, k := range Kinds {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}

// Merge appends the collections of o to those of s. Collections absent from
// both stay absent.
func (s Snapshot) Merge(o Snapshot) Snapshot {
	return Snapshot{
		Income:     merge(s.Income, o.Income),
		Expense:    merge(s.Expense, o.Expense),
		Investment: merge(s.Investment, o.Investment),
		Loan:       merge(s.Loan, o.Loan),
		Interest:   merge(s.Interest, o.Interest),
		Tax:        merge(s.Tax, o.Tax),
		Other:      merge(s.Other, o.Other),
	}
}

func merge[T any](a, b []T) []T {
	if a == nil && b == nil {
		return nil
	}
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// Validate checks the date and amounts of every record and reports the
// first failure.
func (s Snapshot) Validate() error {
	check := func(k Kind, i int, b Base, amounts ...Number) error {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%s[%d]: %w", k, i, err)
		}
		for _, n := range amounts {
			if err := n.Check(); err != nil {
				return fmt.Errorf("%s[%d]: %w", k, i, err)
			}
		}
		return nil
	}
	for i, r := range s.Income {
		if err := check(KindIncome, i, r.Base, r.Amount, r.Salary, r.Tax); err != nil {
			return err
		}
	}
	for i, r := range s.Expense {
		if err := check(KindExpense, i, r.Base, r.Cost); err != nil {
			return err
		}
	}
	for i, r := range s.Investment {
		if err := check(KindInvestment, i, r.Base, r.Units, r.NAV, r.Cost); err != nil {
			return err
		}
	}
	for i, r := range s.Loan {
		if err := check(KindLoan, i, r.Base, r.Interest, r.LoanAmount, r.LoanRepayment, r.Cost); err != nil {
			return err
		}
	}
	for i, r := range s.Interest {
		if err := check(KindInterest, i, r.Base, r.CostIn, r.CostOut); err != nil {
			return err
		}
	}
	for i, r := range s.Tax {
		if err := check(KindTax, i, r.Base, r.Amount, r.Refund); err != nil {
			return err
		}
	}
	return nil
}

// DecodeRecords decodes a JSON array of raw records of the given kind into a
// snapshot with only that collection populated. A JSON null decodes to an
// empty, present collection.
func DecodeRecords(k Kind, raw []byte) (Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	switch k {
	case KindIncome:
		s.Income, err = decodeSlice[Income](raw)
	case KindExpense:
		s.Expense, err = decodeSlice[Expense](raw)
	case KindInvestment:
		s.Investment, err = decodeSlice[Investment](raw)
	case KindLoan:
		s.Loan, err = decodeSlice[Loan](raw)
	case KindInterest:
		s.Interest, err = decodeSlice[Interest](raw)
	case KindTax:
		s.Tax, err = decodeSlice[Tax](raw)
	default:
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode %s records: %w", k, err)
	}
	return s, nil
}

func decodeSlice[T any](raw []byte) ([]T, error) {
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
