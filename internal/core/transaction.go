package core

import "github.com/shopspring/decimal"

// Transaction is one financial event in the unified ledger. Amount is never
// negative; the sign lives in Direction.
type Transaction struct {
	ID          int64           `json:"id"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        Kind            `json:"type"`
	Direction   Direction       `json:"direction"`
}

// Year returns the YYYY part of the date.
func (t Transaction) Year() string {
	if len(t.Date) < 4 {
		return ""
	}
	return t.Date[:4]
}

// Month returns the two-digit month of the date.
func (t Transaction) Month() string {
	if len(t.Date) < 7 {
		return ""
	}
	return t.Date[5:7]
}

// YearMonth returns YYYY-MM.
func (t Transaction) YearMonth() string {
	if len(t.Date) < 7 {
		return ""
	}
	return t.Date[:7]
}

// Signed returns the amount with inflows positive and outflows negative.
func (t Transaction) Signed() decimal.Decimal {
	if t.Direction == Up {
		return t.Amount
	}
	return t.Amount.Neg()
}
