package core

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no display currency is configured.
const DefaultCurrency = "INR"

// FormatAmount renders d in the given ISO 4217 currency, for example
// "₹15,000.00" for INR. Amounts are rounded to the currency's minor unit.
// Unknown codes fall back to a plain two-decimal rendering followed by the code.
func FormatAmount(d decimal.Decimal, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	if money.GetCurrency(code) == nil {
		return d.StringFixed(2) + " " + code
	}
	// money.New is the only way to get a currency with its formatter filled in
	cur := *money.New(0, code).Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// KnownCurrency reports whether code is an ISO 4217 code known to the formatter.
func KnownCurrency(code string) bool {
	return money.GetCurrency(strings.ToUpper(strings.TrimSpace(code))) != nil
}
