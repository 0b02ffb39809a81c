// Package core defines the raw record shapes delivered by the record sources
// and the unified Transaction they are normalized into.
//
// This file holds the tolerant scalar types used on raw records. Upstream
// payloads are loosely typed: date parts arrive as "01" or 1, amounts as
// 1500, "1500.50", null or garbage. The scalars absorb that at decode time
// so nothing past this package ever sees a malformed value.
package core

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Part is a date component or label that may arrive as a JSON string or number.
type Part string

// UnmarshalJSON accepts strings and numbers. Any other JSON value yields an empty Part.
func (p *Part) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = partOf(v)
	return nil
}

// Scan implements sql.Scanner.
func (p *Part) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		*p = Part(strings.TrimSpace(string(v)))
	case int64:
		*p = Part(strconv.FormatInt(v, 10))
	default:
		*p = partOf(v)
	}
	return nil
}

// Value implements driver.Valuer.
func (p Part) Value() (driver.Value, error) {
	return string(p), nil
}

// Int parses the part as an integer.
func (p Part) Int() (int, bool) {
	s := strings.TrimSpace(string(p))
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (p Part) String() string { return string(p) }

func partOf(v any) Part {
	switch v := v.(type) {
	case string:
		return Part(strings.TrimSpace(v))
	case float64:
		return Part(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return ""
	}
}

const (
	// MaxAmountDigits bounds the integer digits of an amount: |amount| < 1e15.
	MaxAmountDigits = 15
	// MaxAmountScale is the number of fractional digits kept.
	MaxAmountScale = 20
)

var ErrAmountOutOfRange = errors.New("amount out of range")

// Number is an amount field. Non-numeric input decodes to zero instead of failing.
// Values at or above 1e15 in magnitude also decode to zero and are flagged
// so ingest can reject them.
type Number struct {
	d        decimal.Decimal
	overflow bool
}

// N builds a Number from a float. NaN and infinities become zero.
func N(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return NumberFrom(decimal.NewFromFloat(v))
}

// NumberFrom wraps a decimal, applying the same bounds as ParseNumber.
func NumberFrom(d decimal.Decimal) Number {
	if d.IsZero() {
		return Number{}
	}
	// Integer digits are computed from the coefficient and exponent so a
	// value like 1e200000000 is never expanded.
	digits := int64(d.NumDigits()) + int64(d.Exponent())
	switch {
	case digits > MaxAmountDigits:
		return Number{overflow: true}
	case digits <= -MaxAmountScale:
		return Number{}
	case d.Exponent() < -MaxAmountScale:
		d = d.Round(MaxAmountScale)
	}
	return Number{d: d}
}

// ParseNumber parses s, returning zero for anything that is not a finite
// number within range.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Number{}
	}
	return NumberFrom(d)
}

// Overflowed reports whether the input was a number too large to keep.
func (n Number) Overflowed() bool { return n.overflow }

// Check returns ErrAmountOutOfRange for an overflowed value.
func (n Number) Check() error {
	if n.overflow {
		return ErrAmountOutOfRange
	}
	return nil
}

// Decimal returns the value as parsed, sign included.
func (n Number) Decimal() decimal.Decimal { return n.d }

// Amount returns the magnitude of the value.
func (n Number) Amount() decimal.Decimal { return n.d.Abs() }

// IsZero reports whether the value is zero.
func (n Number) IsZero() bool { return n.d.IsZero() }

func (n Number) String() string { return n.d.String() }

// UnmarshalJSON never fails: null, empty strings, booleans, objects and
// non-numeric strings all decode to zero.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		s = str
	}
	*n = ParseNumber(s)
	return nil
}

// MarshalJSON writes the value as a bare JSON number.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.d.String()), nil
}

// Scan implements sql.Scanner.
func (n *Number) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n = Number{}
	case string:
		*n = ParseNumber(v)
	case []byte:
		*n = ParseNumber(string(v))
	case int64:
		*n = NumberFrom(decimal.NewFromInt(v))
	case float64:
		*n = N(v)
	default:
		return fmt.Errorf("scan number: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer; amounts are stored as decimal text.
func (n Number) Value() (driver.Value, error) {
	return n.d.String(), nil
}

// Flag is a boolean that travels as 0/1 on the wire.
type Flag bool

// UnmarshalJSON accepts booleans, numbers and the strings "1", "true", "yes".
func (f *Flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case bool:
		*f = Flag(v)
	case float64:
		*f = v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y":
			*f = true
		default:
			*f = false
		}
	default:
		*f = false
	}
	return nil
}

// MarshalJSON writes the flag in its integer encoding.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// Scan implements sql.Scanner.
func (f *Flag) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*f = v != 0
	case bool:
		*f = Flag(v)
	case nil:
		*f = false
	default:
		return fmt.Errorf("scan flag: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (f Flag) Value() (driver.Value, error) {
	if f {
		return int64(1), nil
	}
	return int64(0), nil
}
