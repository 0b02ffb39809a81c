package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	KindAll        Kind = "all"
	KindIncome     Kind = "income"
	KindExpense    Kind = "expense"
	KindInvestment Kind = "investment"
	KindLoan       Kind = "loan"
	KindInterest   Kind = "interest"
	KindTax        Kind = "tax"
)

const (
	Up   Direction = "up"
	Down Direction = "down"
)

type (
	// Kind is the source record type a transaction was built from.
	Kind string

	// Direction is the cash-flow sign relative to the user: Up is an inflow, Down an outflow.
	Direction string
)

var (
	ErrUnknownKind      = errors.New("unknown transaction type")
	ErrUnknownDirection = errors.New("unknown direction")
)

// Kinds lists the six record kinds in ledger order.
var Kinds = []Kind{KindIncome, KindExpense, KindInvestment, KindLoan, KindInterest, KindTax}

// ParseKind maps user input to a Kind. Empty input and "all" yield KindAll.
// "invest" is accepted as an alias of investment.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", string(KindAll):
		return KindAll, nil
	case "invest":
		return KindInvestment, nil
	}
	k := Kind(s)
	if !k.IsKnown() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// IsKnown reports whether k is one of the six record kinds.
func (k Kind) IsKnown() bool {
	return k.Order() < len(Kinds)
}

// Order is the position of k in Kinds; unknown kinds sort last.
func (k Kind) Order() int {
	for i, known := range Kinds {
		if k == known {
			return i
		}
	}
	return len(Kinds)
}

// Title returns the display label of the kind ("Income", "Expense", ...).
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

func (k Kind) String() string { return string(k) }

// DirectionFor is the direction of a kind when no kind-specific field decides it.
// Income is an inflow; everything else, including kinds this package does not
// know about, is treated as an outflow.
func DirectionFor(k Kind) Direction {
	if k == KindIncome {
		return Up
	}
	return Down
}

// ParseDirection maps "up"/"down" (any case) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}

func (d Direction) String() string { return string(d) }
