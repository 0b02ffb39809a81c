package ledger

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"fintrack/internal/core"
)

// SortDirection is the state of the date sort control.
type SortDirection int

const (
	// SortNone is the initial state; it orders newest first.
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

var ErrUnknownSort = errors.New("unknown sort direction")

// Toggle advances the control: none -> asc -> desc -> none.
func (d SortDirection) Toggle() SortDirection {
	switch d {
	case SortNone:
		return SortAsc
	case SortAsc:
		return SortDesc
	default:
		return SortNone
	}
}

func (d SortDirection) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	default:
		return ""
	}
}

// ParseSortDirection maps "", "asc" and "desc" (any case) to a SortDirection.
// "none" is accepted as an alias of the empty string.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "asc":
		return SortAsc, nil
	case "desc":
		return SortDesc, nil
	default:
		return SortNone, fmt.Errorf("%w: %q", ErrUnknownSort, s)
	}
}

// Sort returns a copy of txs ordered by date. Equal dates fall back to kind
// order and then ID, ascending, so the result is deterministic.
func Sort(txs []core.Transaction, d SortDirection) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		c := strings.Compare(a.Date, b.Date)
		if d != SortAsc {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c := cmp.Compare(a.Kind.Order(), b.Kind.Order()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
