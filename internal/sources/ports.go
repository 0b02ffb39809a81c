// Package sources defines where raw record collections come from and how a
// full snapshot is fetched from them.
package sources

import (
	"context"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Ports for record backends.
type (
	// RecordSource returns one collection. The snapshot it returns has only
	// the requested kind populated.
	RecordSource interface {
		Fetch(ctx context.Context, kind core.Kind, q Query) (core.Snapshot, error)
	}

	// OtherSource is implemented by backends that also hold collections of
	// kinds the ledger does not model.
	OtherSource interface {
		FetchOther(ctx context.Context, q Query) ([]core.Other, error)
	}

	// RecordAppender stores raw records and reports how many were written.
	RecordAppender interface {
		AppendRecords(ctx context.Context, s core.Snapshot) (int, error)
	}

	// Pinger reports whether a backend is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// BatchStore writes a batch at most once per batch id and remembers it.
	BatchStore interface {
		StoreBatch(ctx context.Context, id string, kind core.Kind, s core.Snapshot) (stored int, duplicate bool, err error)
	}

	// BatchLister lists remembered batches, newest first.
	BatchLister interface {
		ListBatches(ctx context.Context, limit int) ([]Batch, error)
	}
)

// Batch is one ingested record batch.
type Batch struct {
	ID         string    `json:"id"`
	Kind       core.Kind `json:"kind"`
	Records    int       `json:"records"`
	ReceivedAt time.Time `json:"received_at"`
}

// Query narrows a fetch at the source. Empty fields do not constrain.
type Query struct {
	Year          string
	Month         string
	FinancialYear string
}

// Key identifies the query in caches.
func (q Query) Key() string {
	return strings.TrimSpace(q.Year) + "|" + padMonth(q.Month) + "|" + strings.TrimSpace(q.FinancialYear)
}

// IsZero reports whether the query constrains nothing.
func (q Query) IsZero() bool {
	return strings.TrimSpace(q.Year) == "" && strings.TrimSpace(q.Month) == "" && strings.TrimSpace(q.FinancialYear) == ""
}

// Match reports whether b falls inside the query. Numeric parts are compared
// by value, so "3" matches "03".
func (q Query) Match(b core.Base) bool {
	if !partMatches(q.Year, b.Year) || !partMatches(q.Month, b.Month) {
		return false
	}
	if fy := strings.TrimSpace(q.FinancialYear); fy != "" &&
		!strings.EqualFold(fy, strings.TrimSpace(b.FinancialYear.String())) {
		return false
	}
	return true
}

// Apply keeps the records of s that match q. Absent collections stay absent.
func (q Query) Apply(s core.Snapshot) core.Snapshot {
	if q.IsZero() {
		return s
	}
	return core.Snapshot{
		Income:     keep(s.Income, q, func(r core.Income) core.Base { return r.Base }),
		Expense:    keep(s.Expense, q, func(r core.Expense) core.Base { return r.Base }),
		Investment: keep(s.Investment, q, func(r core.Investment) core.Base { return r.Base }),
		Loan:       keep(s.Loan, q, func(r core.Loan) core.Base { return r.Base }),
		Interest:   keep(s.Interest, q, func(r core.Interest) core.Base { return r.Base }),
		Tax:        keep(s.Tax, q, func(r core.Tax) core.Base { return r.Base }),
		Other:      keep(s.Other, q, func(r core.Other) core.Base { return r.Base }),
	}
}

func keep[T any](in []T, q Query, base func(T) core.Base) []T {
	if in == nil {
		return nil
	}
	out := make([]T, 0, len(in))
	for _, r := range in {
		if q.Match(base(r)) {
			out = append(out, r)
		}
	}
	return out
}

func partMatches(want string, got core.Part) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	w, wok := core.Part(want).Int()
	g, gok := got.Int()
	if wok && gok {
		return w == g
	}
	return strings.EqualFold(want, got.String())
}

func padMonth(s string) string {
	s = strings.TrimSpace(s)
	if n, ok := core.Part(s).Int(); ok && n >= 1 && n <= 9 && len(s) == 1 {
		return "0" + s
	}
	return s
}
