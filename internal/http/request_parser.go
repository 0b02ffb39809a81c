package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/sources"
)

var (
	ErrBodyTooLarge = errors.New("request body too large")
	ErrEmptyBody    = errors.New("request body is empty")
	ErrInvalidLimit = errors.New("limit must be a positive integer")
)

// ParseFilterState reads the facet parameters. Multi-valued facets repeat
// their parameter; empty values are ignored.
func ParseFilterState(q url.Values) (ledger.FilterState, error) {
	kind, err := core.ParseKind(q.Get("type"))
	if err != nil {
		return ledger.FilterState{}, err
	}

	f := ledger.FilterState{
		Search:       sanitizeInput(q.Get("search")),
		Kind:         kind,
		Years:        values(q, "year"),
		Months:       values(q, "month"),
		Categories:   values(q, "category"),
		Descriptions: values(q, "description"),
	}
	for _, d := range values(q, "direction") {
		dir, err := core.ParseDirection(d)
		if err != nil {
			return ledger.FilterState{}, err
		}
		f.Directions = append(f.Directions, dir)
	}
	return f, nil
}

// ParseLedgerQuery reads the filter facets and the sort direction.
func ParseLedgerQuery(q url.Values) (ledger.Query, error) {
	f, err := ParseFilterState(q)
	if err != nil {
		return ledger.Query{}, err
	}
	sort, err := ledger.ParseSortDirection(q.Get("sort"))
	if err != nil {
		return ledger.Query{}, err
	}
	return ledger.Query{Filter: f, Sort: sort}, nil
}

// ParseSourceQuery reads the source narrowing. Only the financial year
// narrows at the source so year and month facets still list every option.
func ParseSourceQuery(q url.Values) sources.Query {
	return sources.Query{FinancialYear: sanitizeInput(q.Get("financial_year"))}
}

const (
	defaultBatchLimit = 50
	maxBatchLimit     = 500
)

// ParseLimit reads the limit parameter of list endpoints. It defaults to 50
// and is capped at 500.
func ParseLimit(q url.Values) (int, error) {
	raw := strings.TrimSpace(q.Get("limit"))
	if raw == "" {
		return defaultBatchLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLimit, sanitizeInput(raw))
	}
	return min(n, maxBatchLimit), nil
}

// readBody reads at most limit bytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, maxErr.Limit)
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, ErrEmptyBody
	}
	return body, nil
}

func values(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		if v = sanitizeInput(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
