package ledger

import (
	"fmt"
	"slices"
	"strings"

	"fintrack/internal/core"
)

// FilterState is the set of active facets. All facets are ANDed together and
// a zero value constrains nothing.
type FilterState struct {
	Search       string
	Kind         core.Kind
	Years        []string
	Months       []string // "01".."12"; single digits are padded
	Categories   []string // substring match, case-insensitive
	Descriptions []string // substring match, case-insensitive
	Directions   []core.Direction
}

// Active reports whether any facet constrains the ledger.
func (f FilterState) Active() bool {
	return strings.TrimSpace(f.Search) != "" ||
		(f.Kind != "" && f.Kind != core.KindAll) ||
		len(f.Years) > 0 || len(f.Months) > 0 ||
		len(f.Categories) > 0 || len(f.Descriptions) > 0 ||
		len(f.Directions) > 0
}

// Filter returns the transactions that satisfy every active facet of f.
// The input is left untouched.
func Filter(txs []core.Transaction, f FilterState) []core.Transaction {
	m := newMatcher(f)
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if m.match(t) {
			out = append(out, t)
		}
	}
	return out
}

type matcher struct {
	search       string
	kind         core.Kind
	years        map[string]struct{}
	months       map[string]struct{}
	categories   []string
	descriptions []string
	directions   []core.Direction
}

func newMatcher(f FilterState) matcher {
	m := matcher{
		search:       strings.ToLower(strings.TrimSpace(f.Search)),
		categories:   lowerAll(f.Categories),
		descriptions: lowerAll(f.Descriptions),
		directions:   f.Directions,
	}
	if f.Kind != core.KindAll {
		m.kind = f.Kind
	}
	if len(f.Years) > 0 {
		m.years = make(map[string]struct{}, len(f.Years))
		for _, y := range f.Years {
			m.years[strings.TrimSpace(y)] = struct{}{}
		}
	}
	if len(f.Months) > 0 {
		m.months = make(map[string]struct{}, len(f.Months))
		for _, mo := range f.Months {
			m.months[PadMonth(mo)] = struct{}{}
		}
	}
	return m
}

func (m matcher) match(t core.Transaction) bool {
	if m.search != "" &&
		!strings.Contains(strings.ToLower(t.Description), m.search) &&
		!strings.Contains(strings.ToLower(t.Category), m.search) {
		return false
	}
	if m.kind != "" && t.Kind != m.kind {
		return false
	}
	if m.years != nil {
		if _, ok := m.years[t.Year()]; !ok {
			return false
		}
	}
	if m.months != nil {
		if _, ok := m.months[t.Month()]; !ok {
			return false
		}
	}
	if len(m.categories) > 0 && !containsAny(t.Category, m.categories) {
		return false
	}
	if len(m.descriptions) > 0 && !containsAny(t.Description, m.descriptions) {
		return false
	}
	if len(m.directions) > 0 && !slices.Contains(m.directions, t.Direction) {
		return false
	}
	return true
}

// PadMonth turns "3" into "03". Values that are not a month number are
// returned trimmed but otherwise unchanged.
func PadMonth(s string) string {
	s = strings.TrimSpace(s)
	n, ok := core.Part(s).Int()
	if !ok || n < 1 || n > 12 {
		return s
	}
	return fmt.Sprintf("%02d", n)
}

func containsAny(value string, needles []string) bool {
	v := strings.ToLower(value)
	for _, n := range needles {
		if strings.Contains(v, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
