package ledger

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Stats summarizes a list of transactions. Averages over an empty input are zero.
type Stats struct {
	Count          int             `json:"count"`
	Sum            decimal.Decimal `json:"sum"`
	Average        decimal.Decimal `json:"average"`
	MonthCount     int             `json:"month_count"`
	MonthlyAverage decimal.Decimal `json:"monthly_average"`
	Inflow         decimal.Decimal `json:"inflow"`
	Outflow        decimal.Decimal `json:"outflow"`
	Net            decimal.Decimal `json:"net"`
}

// MonthTotal is the cash flow of a single YYYY-MM.
type MonthTotal struct {
	Month   string          `json:"month"`
	Count   int             `json:"count"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
}

// Net is inflow minus outflow.
func (m MonthTotal) Net() decimal.Decimal {
	return m.Inflow.Sub(m.Outflow)
}

// Summarize computes the statistics of txs. Sum adds amounts regardless of
// direction; Inflow, Outflow and Net split it by direction.
func Summarize(txs []core.Transaction) Stats {
	s := Stats{
		Count:   len(txs),
		Sum:     decimal.Zero,
		Inflow:  decimal.Zero,
		Outflow: decimal.Zero,
	}
	months := make(map[string]struct{})
	for _, t := range txs {
		s.Sum = s.Sum.Add(t.Amount)
		if t.Direction == core.Up {
			s.Inflow = s.Inflow.Add(t.Amount)
		} else {
			s.Outflow = s.Outflow.Add(t.Amount)
		}
		months[t.YearMonth()] = struct{}{}
	}
	s.MonthCount = len(months)
	s.Net = s.Inflow.Sub(s.Outflow)
	s.Average = divOrZero(s.Sum, s.Count)
	s.MonthlyAverage = divOrZero(s.Sum, s.MonthCount)
	return s
}

// YearTotal is the cash flow of a single calendar year.
type YearTotal struct {
	Year    string          `json:"year"`
	Count   int             `json:"count"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
}

// Net is inflow minus outflow.
func (y YearTotal) Net() decimal.Decimal {
	return y.Inflow.Sub(y.Outflow)
}

// MonthlyBreakdown groups txs by YYYY-MM, oldest month first.
func MonthlyBreakdown(txs []core.Transaction) []MonthTotal {
	groups := groupFlows(txs, core.Transaction.YearMonth)
	out := make([]MonthTotal, len(groups))
	for i, g := range groups {
		out[i] = MonthTotal{Month: g.key, Count: g.count, Inflow: g.inflow, Outflow: g.outflow}
	}
	return out
}

// YearlyBreakdown groups txs by year, oldest year first.
func YearlyBreakdown(txs []core.Transaction) []YearTotal {
	groups := groupFlows(txs, core.Transaction.Year)
	out := make([]YearTotal, len(groups))
	for i, g := range groups {
		out[i] = YearTotal{Year: g.key, Count: g.count, Inflow: g.inflow, Outflow: g.outflow}
	}
	return out
}

type flowGroup struct {
	key             string
	count           int
	inflow, outflow decimal.Decimal
}

// groupFlows splits txs into inflow and outflow per key, sorted by key.
func groupFlows(txs []core.Transaction, key func(core.Transaction) string) []flowGroup {
	byKey := make(map[string]*flowGroup)
	for _, t := range txs {
		k := key(t)
		g, ok := byKey[k]
		if !ok {
			g = &flowGroup{key: k, inflow: decimal.Zero, outflow: decimal.Zero}
			byKey[k] = g
		}
		g.count++
		if t.Direction == core.Up {
			g.inflow = g.inflow.Add(t.Amount)
		} else {
			g.outflow = g.outflow.Add(t.Amount)
		}
	}
	out := make([]flowGroup, 0, len(byKey))
	for _, g := range byKey {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b flowGroup) int {
		return cmp.Compare(a.key, b.key)
	})
	return out
}

func divOrZero(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}
