package ledger

import "fintrack/internal/core"

// Query is everything a caller can ask of the ledger view.
type Query struct {
	Filter FilterState
	Sort   SortDirection
}

// View is the assembled ledger for one snapshot and query.
type View struct {
	Transactions []core.Transaction `json:"transactions"`
	Stats        Stats              `json:"stats"`
	Facets       FacetOptions       `json:"facets"`
	Months       []Option           `json:"months"`
	Kinds        []Option           `json:"types"`
	Total        int                `json:"total"` // size of the unfiltered ledger
}

// Build runs normalize, facet enumeration, filter, sort and summarize over s.
func Build(s core.Snapshot, q Query) View {
	all := Normalize(s)
	txs := Sort(Filter(all, q.Filter), q.Sort)
	return View{
		Transactions: txs,
		Stats:        Summarize(txs),
		Facets:       Facets(all),
		Months:       MonthOptions(),
		Kinds:        KindOptions(),
		Total:        len(all),
	}
}
