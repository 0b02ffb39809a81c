package ledger

import (
	"slices"

	"fintrack/internal/core"
)

// FacetOptions are the selectable values of the data-driven facets.
type FacetOptions struct {
	Categories   []string `json:"categories"`
	Descriptions []string `json:"descriptions"`
	Years        []string `json:"years"` // newest first
}

// Option is one entry of a fixed selector.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var monthOptions = []Option{
	{"01", "January"}, {"02", "February"}, {"03", "March"},
	{"04", "April"}, {"05", "May"}, {"06", "June"},
	{"07", "July"}, {"08", "August"}, {"09", "September"},
	{"10", "October"}, {"11", "November"}, {"12", "December"},
}

// MonthOptions returns the twelve month choices.
func MonthOptions() []Option {
	return slices.Clone(monthOptions)
}

// KindOptions returns "all" followed by the six record kinds.
func KindOptions() []Option {
	out := make([]Option, 0, len(core.Kinds)+1)
	out = append(out, Option{Value: string(core.KindAll), Label: "All"})
	for _, k := range core.Kinds {
		out = append(out, Option{Value: string(k), Label: k.Title()})
	}
	return out
}

// Facets enumerates the distinct categories, descriptions and years of txs.
// Pass the unfiltered ledger so that one selection never hides the options
// of another facet. Blank values are skipped. The sentinel year 0000 of
// undated records is listed last so those records stay selectable.
func Facets(txs []core.Transaction) FacetOptions {
	cats := make(map[string]struct{})
	descs := make(map[string]struct{})
	years := make(map[string]struct{})
	for _, t := range txs {
		add(cats, t.Category)
		add(descs, t.Description)
		add(years, t.Year())
	}
	f := FacetOptions{
		Categories:   sortedKeys(cats),
		Descriptions: sortedKeys(descs),
		Years:        sortedKeys(years),
	}
	slices.Reverse(f.Years)
	return f
}

func add(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
