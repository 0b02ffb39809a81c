package ledger

import (
	"slices"
	"testing"

	"fintrack/internal/core"
)

func TestFacets(t *testing.T) {
	f := Facets(Normalize(fixture()))

	wantYears := []string{"2024", "2023"}
	if !slices.Equal(f.Years, wantYears) {
		t.Fatalf("years: got %v, want %v", f.Years, wantYears)
	}
	if !slices.IsSorted(f.Categories) || !slices.IsSorted(f.Descriptions) {
		t.Fatalf("categories and descriptions must be ascending")
	}
	if slices.Index(f.Categories, "Mutual Fund") < 0 || slices.Index(f.Descriptions, "Borrowed By Bank") < 0 {
		t.Fatalf("missing facet values: %+v", f)
	}
	seen := map[string]bool{}
	for _, c := range f.Categories {
		if seen[c] {
			t.Fatalf("duplicate category %q", c)
		}
		seen[c] = true
	}
}

func TestFacetsEmpty(t *testing.T) {
	f := Facets(nil)
	if f.Categories == nil || f.Descriptions == nil || f.Years == nil {
		t.Fatalf("facet lists must be non-nil")
	}
	if len(f.Categories)+len(f.Descriptions)+len(f.Years) != 0 {
		t.Fatalf("expected empty facets, got %+v", f)
	}
}

func TestFacetsSkipBlank(t *testing.T) {
	f := Facets([]core.Transaction{{Date: "", Category: "", Description: "x"}})
	if len(f.Categories) != 0 || len(f.Years) != 0 || len(f.Descriptions) != 1 {
		t.Fatalf("blank values should be skipped: %+v", f)
	}
}

func TestFacetsKeepSentinelYear(t *testing.T) {
	txs := []core.Transaction{
		{Date: "0000-00-00", Category: "Misc", Description: "Undated"},
		{Date: "2024-01-05", Category: "Rent", Description: "Flat"},
	}
	f := Facets(txs)
	if !slices.Equal(f.Years, []string{"2024", "0000"}) {
		t.Fatalf("years: got %v", f.Years)
	}
	undated := Filter(txs, FilterState{Years: []string{"0000"}})
	if len(undated) != 1 || undated[0].Description != "Undated" {
		t.Fatalf("sentinel year should select undated records, got %+v", undated)
	}
	if got := Summarize(txs).MonthCount; got != 2 {
		t.Fatalf("0000-00 counts as its own month, got %d", got)
	}
}

func TestFixedOptions(t *testing.T) {
	months := MonthOptions()
	if len(months) != 12 || months[0] != (Option{"01", "January"}) || months[11] != (Option{"12", "December"}) {
		t.Fatalf("unexpected months %v", months)
	}
	months[0].Label = "changed"
	if MonthOptions()[0].Label != "January" {
		t.Fatalf("MonthOptions must return a copy")
	}

	kinds := KindOptions()
	if len(kinds) != 7 || kinds[0].Value != "all" || kinds[3] != (Option{"investment", "Investment"}) {
		t.Fatalf("unexpected kinds %v", kinds)
	}
}

func TestBuild(t *testing.T) {
	s := fixture()
	q := Query{Filter: FilterState{Kind: core.KindExpense}, Sort: SortAsc}
	v := Build(s, q)
	if v.Total != 13 {
		t.Fatalf("expected total 13, got %d", v.Total)
	}
	if got := ids(v.Transactions); !sameIDs(got, []int64{5, 3, 4}) {
		t.Fatalf("unexpected transactions %v", got)
	}
	if v.Stats.Count != 3 {
		t.Fatalf("stats should cover the filtered list, got %d", v.Stats.Count)
	}
	// facets come from the unfiltered ledger
	if slices.Index(v.Facets.Categories, "Savings") < 0 {
		t.Fatalf("facets should not be narrowed by the filter: %v", v.Facets.Categories)
	}
	if len(v.Months) != 12 || len(v.Kinds) != 7 {
		t.Fatalf("fixed options missing")
	}

	again := Build(s, q)
	if !sameIDs(ids(again.Transactions), ids(v.Transactions)) || !again.Stats.Sum.Equal(v.Stats.Sum) {
		t.Fatalf("Build should be idempotent")
	}
}
