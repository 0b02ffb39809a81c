package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestSummarizeEmpty(t *testing.T) {
	st := Summarize(nil)
	if st.Count != 0 || st.MonthCount != 0 {
		t.Fatalf("unexpected counts %+v", st)
	}
	for name, d := range map[string]decimal.Decimal{
		"sum": st.Sum, "average": st.Average, "monthly": st.MonthlyAverage, "net": st.Net,
	} {
		if !d.IsZero() {
			t.Fatalf("%s should be zero, got %s", name, d)
		}
	}
}

func TestSummarizeMatchesFilteredSum(t *testing.T) {
	all := Normalize(fixture())
	states := []FilterState{
		{},
		{Kind: core.KindExpense},
		{Years: []string{"2024"}, Directions: []core.Direction{core.Down}},
		{Search: "income"},
		{Months: []string{"03"}},
	}
	tolerance := decimal.New(1, -9)
	for _, f := range states {
		txs := Sort(Filter(all, f), SortNone)
		st := Summarize(txs)
		if st.Count != len(txs) {
			t.Fatalf("%+v: count %d, want %d", f, st.Count, len(txs))
		}
		if !st.Sum.Equal(amounts(txs)) {
			t.Fatalf("%+v: sum %s, want %s", f, st.Sum, amounts(txs))
		}
		if !st.Inflow.Add(st.Outflow).Equal(st.Sum) {
			t.Fatalf("%+v: inflow+outflow should equal sum", f)
		}
		if st.MonthCount > 0 {
			back := st.MonthlyAverage.Mul(decimal.NewFromInt(int64(st.MonthCount)))
			if back.Sub(st.Sum).Abs().GreaterThan(tolerance) {
				t.Fatalf("%+v: monthlyAverage*monthCount = %s, sum %s", f, back, st.Sum)
			}
		}
	}
}

func TestSummarizeRepeatingDivision(t *testing.T) {
	txs := []core.Transaction{
		{Date: "2024-01-01", Amount: decimal.NewFromInt(100)},
		{Date: "2024-02-01", Amount: decimal.Zero},
		{Date: "2024-03-01", Amount: decimal.Zero},
	}
	st := Summarize(txs)
	if st.MonthCount != 3 {
		t.Fatalf("expected 3 months, got %d", st.MonthCount)
	}
	back := st.MonthlyAverage.Mul(decimal.NewFromInt(3))
	if back.Sub(st.Sum).Abs().GreaterThan(decimal.New(1, -9)) {
		t.Fatalf("monthly average %s does not round-trip", st.MonthlyAverage)
	}
}

func TestMonthCountUsesYearAndMonth(t *testing.T) {
	txs := []core.Transaction{
		{Date: "2023-01-10"},
		{Date: "2024-01-10"},
		{Date: "2024-01-25"},
	}
	if got := Summarize(txs).MonthCount; got != 2 {
		t.Fatalf("expected 2 distinct months, got %d", got)
	}
}

func TestMonthlyBreakdown(t *testing.T) {
	got := MonthlyBreakdown(Normalize(fixture()))
	if len(got) == 0 {
		t.Fatalf("expected months")
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Month >= got[i].Month {
			t.Fatalf("months not ascending: %s then %s", got[i-1].Month, got[i].Month)
		}
	}
	var jan MonthTotal
	for _, m := range got {
		if m.Month == "2024-01" {
			jan = m
		}
	}
	// income 50000 and repayment 5000 in, rent 15000 out
	if jan.Count != 3 || !jan.Inflow.Equal(decimal.NewFromInt(55000)) || !jan.Outflow.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("unexpected january %+v", jan)
	}
	if !jan.Net().Equal(decimal.NewFromInt(40000)) {
		t.Fatalf("unexpected january net %s", jan.Net())
	}
}

func TestYearlyBreakdown(t *testing.T) {
	txs := []core.Transaction{
		{Date: "2024-03-01", Amount: decimal.NewFromInt(1000), Kind: core.KindIncome, Direction: core.Up},
		{Date: "2023-12-31", Amount: decimal.NewFromInt(400), Kind: core.KindExpense, Direction: core.Down},
		{Date: "2024-07-15", Amount: decimal.NewFromInt(250), Kind: core.KindTax, Direction: core.Down},
		{Date: "2023-01-02", Amount: decimal.NewFromInt(50), Kind: core.KindInterest, Direction: core.Up},
	}
	got := YearlyBreakdown(txs)
	if len(got) != 2 || got[0].Year != "2023" || got[1].Year != "2024" {
		t.Fatalf("unexpected years %+v", got)
	}
	if got[0].Count != 2 || !got[0].Net().Equal(decimal.NewFromInt(-350)) {
		t.Fatalf("unexpected 2023 %+v", got[0])
	}
	if !got[1].Inflow.Equal(decimal.NewFromInt(1000)) || !got[1].Outflow.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected 2024 %+v", got[1])
	}
	if len(YearlyBreakdown(nil)) != 0 {
		t.Fatalf("empty input must give no years")
	}
}
