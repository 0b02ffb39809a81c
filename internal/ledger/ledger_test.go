package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func rec(id int64, y, m, d string) core.Base {
	return core.Base{ID: id, Year: core.Part(y), Month: core.Part(m), Day: core.Part(d)}
}

// fixture covers every kind, a legacy income row, a malformed date and a
// garbage amount.
func fixture() core.Snapshot {
	return core.Snapshot{
		Income: []core.Income{
			{Base: rec(1, "2024", "01", "15"), Type: "Salary", Name: "Acme Corp", Amount: core.N(50000)},
			{Base: rec(2, "2023", "12", "31"), Salary: core.N(48000), Tax: core.N(4000)},
		},
		Expense: []core.Expense{
			{Base: rec(3, "2024", "01", "20"), Type: "Fixed", Category: "Rent", Cost: core.N(15000)},
			{Base: rec(4, "2024", "2", "3"), Type: "Variable", Category: "Groceries", Cost: core.ParseNumber("2300.50")},
			{Base: rec(5, "2024", "", ""), Category: "Misc", Cost: core.ParseNumber("abc")},
		},
		Investment: []core.Investment{
			{Base: rec(6, "2024", "02", "10"), Type: "Mutual Fund", Name: "Index Fund", TypeOfOrder: "Buy", Cost: core.N(10000)},
			{Base: rec(7, "2024", "03", "01"), Type: "Mutual Fund", Name: "Index Fund", TypeOfOrder: "Sell", Cost: core.N(8000)},
		},
		Loan: []core.Loan{
			{Base: rec(8, "2023", "06", "01"), Type: "Personal", Name: "Bank", LoanAmount: core.N(100000)},
			{Base: rec(9, "2024", "01", "05"), Type: "Personal", Name: "Bank", LoanRepayment: core.N(5000)},
		},
		Interest: []core.Interest{
			{Base: rec(10, "2024", "03", "31"), Type: "Savings", Name: "FD", CostIn: core.N(1200), CreditIn: true},
			{Base: rec(11, "2024", "03", "31"), Type: "Card", Name: "Late fee", CostOut: core.N(-300)},
		},
		Tax: []core.Tax{
			{Base: rec(12, "2024", "04", "15"), Type: "Income Tax", Name: "Advance", Amount: core.N(7000)},
			{Base: rec(13, "2024", "04", "20"), Type: "Income Tax", Name: "Refund", Refund: core.N(1500)},
		},
	}
}

func amounts(txs []core.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		sum = sum.Add(t.Amount)
	}
	return sum
}

func TestNormalizeRules(t *testing.T) {
	txs := Normalize(fixture())
	if len(txs) != 13 {
		t.Fatalf("expected 13 transactions, got %d", len(txs))
	}
	byID := make(map[int64]core.Transaction, len(txs))
	for _, tx := range txs {
		byID[tx.ID] = tx
	}

	cases := []struct {
		id          int64
		date        string
		description string
		category    string
		amount      string
		kind        core.Kind
		direction   core.Direction
	}{
		{1, "2024-01-15", "Acme Corp", "Salary", "50000", core.KindIncome, core.Up},
		{2, "2023-12-31", "Salary", "Income", "48000", core.KindIncome, core.Up},
		{3, "2024-01-20", "Rent", "Fixed", "15000", core.KindExpense, core.Down},
		{4, "2024-02-03", "Groceries", "Variable", "2300.5", core.KindExpense, core.Down},
		{5, "2024-00-00", "Misc", "Other", "0", core.KindExpense, core.Down},
		{6, "2024-02-10", "Index Fund", "Mutual Fund", "10000", core.KindInvestment, core.Down},
		{7, "2024-03-01", "Index Fund", "Mutual Fund", "8000", core.KindInvestment, core.Up},
		{8, "2023-06-01", "Borrowed By Bank", "Personal", "100000", core.KindLoan, core.Down},
		{9, "2024-01-05", "Repayment To Bank", "Personal", "5000", core.KindLoan, core.Up},
		{10, "2024-03-31", "FD", "Savings", "1200", core.KindInterest, core.Up},
		{11, "2024-03-31", "Late fee", "Card", "300", core.KindInterest, core.Down},
		{12, "2024-04-15", "Advance", "Income Tax", "7000", core.KindTax, core.Down},
		{13, "2024-04-20", "Refund", "Income Tax", "0", core.KindTax, core.Up},
	}
	for _, tc := range cases {
		got, ok := byID[tc.id]
		if !ok {
			t.Fatalf("transaction %d missing", tc.id)
		}
		if got.Date != tc.date || got.Description != tc.description || got.Category != tc.category ||
			got.Amount.String() != tc.amount || got.Kind != tc.kind || got.Direction != tc.direction {
			t.Fatalf("transaction %d: got %+v (amount %s)", tc.id, got, got.Amount)
		}
	}
}

func TestNormalizeOrderFollowsKinds(t *testing.T) {
	txs := Normalize(fixture())
	last := -1
	for _, tx := range txs {
		if tx.Kind.Order() < last {
			t.Fatalf("kind %s emitted after a later kind", tx.Kind)
		}
		last = tx.Kind.Order()
	}
}

func TestNormalizeAbsentAndEmpty(t *testing.T) {
	if got := Normalize(core.Snapshot{}); len(got) != 0 {
		t.Fatalf("expected no transactions, got %d", len(got))
	}
	s := core.Snapshot{Expense: []core.Expense{}, Tax: nil}
	if got := Normalize(s); len(got) != 0 {
		t.Fatalf("expected no transactions, got %d", len(got))
	}
}

func TestNormalizeFallbackLabels(t *testing.T) {
	s := core.Snapshot{
		Income:     []core.Income{{Amount: core.N(10)}},
		Expense:    []core.Expense{{Cost: core.N(1)}},
		Investment: []core.Investment{{Cost: core.N(1)}},
		Loan:       []core.Loan{{LoanAmount: core.N(1)}},
		Interest:   []core.Interest{{CostIn: core.N(1)}},
		Tax:        []core.Tax{{Amount: core.N(1)}},
	}
	want := []struct{ description, category string }{
		{"Income", "Income"},
		{"Expense", "Other"},
		{"Investment", "Investment"},
		{"Borrowed By Loan", "Loan"},
		{"Interest", "Interest"},
		{"Tax", "Tax"},
	}
	txs := Normalize(s)
	for i, w := range want {
		if txs[i].Description != w.description || txs[i].Category != w.category {
			t.Fatalf("%s: got %q/%q, want %q/%q", txs[i].Kind, txs[i].Description, txs[i].Category, w.description, w.category)
		}
		if txs[i].Date != "0000-00-00" {
			t.Fatalf("%s: expected sentinel date, got %s", txs[i].Kind, txs[i].Date)
		}
	}
}

func TestNormalizeUnknownKindDefaultsDown(t *testing.T) {
	s := core.Snapshot{Other: []core.Other{{Base: rec(1, "2024", "5", "1"), Kind: "Crypto", Amount: core.N(-42)}}}
	txs := Normalize(s)
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	tx := txs[0]
	if tx.Direction != core.Down || tx.Kind != "crypto" || tx.Description != "Crypto" || tx.Amount.String() != "42" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
}

func TestNormalizeInvestmentOrderTypeIsTrimmedAndCaseInsensitive(t *testing.T) {
	for _, order := range []core.Part{"buy", "BUY", " Buy "} {
		tx := Normalize(core.Snapshot{Investment: []core.Investment{{TypeOfOrder: order, Cost: core.N(1)}}})[0]
		if tx.Direction != core.Down {
			t.Fatalf("%q should be down", order)
		}
	}
	for _, order := range []core.Part{"Sell", "", "Buyback"} {
		tx := Normalize(core.Snapshot{Investment: []core.Investment{{TypeOfOrder: order, Cost: core.N(1)}}})[0]
		if tx.Direction != core.Up {
			t.Fatalf("%q should be up", order)
		}
	}
}

func TestScenarioIncomeAndExpense(t *testing.T) {
	s := core.Snapshot{
		Income:  []core.Income{{Base: rec(0, "2024", "01", "15"), Amount: core.N(50000)}},
		Expense: []core.Expense{{Base: rec(0, "2024", "01", "20"), Type: "Fixed", Category: "Rent", Cost: core.N(15000)}},
	}
	all := Normalize(s)
	if len(all) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(all))
	}
	if all[0].Date != "2024-01-15" || all[0].Direction != core.Up {
		t.Fatalf("unexpected income %+v", all[0])
	}
	if all[1].Date != "2024-01-20" || all[1].Direction != core.Down {
		t.Fatalf("unexpected expense %+v", all[1])
	}

	exp := Filter(all, FilterState{Kind: core.KindExpense})
	if len(exp) != 1 || exp[0].Category != "Rent" || !exp[0].Amount.Equal(decimal.NewFromInt(15000)) || exp[0].Direction != core.Down {
		t.Fatalf("unexpected expense filter result %+v", exp)
	}

	st := Summarize(all)
	if st.Count != 2 || !st.Sum.Equal(decimal.NewFromInt(65000)) || st.MonthCount != 1 ||
		!st.MonthlyAverage.Equal(decimal.NewFromInt(65000)) {
		t.Fatalf("unexpected stats %+v", st)
	}
	if !st.Average.Equal(decimal.NewFromInt(32500)) {
		t.Fatalf("unexpected average %s", st.Average)
	}
	if !st.Net.Equal(decimal.NewFromInt(35000)) {
		t.Fatalf("unexpected net %s", st.Net)
	}
}

func TestScenarioInvestmentDirection(t *testing.T) {
	txs := Normalize(core.Snapshot{Investment: []core.Investment{
		{TypeOfOrder: "Buy", Cost: core.N(10000)},
		{TypeOfOrder: "Sell", Cost: core.N(8000)},
	}})
	if txs[0].Direction != core.Down || txs[1].Direction != core.Up {
		t.Fatalf("unexpected directions %s %s", txs[0].Direction, txs[1].Direction)
	}
}

func TestScenarioLoanDirection(t *testing.T) {
	txs := Normalize(core.Snapshot{Loan: []core.Loan{
		{LoanAmount: core.N(100000), LoanRepayment: core.N(0)},
		{LoanAmount: core.N(0), LoanRepayment: core.N(5000)},
	}})
	if txs[0].Direction != core.Down || !txs[0].Amount.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("unexpected borrowing %+v", txs[0])
	}
	if txs[1].Direction != core.Up || !txs[1].Amount.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected repayment %+v", txs[1])
	}
}

func TestScenarioSearchMatchesCategory(t *testing.T) {
	all := Normalize(fixture())
	got := Filter(all, FilterState{Search: "mutual"})
	if len(got) != 2 {
		t.Fatalf("expected 2 matches on category, got %d", len(got))
	}
	for _, tx := range got {
		if tx.Category != "Mutual Fund" {
			t.Fatalf("unexpected match %+v", tx)
		}
	}
}

func TestBuildCoercesHugeStoredAmounts(t *testing.T) {
	s, err := core.DecodeRecords(core.KindExpense, []byte(`[
		{"year":2024,"month":1,"day":1,"category":"Rent","cost":"1e200000000"},
		{"year":2024,"month":1,"day":2,"category":"Food","cost":"1e-200000000"},
		{"year":2024,"month":1,"day":3,"category":"Fuel","cost":300}
	]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v := Build(s, Query{})
	if len(v.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(v.Transactions))
	}
	for _, tx := range v.Transactions {
		if len(tx.Amount.String()) > 10 {
			t.Fatalf("amount %s was not bounded", tx.Amount.String()[:10])
		}
	}
	if !v.Stats.Sum.Equal(decimal.NewFromInt(300)) || !v.Stats.Average.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected stats %+v", v.Stats)
	}
}
