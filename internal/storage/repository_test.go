package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/sources"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fintrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestEmptyTablesArePresent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for _, k := range core.Kinds {
		s, err := repo.Fetch(ctx, k, sources.Query{})
		if err != nil {
			t.Fatalf("fetch %s: %v", k, err)
		}
		if !s.Has(k) || s.Len() != 0 {
			t.Fatalf("%s: expected present empty collection, got %+v", k, s)
		}
	}
	others, err := repo.FetchOther(ctx, sources.Query{})
	if err != nil || others != nil {
		t.Fatalf("expected no other records, got %v %v", others, err)
	}
}

func TestAppendAndFetchRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	in := core.Snapshot{
		Income: []core.Income{{Base: core.Base{Year: "2024", Month: "1", Day: "15"}, Name: "Acme", Amount: core.N(50000)}},
		Expense: []core.Expense{
			{Base: core.Base{Year: "2024", Month: "01", Day: "20"}, Type: "Fixed", Category: "Rent", Cost: core.ParseNumber("15000.50")},
			{Base: core.Base{Year: "2023", Month: "12", Day: "31"}, Category: "Food", Cost: core.N(20)},
		},
		Interest: []core.Interest{{Base: core.Base{Year: "2024", Month: "3", Day: "1"}, Name: "FD", CostIn: core.N(120), CreditIn: true}},
		Other:    []core.Other{{Base: core.Base{Year: "2024", Month: "5", Day: "1"}, Kind: "crypto", Name: "BTC", Amount: core.N(900)}},
	}
	n, err := repo.AppendRecords(ctx, in)
	if err != nil || n != 5 {
		t.Fatalf("append: n=%d err=%v", n, err)
	}

	exp, err := repo.Fetch(ctx, core.KindExpense, sources.Query{Year: "2024"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(exp.Expense) != 1 {
		t.Fatalf("expected one 2024 expense, got %+v", exp.Expense)
	}
	got := exp.Expense[0]
	if got.ID == 0 || got.Category != "Rent" || got.Cost.String() != "15000.5" || got.Month != "01" {
		t.Fatalf("unexpected expense %+v", got)
	}

	in2, _ := repo.Fetch(ctx, core.KindInterest, sources.Query{})
	if len(in2.Interest) != 1 || !bool(in2.Interest[0].CreditIn) || in2.Interest[0].CostIn.String() != "120" {
		t.Fatalf("unexpected interest %+v", in2.Interest)
	}
	others, _ := repo.FetchOther(ctx, sources.Query{Month: "05"})
	if len(others) != 1 || others[0].Kind != "crypto" {
		t.Fatalf("unexpected others %+v", others)
	}
}

func TestAppendKeepsExplicitIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if _, err := repo.AppendRecords(ctx, core.Snapshot{Tax: []core.Tax{{Base: core.Base{ID: 42}, Name: "Advance"}}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := repo.AppendRecords(ctx, core.Snapshot{Tax: []core.Tax{{Name: "Refund"}}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s, _ := repo.Fetch(ctx, core.KindTax, sources.Query{})
	if len(s.Tax) != 2 || s.Tax[0].ID != 42 || s.Tax[1].ID != 43 {
		t.Fatalf("unexpected ids %+v", s.Tax)
	}
}

func TestAppendRollsBackOnConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if _, err := repo.AppendRecords(ctx, core.Snapshot{Loan: []core.Loan{{Base: core.Base{ID: 7}, Name: "Bank"}}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	_, err := repo.AppendRecords(ctx, core.Snapshot{Loan: []core.Loan{
		{Name: "Friend"},
		{Base: core.Base{ID: 7}, Name: "Duplicate"},
	}})
	if err == nil {
		t.Fatalf("expected primary key conflict")
	}
	s, _ := repo.Fetch(ctx, core.KindLoan, sources.Query{})
	if len(s.Loan) != 1 {
		t.Fatalf("failed batch must not leave partial rows, got %+v", s.Loan)
	}
}

func TestStoreBatchIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	batch := core.Snapshot{Expense: []core.Expense{{Category: "Rent", Cost: core.N(10)}}}

	n, dup, err := repo.StoreBatch(ctx, "b-1", core.KindExpense, batch)
	if err != nil || dup || n != 1 {
		t.Fatalf("first store: n=%d dup=%v err=%v", n, dup, err)
	}
	n, dup, err = repo.StoreBatch(ctx, "b-1", core.KindExpense, batch)
	if err != nil || !dup || n != 0 {
		t.Fatalf("second store: n=%d dup=%v err=%v", n, dup, err)
	}
	s, _ := repo.Fetch(ctx, core.KindExpense, sources.Query{})
	if len(s.Expense) != 1 {
		t.Fatalf("duplicate batch must not be written twice")
	}
	if c, _ := repo.queries.CountBatches(ctx); c != 1 {
		t.Fatalf("expected one recorded batch, got %d", c)
	}
}

func TestListBatchesNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if got, err := repo.ListBatches(ctx, 10); err != nil || len(got) != 0 {
		t.Fatalf("expected no batches, got %v %v", got, err)
	}
	loans := core.Snapshot{Loan: []core.Loan{{Name: "Bank", LoanAmount: core.N(100)}}}
	taxes := core.Snapshot{Tax: []core.Tax{{Name: "GST", Amount: core.N(5)}, {Name: "TDS", Amount: core.N(7)}}}
	if _, _, err := repo.StoreBatch(ctx, "b-1", core.KindLoan, loans); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, _, err := repo.StoreBatch(ctx, "b-2", core.KindTax, taxes); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := repo.ListBatches(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b-2" || got[1].ID != "b-1" {
		t.Fatalf("unexpected batches %+v", got)
	}
	if got[0].Kind != core.KindTax || got[0].Records != 2 || got[0].ReceivedAt.IsZero() {
		t.Fatalf("unexpected newest batch %+v", got[0])
	}
	if got, _ := repo.ListBatches(ctx, 1); len(got) != 1 || got[0].ID != "b-2" {
		t.Fatalf("limit not applied: %+v", got)
	}
}

func TestFetchUnknownKind(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Fetch(context.Background(), core.Kind("crypto"), sources.Query{}); !errors.Is(err, core.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	for i := 0; i < 2; i++ {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	v, dirty, err := SchemaVersion(path)
	if err != nil || dirty || v != 2 {
		t.Fatalf("unexpected version %d dirty=%v err=%v", v, dirty, err)
	}
}
