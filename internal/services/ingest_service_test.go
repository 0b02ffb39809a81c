package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

type fakeStore struct {
	got core.Snapshot
	err error
}

func (f *fakeStore) AppendRecords(_ context.Context, s core.Snapshot) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.got = f.got.Merge(s)
	return s.Len(), nil
}

// fakeBatchStore also remembers batch ids.
type fakeBatchStore struct {
	fakeStore
	ids []string
}

func (f *fakeBatchStore) StoreBatch(ctx context.Context, id string, _ core.Kind, s core.Snapshot) (int, bool, error) {
	f.ids = append(f.ids, id)
	n, err := f.AppendRecords(ctx, s)
	return n, false, err
}

type fakePublisher struct {
	msgs []*amqp.RecordBatchMessage
	err  error
}

func (f *fakePublisher) PublishRecordBatch(_ context.Context, m *amqp.RecordBatchMessage) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, m)
	return nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

const twoExpenses = `[
	{"year": 2024, "month": 1, "day": 20, "category": "Rent", "cost": 15000},
	{"year": "2024", "month": "02", "day": "3", "category": "Groceries", "cost": "2300.50"}
]`

func TestDecodeBatch(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		raw     string
		wantErr error
	}{
		{"valid", "expense", twoExpenses, nil},
		{"alias", "invest", `[{"year":2024,"month":1,"day":1,"name":"Fund"}]`, nil},
		{"unknown kind", "crypto", twoExpenses, core.ErrUnknownKind},
		{"all is not a kind", "all", twoExpenses, core.ErrUnknownKind},
		{"not an array", "expense", `{"cost": 1}`, ErrInvalidRecord},
		{"empty", "expense", `[]`, ErrEmptyBatch},
		{"null", "tax", `null`, ErrEmptyBatch},
		{"bad month", "expense", `[{"year":2024,"month":13,"day":1}]`, ErrInvalidRecord},
		{"missing day", "income", `[{"year":2024,"month":1}]`, ErrInvalidRecord},
		{"huge amount", "expense", `[{"year":2024,"month":1,"day":1,"cost":"1e200000000"}]`, ErrInvalidRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeBatch(tt.kind, []byte(tt.raw))
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDecodeBatchWrapsDateError(t *testing.T) {
	_, _, err := DecodeBatch("expense", []byte(`[{"year":2024,"month":13,"day":1}]`))
	if !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth in chain, got %v", err)
	}
}

func TestIngestRejectsHugeAmountBeforeStoring(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewIngestService(store, pub, nil)

	_, err := svc.Ingest(context.Background(), "expense", []byte(`[{"year":2024,"month":1,"day":1,"cost":"1e200000000"}]`))
	if !errors.Is(err, ErrInvalidRecord) || !errors.Is(err, core.ErrAmountOutOfRange) {
		t.Fatalf("expected out of range record error, got %v", err)
	}
	if store.got.Len() != 0 || len(pub.msgs) != 0 {
		t.Fatalf("rejected batch must not be stored or queued")
	}
}

func TestIngestQueuesWhenPublisherAvailable(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	inv := &countingInvalidator{}
	svc := NewIngestService(store, pub, inv)

	r, err := svc.Ingest(context.Background(), "Expense", []byte(twoExpenses))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !r.Queued || r.Records != 2 || r.Kind != core.KindExpense || r.BatchID == "" {
		t.Fatalf("unexpected receipt %+v", r)
	}
	if len(pub.msgs) != 1 || pub.msgs[0].ID.String() != r.BatchID {
		t.Fatalf("expected one published message, got %d", len(pub.msgs))
	}
	if store.got.Len() != 0 || inv.n != 0 {
		t.Fatalf("queued batch must not be stored or invalidate yet")
	}
}

func TestIngestStoresDirectlyWithoutQueue(t *testing.T) {
	store := &fakeStore{}
	inv := &countingInvalidator{}
	svc := NewIngestService(store, nil, inv)

	r, err := svc.Ingest(context.Background(), "expense", []byte(twoExpenses))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if r.Queued || r.Records != 2 || len(store.got.Expense) != 2 || inv.n != 1 {
		t.Fatalf("receipt=%+v stored=%d invalidations=%d", r, len(store.got.Expense), inv.n)
	}
}

func TestIngestRecordsBatchIDWhenStoreKeepsHistory(t *testing.T) {
	store := &fakeBatchStore{}
	r, err := NewIngestService(store, nil, nil).Ingest(context.Background(), "expense", []byte(twoExpenses))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(store.ids) != 1 || store.ids[0] != r.BatchID || len(store.got.Expense) != 2 {
		t.Fatalf("expected batch %s recorded, got %v", r.BatchID, store.ids)
	}
}

func TestIngestFallsBackWhenPublishFails(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, &fakePublisher{err: amqp.ErrCircuitOpen}, nil)

	r, err := svc.Ingest(context.Background(), "expense", []byte(twoExpenses))
	if err != nil || r.Queued || len(store.got.Expense) != 2 {
		t.Fatalf("expected direct store, got %+v %v", r, err)
	}

	queueOnly := NewIngestService(nil, &fakePublisher{err: amqp.ErrCircuitOpen}, nil)
	if _, err := queueOnly.Ingest(context.Background(), "expense", []byte(twoExpenses)); !errors.Is(err, amqp.ErrCircuitOpen) {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestIngestErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := NewIngestService(nil, nil, nil).Ingest(ctx, "expense", []byte(twoExpenses)); !errors.Is(err, ErrNoDestination) {
		t.Fatalf("expected ErrNoDestination, got %v", err)
	}
	boom := errors.New("disk full")
	if _, err := NewIngestService(&fakeStore{err: boom}, nil, nil).Ingest(ctx, "expense", []byte(twoExpenses)); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if _, err := NewIngestService(&fakeStore{}, nil, nil).Ingest(ctx, "expense", []byte(`[]`)); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}
