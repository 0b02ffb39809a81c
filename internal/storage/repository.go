// Package storage keeps raw records in SQLite, one table per kind.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/sources"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var (
	_ sources.RecordSource   = (*SQLiteRepository)(nil)
	_ sources.OtherSource    = (*SQLiteRepository)(nil)
	_ sources.RecordAppender = (*SQLiteRepository)(nil)
	_ sources.Pinger         = (*SQLiteRepository)(nil)
	_ sources.BatchStore     = (*SQLiteRepository)(nil)
	_ sources.BatchLister    = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under the worker.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Fetch implements sources.RecordSource. Tables always exist, so every
// collection is reported present even when empty.
func (r *SQLiteRepository) Fetch(ctx context.Context, kind core.Kind, q sources.Query) (core.Snapshot, error) {
	var (
		s   core.Snapshot
		err error
	)
	switch kind {
	case core.KindIncome:
		s.Income, err = r.queries.ListIncome(ctx)
	case core.KindExpense:
		s.Expense, err = r.queries.ListExpense(ctx)
	case core.KindInvestment:
		s.Investment, err = r.queries.ListInvestment(ctx)
	case core.KindLoan:
		s.Loan, err = r.queries.ListLoan(ctx)
	case core.KindInterest:
		s.Interest, err = r.queries.ListInterest(ctx)
	case core.KindTax:
		s.Tax, err = r.queries.ListTax(ctx)
	default:
		return core.Snapshot{}, fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list %s: %w", kind, err)
	}
	return q.Apply(s), nil
}

// FetchOther implements sources.OtherSource.
func (r *SQLiteRepository) FetchOther(ctx context.Context, q sources.Query) ([]core.Other, error) {
	others, err := r.queries.ListOther(ctx)
	if err != nil {
		return nil, fmt.Errorf("list other records: %w", err)
	}
	if len(others) == 0 {
		return nil, nil
	}
	return q.Apply(core.Snapshot{Other: others}).Other, nil
}

// AppendRecords implements sources.RecordAppender. The snapshot is written
// in a single transaction.
func (r *SQLiteRepository) AppendRecords(ctx context.Context, s core.Snapshot) (int, error) {
	var n int
	err := r.inTx(ctx, func(q *Queries) error {
		var err error
		n, err = q.insertSnapshot(ctx, s)
		return err
	})
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Records saved to SQLite", "records", n, "kinds", s.Kinds())
	return n, nil
}

// StoreBatch writes a batch at most once per id. It reports duplicate when
// the id was already stored and nothing was written.
func (r *SQLiteRepository) StoreBatch(ctx context.Context, id string, kind core.Kind, s core.Snapshot) (int, bool, error) {
	var (
		n         int
		duplicate bool
	)
	err := r.inTx(ctx, func(q *Queries) error {
		fresh, err := q.ClaimBatch(ctx, id, string(kind), s.Len())
		if err != nil {
			return fmt.Errorf("claim batch: %w", err)
		}
		if !fresh {
			duplicate = true
			return nil
		}
		n, err = q.insertSnapshot(ctx, s)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	if duplicate {
		slog.WarnContext(ctx, "Batch already stored, skipping", "batch_id", id, "kind", kind)
		return 0, true, nil
	}
	slog.InfoContext(ctx, "Batch saved to SQLite", "batch_id", id, "kind", kind, "records", n)
	return n, false, nil
}

// ListBatches returns up to limit stored batches, newest first.
func (r *SQLiteRepository) ListBatches(ctx context.Context, limit int) ([]sources.Batch, error) {
	rows, err := r.queries.ListBatches(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	out := make([]sources.Batch, len(rows))
	for i, row := range rows {
		at, err := time.Parse(time.RFC3339, row.ReceivedAt)
		if err != nil {
			return nil, fmt.Errorf("batch %s: parse received_at: %w", row.ID, err)
		}
		out[i] = sources.Batch{ID: row.ID, Kind: core.Kind(row.Kind), Records: row.Records, ReceivedAt: at}
	}
	return out, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
