package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const baseColumns = `id, financial_year, year, month, day`

func baseDest(b *core.Base) []any {
	return []any{&b.ID, &b.FinancialYear, &b.Year, &b.Month, &b.Day}
}

func baseArgs(b core.Base) []any {
	return []any{b.ID, b.FinancialYear, b.Year, b.Month, b.Day}
}

func list[T any](ctx context.Context, db DBTX, query string, dest func(*T) []any, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		var i T
		if err := rows.Scan(dest(&i)...); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func insert(ctx context.Context, db DBTX, query string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listIncome = `SELECT ` + baseColumns + `, type, name, amount, salary, tax FROM income ORDER BY id`

func (q *Queries) ListIncome(ctx context.Context) ([]core.Income, error) {
	return list(ctx, q.db, listIncome, func(r *core.Income) []any {
		return append(baseDest(&r.Base), &r.Type, &r.Name, &r.Amount, &r.Salary, &r.Tax)
	})
}

const insertIncome = `INSERT INTO income (` + baseColumns + `, type, name, amount, salary, tax)
VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertIncome(ctx context.Context, r core.Income) (int64, error) {
	return insert(ctx, q.db, insertIncome, append(baseArgs(r.Base), r.Type, r.Name, r.Amount, r.Salary, r.Tax)...)
}

const listExpense = `SELECT ` + baseColumns + `, type, category, cost FROM expense ORDER BY id`

func (q *Queries) ListExpense(ctx context.Context) ([]core.Expense, error) {
	return list(ctx, q.db, listExpense, func(r *core.Expense) []any {
		return append(baseDest(&r.Base), &r.Type, &r.Category, &r.Cost)
	})
}

const insertExpense = `INSERT INTO expense (` + baseColumns + `, type, category, cost)
VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertExpense(ctx context.Context, r core.Expense) (int64, error) {
	return insert(ctx, q.db, insertExpense, append(baseArgs(r.Base), r.Type, r.Category, r.Cost)...)
}

const listInvestment = `SELECT ` + baseColumns + `, type, folio_number, name, type_of_order, units, nav, cost
FROM investment ORDER BY id`

func (q *Queries) ListInvestment(ctx context.Context) ([]core.Investment, error) {
	return list(ctx, q.db, listInvestment, func(r *core.Investment) []any {
		return append(baseDest(&r.Base), &r.Type, &r.FolioNumber, &r.Name, &r.TypeOfOrder, &r.Units, &r.NAV, &r.Cost)
	})
}

const insertInvestment = `INSERT INTO investment (` + baseColumns + `, type, folio_number, name, type_of_order, units, nav, cost)
VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertInvestment(ctx context.Context, r core.Investment) (int64, error) {
	return insert(ctx, q.db, insertInvestment,
		append(baseArgs(r.Base), r.Type, r.FolioNumber, r.Name, r.TypeOfOrder, r.Units, r.NAV, r.Cost)...)
}

const listLoan = `SELECT ` + baseColumns + `, type, name, interest, loan_amount, loan_repayment, cost FROM loan ORDER BY id`

func (q *Queries) ListLoan(ctx context.Context) ([]core.Loan, error) {
	return list(ctx, q.db, listLoan, func(r *core.Loan) []any {
		return append(baseDest(&r.Base), &r.Type, &r.Name, &r.Interest, &r.LoanAmount, &r.LoanRepayment, &r.Cost)
	})
}

const insertLoan = `INSERT INTO loan (` + baseColumns + `, type, name, interest, loan_amount, loan_repayment, cost)
VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertLoan(ctx context.Context, r core.Loan) (int64, error) {
	return insert(ctx, q.db, insertLoan,
		append(baseArgs(r.Base), r.Type, r.Name, r.Interest, r.LoanAmount, r.LoanRepayment, r.Cost)...)
}

const listInterest = `SELECT ` + baseColumns + `, type, name, cost_in, cost_out, credit_in FROM interest ORDER BY id`

func (q *Queries) ListInterest(ctx context.Context) ([]core.Interest, error) {
	return list(ctx, q.db, listInterest, func(r *core.Interest) []any {
		return append(baseDest(&r.Base), &r.Type, &r.Name, &r.CostIn, &r.CostOut, &r.CreditIn)
	})
}

const insertInterest = `INSERT INTO interest (` + baseColumns + `, type, name, cost_in, cost_out, credit_in)
VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertInterest(ctx context.Context, r core.Interest) (int64, error) {
	return insert(ctx, q.db, insertInterest,
		append(baseArgs(r.Base), r.Type, r.Name, r.CostIn, r.CostOut, r.CreditIn)...)
}

const listTax = `SELECT ` + baseColumns + `, type, name, amount, refund FROM tax ORDER BY id`

func (q *Queries) ListTax(ctx context.Context) ([]core.Tax, error) {
	return list(ctx, q.db, listTax, func(r *core.Tax) []any {
		return append(baseDest(&r.Base), &r.Type, &r.Name, &r.Amount, &r.Refund)
	})
}

const insertTax = `INSERT INTO tax (` + baseColumns + `, type, name, amount, refund)
VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTax(ctx context.Context, r core.Tax) (int64, error) {
	return insert(ctx, q.db, insertTax, append(baseArgs(r.Base), r.Type, r.Name, r.Amount, r.Refund)...)
}

const listOther = `SELECT ` + baseColumns + `, kind, type, name, amount FROM other_records ORDER BY id`

func (q *Queries) ListOther(ctx context.Context) ([]core.Other, error) {
	return list(ctx, q.db, listOther, func(r *core.Other) []any {
		return append(baseDest(&r.Base), &r.Kind, &r.Type, &r.Name, &r.Amount)
	})
}

const insertOther = `INSERT INTO other_records (` + baseColumns + `, kind, type, name, amount)
VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertOther(ctx context.Context, r core.Other) (int64, error) {
	return insert(ctx, q.db, insertOther, append(baseArgs(r.Base), r.Kind, r.Type, r.Name, r.Amount)...)
}

const claimBatch = `INSERT INTO ingest_batches (id, kind, records) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`

// ClaimBatch records a batch id and reports whether it was new.
func (q *Queries) ClaimBatch(ctx context.Context, id, kind string, records int) (bool, error) {
	res, err := q.db.ExecContext(ctx, claimBatch, id, kind, records)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

const countBatches = `SELECT COUNT(*) FROM ingest_batches`

func (q *Queries) CountBatches(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countBatches).Scan(&n)
	return n, err
}

const listBatches = `SELECT id, kind, records, strftime('%Y-%m-%dT%H:%M:%SZ', received_at)
FROM ingest_batches ORDER BY received_at DESC, rowid DESC LIMIT ?`

// BatchRow is one row of ingest_batches; ReceivedAt is RFC 3339 in UTC.
type BatchRow struct {
	ID         string
	Kind       string
	Records    int
	ReceivedAt string
}

func (q *Queries) ListBatches(ctx context.Context, limit int) ([]BatchRow, error) {
	return list(ctx, q.db, listBatches, func(b *BatchRow) []any {
		return []any{&b.ID, &b.Kind, &b.Records, &b.ReceivedAt}
	}, limit)
}

// insertSnapshot writes every record of s and returns how many were stored.
func (q *Queries) insertSnapshot(ctx context.Context, s core.Snapshot) (int, error) {
	n := 0
	step := func(kind string, err error) error {
		if err != nil {
			return fmt.Errorf("insert %s: %w", kind, err)
		}
		n++
		return nil
	}
	for _, r := range s.Income {
		if err := step("income", discard(q.InsertIncome(ctx, r))); err != nil {
			return n, err
		}
	}
	for _, r := range s.Expense {
		if err := step("expense", discard(q.InsertExpense(ctx, r))); err != nil {
			return n, err
		}
	}
	for _, r := range s.Investment {
		if err := step("investment", discard(q.InsertInvestment(ctx, r))); err != nil {
			return n, err
		}
	}
	for _, r := range s.Loan {
		if err := step("loan", discard(q.InsertLoan(ctx, r))); err != nil {
			return n, err
		}
	}
	for _, r := range s.Interest {
		if err := step("interest", discard(q.InsertInterest(ctx, r))); err != nil {
			return n, err
		}
	}
	for _, r := range s.Tax {
		if err := step("tax", discard(q.InsertTax(ctx, r))); err != nil {
			return n, err
		}
	}
	for _, r := range s.Other {
		if err := step(r.Kind, discard(q.InsertOther(ctx, r))); err != nil {
			return n, err
		}
	}
	return n, nil
}

func discard(_ int64, err error) error { return err }
