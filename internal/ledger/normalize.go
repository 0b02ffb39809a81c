// Package ledger turns raw record snapshots into the unified transaction
// ledger and derives facet options, filtered and sorted views, and statistics
// from it.
//
// Every function in this package is pure: inputs are never mutated and the
// same inputs always produce the same outputs. Nothing here returns an error;
// malformed input degrades to zero values.
package ledger

import (
	"strings"

	"fintrack/internal/core"
)

// Normalize maps every raw record of s to a Transaction. Collections are
// emitted in kind order, each in source order. Absent collections yield nothing.
func Normalize(s core.Snapshot) []core.Transaction {
	out := make([]core.Transaction, 0, s.Len())
	for _, r := range s.Income {
		out = append(out, fromIncome(r))
	}
	for _, r := range s.Expense {
		out = append(out, fromExpense(r))
	}
	for _, r := range s.Investment {
		out = append(out, fromInvestment(r))
	}
	for _, r := range s.Loan {
		out = append(out, fromLoan(r))
	}
	for _, r := range s.Interest {
		out = append(out, fromInterest(r))
	}
	for _, r := range s.Tax {
		out = append(out, fromTax(r))
	}
	for _, r := range s.Other {
		out = append(out, fromOther(r))
	}
	return out
}

func fromIncome(r core.Income) core.Transaction {
	t := base(r.Base, core.KindIncome)
	t.Direction = core.Up
	if r.IsLegacy() {
		t.Description = "Salary"
		t.Category = "Income"
		t.Amount = r.Salary.Amount()
		return t
	}
	t.Description = label(r.Name, "Income")
	t.Category = label(r.Type, "Income")
	t.Amount = r.Amount.Amount()
	return t
}

func fromExpense(r core.Expense) core.Transaction {
	t := base(r.Base, core.KindExpense)
	t.Description = label(r.Category, "Expense")
	t.Category = label(r.Type, "Other")
	t.Amount = r.Cost.Amount()
	t.Direction = core.Down
	return t
}

func fromInvestment(r core.Investment) core.Transaction {
	t := base(r.Base, core.KindInvestment)
	t.Description = label(r.Name, "Investment")
	t.Category = label(r.Type, "Investment")
	t.Amount = r.Cost.Amount()
	if strings.EqualFold(strings.TrimSpace(r.TypeOfOrder.String()), "buy") {
		t.Direction = core.Down
	} else {
		t.Direction = core.Up
	}
	return t
}

func fromLoan(r core.Loan) core.Transaction {
	t := base(r.Base, core.KindLoan)
	name := label(r.Name, "Loan")
	t.Category = label(r.Type, "Loan")
	if !r.LoanAmount.IsZero() {
		t.Description = "Borrowed By " + name
		t.Amount = r.LoanAmount.Amount()
		t.Direction = core.Down
	} else {
		t.Description = "Repayment To " + name
		t.Amount = r.LoanRepayment.Amount()
		t.Direction = core.Up
	}
	return t
}

func fromInterest(r core.Interest) core.Transaction {
	t := base(r.Base, core.KindInterest)
	t.Description = label(r.Name, "Interest")
	t.Category = label(r.Type, "Interest")
	if !r.CostIn.IsZero() {
		t.Amount = r.CostIn.Amount()
		t.Direction = core.Up
	} else {
		t.Amount = r.CostOut.Amount()
		t.Direction = core.Down
	}
	return t
}

// A zero tax amount is read as a refund. This mirrors the records as they are
// written upstream and is not a typo.
func fromTax(r core.Tax) core.Transaction {
	t := base(r.Base, core.KindTax)
	t.Description = label(r.Name, "Tax")
	t.Category = label(r.Type, "Tax")
	t.Amount = r.Amount.Amount()
	if !r.Amount.IsZero() {
		t.Direction = core.Down
	} else {
		t.Direction = core.Up
	}
	return t
}

func fromOther(r core.Other) core.Transaction {
	k := core.Kind(strings.ToLower(strings.TrimSpace(r.Kind)))
	t := base(r.Base, k)
	t.Description = label(r.Name, k.Title())
	t.Category = label(r.Type, k.Title())
	t.Amount = r.Amount.Amount()
	t.Direction = core.DirectionFor(k)
	return t
}

func base(b core.Base, k core.Kind) core.Transaction {
	return core.Transaction{
		ID:   b.ID,
		Date: b.DateKey(),
		Kind: k,
	}
}

func label(p core.Part, fallback string) string {
	if s := strings.TrimSpace(p.String()); s != "" {
		return s
	}
	return fallback
}
