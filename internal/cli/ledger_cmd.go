package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/sources"
)

type ledgerCmd struct {
	app *App

	search        string
	kind          string
	years         multiFlag
	months        multiFlag
	categories    multiFlag
	descriptions  multiFlag
	directions    multiFlag
	sort          string
	financialYear string
}

func (*ledgerCmd) Name() string     { return "ledger" }
func (*ledgerCmd) Synopsis() string { return "print the filtered ledger and its statistics" }
func (*ledgerCmd) Usage() string {
	return `fintrack-cli ledger [-search <text>] [-type <kind>] [-year <yyyy>]... [-month <mm>]...
    [-category <text>]... [-description <text>]... [-direction up|down]... [-sort asc|desc]
    [-financial-year <label>]

  Prints every transaction matching all the given facets, newest first unless
  -sort says otherwise, followed by count, sum, averages and cash flow.
  Repeat a multi-valued flag or separate its values with commas.
`
}

func (c *ledgerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.search, "search", "", "Case-insensitive text searched in description and category.")
	f.StringVar(&c.kind, "type", "all", "Transaction type: all, income, expense, investment, loan, interest or tax.")
	f.Var(&c.years, "year", "Year to include (repeatable).")
	f.Var(&c.months, "month", "Month to include, 1-12 (repeatable).")
	f.Var(&c.categories, "category", "Category substring to include (repeatable).")
	f.Var(&c.descriptions, "description", "Description substring to include (repeatable).")
	f.Var(&c.directions, "direction", "Cash-flow direction to include: up or down (repeatable).")
	f.StringVar(&c.sort, "sort", "", "Date order: asc, desc, or empty for newest first.")
	f.StringVar(&c.financialYear, "financial-year", "", "Only fetch records of this financial year.")
}

func (c *ledgerCmd) query() (ledger.Query, error) {
	kind, err := core.ParseKind(c.kind)
	if err != nil {
		return ledger.Query{}, err
	}
	sort, err := ledger.ParseSortDirection(c.sort)
	if err != nil {
		return ledger.Query{}, err
	}
	f := ledger.FilterState{
		Search:       c.search,
		Kind:         kind,
		Years:        c.years,
		Months:       c.months,
		Categories:   c.categories,
		Descriptions: c.descriptions,
	}
	for _, d := range c.directions {
		dir, err := core.ParseDirection(d)
		if err != nil {
			return ledger.Query{}, err
		}
		f.Directions = append(f.Directions, dir)
	}
	return ledger.Query{Filter: f, Sort: sort}, nil
}

func (c *ledgerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	q, err := c.query()
	if err != nil {
		return c.app.usagef("%v", err)
	}
	res, err := c.app.loadSnapshot(ctx, sources.Query{FinancialYear: c.financialYear})
	if err != nil {
		return c.app.failf("load records: %v", err)
	}

	view := ledger.Build(res.Snapshot, q)
	p := newPrinter(c.app.Out, c.app.Config.Currency)
	p.transactions(view.Transactions)
	p.stats(view.Stats, len(view.Transactions), view.Total)
	return subcommands.ExitSuccess
}
