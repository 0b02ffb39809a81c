package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"fintrack/internal/ledger"
	"fintrack/internal/sources"
)

type facetsCmd struct {
	app           *App
	financialYear string
}

func (*facetsCmd) Name() string     { return "facets" }
func (*facetsCmd) Synopsis() string { return "list the values each ledger facet can take" }
func (*facetsCmd) Usage() string {
	return `fintrack-cli facets [-financial-year <label>]

  Lists the types, months, years, categories and descriptions that can be
  passed to the ledger command.
`
}

func (c *facetsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.financialYear, "financial-year", "", "Only fetch records of this financial year.")
}

func (c *facetsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, err := c.app.loadSnapshot(ctx, sources.Query{FinancialYear: c.financialYear})
	if err != nil {
		return c.app.failf("load records: %v", err)
	}
	p := newPrinter(c.app.Out, c.app.Config.Currency)
	p.facets(ledger.Facets(ledger.Normalize(res.Snapshot)), ledger.KindOptions(), ledger.MonthOptions())
	return subcommands.ExitSuccess
}
