package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type column struct {
	title string
	width int
	align lipgloss.Position
}

var ledgerColumns = []column{
	{"DATE", 10, lipgloss.Left},
	{"TYPE", 10, lipgloss.Left},
	{"FLOW", 6, lipgloss.Left},
	{"CATEGORY", 18, lipgloss.Left},
	{"DESCRIPTION", 28, lipgloss.Left},
	{"AMOUNT", 16, lipgloss.Right},
}

// printer renders ledger output. Colours are only emitted when out is a
// terminal that supports them.
type printer struct {
	out      io.Writer
	currency string

	header lipgloss.Style
	cell   lipgloss.Style
	up     lipgloss.Style
	down   lipgloss.Style
	label  lipgloss.Style
	muted  lipgloss.Style
}

func newPrinter(out io.Writer, currency string) *printer {
	r := lipgloss.NewRenderer(out)
	return &printer{
		out:      out,
		currency: currency,
		header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#87CEEB")),
		cell:     r.NewStyle(),
		up:       r.NewStyle().Foreground(lipgloss.Color("#22C55E")),
		down:     r.NewStyle().Foreground(lipgloss.Color("#F15B5B")),
		label:    r.NewStyle().Bold(true),
		muted:    r.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
	}
}

func (p *printer) flowStyle(d core.Direction) lipgloss.Style {
	if d == core.Up {
		return p.up
	}
	return p.down
}

func (p *printer) row(style func(i int) lipgloss.Style, values ...string) {
	cells := make([]string, len(ledgerColumns))
	for i, col := range ledgerColumns {
		cells[i] = style(i).Width(col.width).Align(col.align).Render(truncate(values[i], col.width))
	}
	fmt.Fprintln(p.out, strings.TrimRight(strings.Join(cells, "  "), " "))
}

func (p *printer) transactions(txs []core.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(p.out, p.muted.Render("No transactions match the selected filters."))
		return
	}
	titles := make([]string, len(ledgerColumns))
	for i, col := range ledgerColumns {
		titles[i] = col.title
	}
	p.row(func(int) lipgloss.Style { return p.header }, titles...)

	for _, t := range txs {
		flow := p.flowStyle(t.Direction)
		p.row(func(i int) lipgloss.Style {
			if i == 2 || i == 5 {
				return flow
			}
			return p.cell
		}, t.Date, t.Kind.String(), t.Direction.String(), t.Category, t.Description, p.signed(t))
	}
}

func (p *printer) signed(t core.Transaction) string {
	amount := core.FormatAmount(t.Amount, p.currency)
	if t.Direction == core.Down {
		return "-" + amount
	}
	return "+" + amount
}

func (p *printer) stats(s ledger.Stats, shown, total int) {
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "%s %d of %d\n", p.label.Render("Transactions:"), shown, total)
	fmt.Fprintf(p.out, "%s %s\n", p.label.Render("Sum:"), core.FormatAmount(s.Sum, p.currency))
	fmt.Fprintf(p.out, "%s %s\n", p.label.Render("Average:"), core.FormatAmount(s.Average, p.currency))
	fmt.Fprintf(p.out, "%s %s over %d month(s)\n", p.label.Render("Monthly average:"),
		core.FormatAmount(s.MonthlyAverage, p.currency), s.MonthCount)

	net := p.up
	if s.Net.IsNegative() {
		net = p.down
	}
	fmt.Fprintf(p.out, "%s %s  %s %s  %s %s\n",
		p.label.Render("In:"), p.up.Render(core.FormatAmount(s.Inflow, p.currency)),
		p.label.Render("Out:"), p.down.Render(core.FormatAmount(s.Outflow, p.currency)),
		p.label.Render("Net:"), net.Render(core.FormatAmount(s.Net, p.currency)))
}

func (p *printer) facets(f ledger.FacetOptions, kinds, months []ledger.Option) {
	kindValues := make([]string, len(kinds))
	for i, k := range kinds {
		kindValues[i] = k.Value
	}
	monthValues := make([]string, len(months))
	for i, m := range months {
		monthValues[i] = m.Value + " " + m.Label
	}
	p.list("Types", kindValues)
	p.list("Months", monthValues)
	p.list("Years", f.Years)
	p.list("Categories", f.Categories)
	p.list("Descriptions", f.Descriptions)
}

func (p *printer) list(title string, values []string) {
	fmt.Fprintln(p.out, p.header.Render(title))
	if len(values) == 0 {
		fmt.Fprintln(p.out, "  "+p.muted.Render("(none)"))
		return
	}
	for _, v := range values {
		fmt.Fprintln(p.out, "  "+v)
	}
}

// truncate shortens s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
