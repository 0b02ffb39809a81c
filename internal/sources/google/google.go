// Package google reads and appends raw records in a Google Sheets
// spreadsheet holding one tab per record kind. The first row of every tab
// names the JSON fields of the records below it.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/sources"
)

var ErrNotInitialized = errors.New("sheets service not initialized")

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabs          map[core.Kind]string
}

var (
	_ sources.RecordSource   = (*Client)(nil)
	_ sources.RecordAppender = (*Client)(nil)
	_ sources.Pinger         = (*Client)(nil)
)

// Config selects the spreadsheet and, optionally, renames tabs.
// Tabs default to the kind title ("Income", "Expense", ...).
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	Tabs            map[core.Kind]string
	Options         []goption.ClientOption
}

// New creates a client. Credentials come from Config, then
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS. Extra Options are appended last, which lets
// tests point the client at a local endpoint.
func New(ctx context.Context, cfg Config) (*Client, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	opts := cfg.Options
	if len(opts) == 0 {
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, id, cfg.Tabs), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, tabs map[core.Kind]string) *Client {
	c := &Client{svc: svc, spreadsheetID: spreadsheetID, tabs: make(map[core.Kind]string, len(core.Kinds))}
	for _, k := range core.Kinds {
		name := strings.TrimSpace(tabs[k])
		if name == "" {
			name = k.Title()
		}
		c.tabs[k] = name
	}
	return c
}

func credentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	if inline == "" {
		inline = strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	}
	if inline != "" {
		slog.DebugContext(ctx, "Using inline service account credentials", "component", "sources")
		return []byte(inline), nil
	}
	file := strings.TrimSpace(cfg.CredentialsFile)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	}
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// Tab returns the tab name used for k.
func (c *Client) Tab(k core.Kind) string { return c.tabs[k] }

// Fetch reads the tab of kind and decodes every data row.
func (c *Client) Fetch(ctx context.Context, kind core.Kind, q sources.Query) (core.Snapshot, error) {
	if c.svc == nil {
		return core.Snapshot{}, ErrNotInitialized
	}
	tab, ok := c.tabs[kind]
	if !ok {
		return core.Snapshot{}, fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
	}
	rng := tab + "!A:Z"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read %s: %w", rng, err)
	}
	raw, err := rowsToJSON(resp.Values)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("parse %s: %w", rng, err)
	}
	s, err := core.DecodeRecords(kind, raw)
	if err != nil {
		return core.Snapshot{}, err
	}
	return q.Apply(s), nil
}

// AppendRecords appends every record of s below the existing rows of its tab,
// laying out the values in the tab's header order.
func (c *Client) AppendRecords(ctx context.Context, s core.Snapshot) (int, error) {
	if c.svc == nil {
		return 0, ErrNotInitialized
	}
	written := 0
	for _, k := range s.Kinds() {
		records, err := recordsOf(s, k)
		if err != nil {
			return written, err
		}
		if len(records) == 0 {
			continue
		}
		tab := c.tabs[k]
		hdr, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, tab+"!1:1").Context(ctx).Do()
		if err != nil {
			return written, fmt.Errorf("read header of %s: %w", tab, err)
		}
		if len(hdr.Values) == 0 {
			return written, fmt.Errorf("tab %s has no header row", tab)
		}
		header := headerKeys(hdr.Values[0])
		rows := make([][]any, 0, len(records))
		for _, r := range records {
			row, err := recordRow(header, r)
			if err != nil {
				return written, fmt.Errorf("lay out %s record: %w", k, err)
			}
			rows = append(rows, row)
		}
		_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, tab+"!A:A", &gsheet.ValueRange{Values: rows}).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return written, fmt.Errorf("append to %s: %w", tab, err)
		}
		written += len(rows)
	}
	return written, nil
}

// Ping reads the spreadsheet metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c.svc == nil {
		return ErrNotInitialized
	}
	if _, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	return nil
}

func recordsOf(s core.Snapshot, k core.Kind) ([]any, error) {
	switch k {
	case core.KindIncome:
		return anySlice(s.Income), nil
	case core.KindExpense:
		return anySlice(s.Expense), nil
	case core.KindInvestment:
		return anySlice(s.Investment), nil
	case core.KindLoan:
		return anySlice(s.Loan), nil
	case core.KindInterest:
		return anySlice(s.Interest), nil
	case core.KindTax:
		return anySlice(s.Tax), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownKind, k)
	}
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i := range in {
		out[i] = in[i]
	}
	return out
}
