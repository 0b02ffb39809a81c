package http

import (
	"encoding/json"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/sources"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to w.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) error {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.body == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := NewJSONResponse().Status(status).Body(v).Write(w); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, ErrorResponse{
		Error:     message,
		Status:    status,
		RequestID: trace.GetRequestID(r.Context()),
	})
}

// TransactionDTO is a transaction with its amount rendered for display.
type TransactionDTO struct {
	core.Transaction
	AmountDisplay string `json:"amount_display"`
}

// StatsDTO carries the statistics with display renderings of the money fields.
type StatsDTO struct {
	ledger.Stats
	SumDisplay            string `json:"sum_display"`
	AverageDisplay        string `json:"average_display"`
	MonthlyAverageDisplay string `json:"monthly_average_display"`
	NetDisplay            string `json:"net_display"`
}

type TransactionsResponse struct {
	Transactions []TransactionDTO    `json:"transactions"`
	Stats        StatsDTO            `json:"stats"`
	Facets       ledger.FacetOptions `json:"facets"`
	Months       []ledger.Option     `json:"months"`
	Kinds        []ledger.Option     `json:"types"`
	Total        int                 `json:"total"`
	Sort         string              `json:"sort"`
	NextSort     string              `json:"next_sort"`
	Failed       []core.Kind         `json:"failed_collections,omitempty"`
}

type FacetsResponse struct {
	ledger.FacetOptions
	Months []ledger.Option `json:"months"`
	Kinds  []ledger.Option `json:"types"`
}

// MonthDTO is one row of the monthly summary.
type MonthDTO struct {
	ledger.MonthTotal
	NetAmount  string `json:"net"`
	NetDisplay string `json:"net_display"`
}

type MonthlySummaryResponse struct {
	Months []MonthDTO `json:"months"`
	Stats  StatsDTO   `json:"stats"`
}

// YearDTO is one row of the yearly summary.
type YearDTO struct {
	ledger.YearTotal
	NetAmount  string `json:"net"`
	NetDisplay string `json:"net_display"`
}

type YearlySummaryResponse struct {
	Years         []YearDTO `json:"years"`
	Stats         StatsDTO  `json:"stats"`
	FinancialYear string    `json:"financial_year,omitempty"`
}

type BatchesResponse struct {
	Batches []sources.Batch `json:"batches"`
	Count   int             `json:"count"`
}

func newTransactionsResponse(v ledger.View, q ledger.Query, failed []core.Kind, currency string) TransactionsResponse {
	txs := make([]TransactionDTO, len(v.Transactions))
	for i, t := range v.Transactions {
		txs[i] = TransactionDTO{Transaction: t, AmountDisplay: core.FormatAmount(t.Amount, currency)}
	}
	return TransactionsResponse{
		Transactions: txs,
		Stats:        newStatsDTO(v.Stats, currency),
		Facets:       v.Facets,
		Months:       v.Months,
		Kinds:        v.Kinds,
		Total:        v.Total,
		Sort:         q.Sort.String(),
		NextSort:     q.Sort.Toggle().String(),
		Failed:       failed,
	}
}

func newStatsDTO(s ledger.Stats, currency string) StatsDTO {
	return StatsDTO{
		Stats:                 s,
		SumDisplay:            core.FormatAmount(s.Sum, currency),
		AverageDisplay:        core.FormatAmount(s.Average, currency),
		MonthlyAverageDisplay: core.FormatAmount(s.MonthlyAverage, currency),
		NetDisplay:            core.FormatAmount(s.Net, currency),
	}
}

func newMonthlySummaryResponse(months []ledger.MonthTotal, s ledger.Stats, currency string) MonthlySummaryResponse {
	out := make([]MonthDTO, len(months))
	for i, m := range months {
		net := m.Net()
		out[i] = MonthDTO{MonthTotal: m, NetAmount: net.String(), NetDisplay: core.FormatAmount(net, currency)}
	}
	return MonthlySummaryResponse{Months: out, Stats: newStatsDTO(s, currency)}
}

func newYearlySummaryResponse(years []ledger.YearTotal, s ledger.Stats, financialYear, currency string) YearlySummaryResponse {
	out := make([]YearDTO, len(years))
	for i, y := range years {
		net := y.Net()
		out[i] = YearDTO{YearTotal: y, NetAmount: net.String(), NetDisplay: core.FormatAmount(net, currency)}
	}
	return YearlySummaryResponse{Years: out, Stats: newStatsDTO(s, currency), FinancialYear: financialYear}
}
