package http

import (
	"net/http"

	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/sources"
)

// load fetches the snapshot for r, writing the error response on failure.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (sources.Result, bool) {
	if s.loader == nil {
		writeError(w, r, http.StatusServiceUnavailable, "no record source configured")
		return sources.Result{}, false
	}
	res, err := s.loader.Load(r.Context(), ParseSourceQuery(r.URL.Query()))
	if err != nil {
		s.appMetrics.fetchFailures.Add(1)
		status := statusForError(err)
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load records",
			log.FieldOperation, log.OpFetch, log.FieldError, err)
		writeError(w, r, status, publicMessage(status, err))
		return sources.Result{}, false
	}
	if len(res.Failed) > 0 {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Serving partial snapshot", "failed", res.Failed)
	}
	return res, true
}

// handleTransactions serves the filtered, sorted ledger with statistics.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := ParseLedgerQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := s.load(w, r)
	if !ok {
		return
	}
	view := ledger.Build(res.Snapshot, q)
	writeJSON(w, r, http.StatusOK, newTransactionsResponse(view, q, res.Failed, s.currency))
}

// handleFacets serves the facet option lists of the unfiltered ledger.
func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	res, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, FacetsResponse{
		FacetOptions: ledger.Facets(ledger.Normalize(res.Snapshot)),
		Months:       ledger.MonthOptions(),
		Kinds:        ledger.KindOptions(),
	})
}

// handleMonthlySummary groups the filtered ledger by month.
func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilterState(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := s.load(w, r)
	if !ok {
		return
	}
	txs := ledger.Filter(ledger.Normalize(res.Snapshot), f)
	writeJSON(w, r, http.StatusOK, newMonthlySummaryResponse(ledger.MonthlyBreakdown(txs), ledger.Summarize(txs), s.currency))
}

// handleYearlySummary groups the filtered ledger by calendar year. A
// financial_year parameter narrows the records first.
func (s *Server) handleYearlySummary(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilterState(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := s.load(w, r)
	if !ok {
		return
	}
	txs := ledger.Filter(ledger.Normalize(res.Snapshot), f)
	fy := ParseSourceQuery(r.URL.Query()).FinancialYear
	writeJSON(w, r, http.StatusOK, newYearlySummaryResponse(ledger.YearlyBreakdown(txs), ledger.Summarize(txs), fy, s.currency))
}
