package http

import (
	"net/http"

	"fintrack/internal/log"
)

// handleIngest accepts a JSON array of raw records for the kind in the path.
// Queued batches answer 202, batches stored directly 201.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		writeError(w, r, http.StatusServiceUnavailable, "ingest is not configured")
		return
	}
	kind := sanitizeInput(r.PathValue("kind"))

	body, err := readBody(w, r, maxIngestBody)
	if err != nil {
		status := statusForError(err)
		writeError(w, r, status, publicMessage(status, err))
		return
	}

	receipt, err := s.ingest.Ingest(r.Context(), kind, body)
	if err != nil {
		status := statusForError(err)
		if status < 500 {
			s.appMetrics.batchesRejected.Add(1)
		} else {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to ingest batch",
				log.FieldOperation, log.OpIngest, log.FieldKind, kind, log.FieldError, err)
		}
		writeError(w, r, status, publicMessage(status, err))
		return
	}

	status := http.StatusCreated
	if receipt.Queued {
		status = http.StatusAccepted
		s.appMetrics.batchesQueued.Add(1)
	} else {
		s.appMetrics.batchesStored.Add(1)
	}
	writeJSON(w, r, status, receipt)
}

// handleBatches lists recent ingest batches, newest first.
func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	if s.batches == nil {
		writeError(w, r, http.StatusServiceUnavailable, "batch history is not available for this backend")
		return
	}
	limit, err := ParseLimit(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	batches, err := s.batches.ListBatches(r.Context(), limit)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list batches", log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, publicMessage(http.StatusInternalServerError, err))
		return
	}
	writeJSON(w, r, http.StatusOK, BatchesResponse{Batches: batches, Count: len(batches)})
}
