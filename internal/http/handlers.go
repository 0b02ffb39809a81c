package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"fintrack/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady pings every configured backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.pingers)+1)

	if s.loader == nil {
		checks["loader"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}
	for name, p := range s.pingers {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldBackend, name, log.FieldError, err)
			checks[name] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, r, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traceMetrics := s.traceMiddleware.GetMetrics()
	counter(w, "http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter(w, "http_server_errors_total", "Total number of 5xx responses", traceMetrics.ServerErrors)
	gauge(w, "http_average_response_time_microseconds", "Mean response time", float64(traceMetrics.AverageResponseTime))

	counter(w, "ingest_batches_queued_total", "Record batches handed to the queue", s.appMetrics.batchesQueued.Load())
	counter(w, "ingest_batches_stored_total", "Record batches stored directly", s.appMetrics.batchesStored.Load())
	counter(w, "ingest_batches_rejected_total", "Record batches rejected as invalid", s.appMetrics.batchesRejected.Load())
	counter(w, "snapshot_fetch_failures_total", "Snapshot loads that failed", s.appMetrics.fetchFailures.Load())

	if sized, ok := s.loader.(interface{ CacheSize() int }); ok {
		gauge(w, "snapshot_cache_entries", "Cached record snapshots", float64(sized.CacheSize()))
	}
	if s.limiter != nil {
		m := s.limiter.GetMetrics()
		counter(w, "rate_limit_hits_total", "Total rate limit hits", m.TotalHits)
		gauge(w, "active_rate_limit_clients", "Currently tracked rate limit clients", float64(m.ClientCount))
	}

	names := make([]string, 0, len(s.pingers))
	for name := range s.pingers {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "# HELP backend_configured Configured backends\n# TYPE backend_configured gauge\n")
	for _, name := range names {
		fmt.Fprintf(w, "backend_configured{name=%q} 1\n", name)
	}
	fmt.Fprintln(w)

	gauge(w, "uptime_seconds", "Application uptime in seconds", time.Since(s.appMetrics.uptime).Seconds())
}

func counter(w http.ResponseWriter, name, help string, v int64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
}

func gauge(w http.ResponseWriter, name, help string, v float64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %.0f\n\n", name, help, name, name, v)
}
