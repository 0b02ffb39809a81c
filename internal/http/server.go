// Package http serves the ledger view and record ingest over a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/sources"
)

// maxIngestBody bounds the size of a posted record batch.
const maxIngestBody = 1 << 20

// SnapshotLoader returns raw record snapshots for a source query.
type SnapshotLoader interface {
	Load(ctx context.Context, q sources.Query) (sources.Result, error)
}

// Ingester accepts a raw record batch of one kind.
type Ingester interface {
	Ingest(ctx context.Context, kindName string, raw []byte) (services.Receipt, error)
}

// Deps are the collaborators of the server. Ingest, Batches, Limiter and
// Pingers are optional.
type Deps struct {
	Loader   SnapshotLoader
	Ingest   Ingester
	Batches  sources.BatchLister
	Limiter  *ratelimit.Limiter
	Pingers  map[string]sources.Pinger
	Currency string
	Logger   *log.Logger
}

type Server struct {
	http.Server
	loader   SnapshotLoader
	ingest   Ingester
	batches  sources.BatchLister
	limiter  *ratelimit.Limiter
	pingers  map[string]sources.Pinger
	currency string
	logger   *log.Logger

	traceMiddleware *trace.Middleware
	appMetrics      *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime          time.Time
	batchesQueued   atomic.Int64
	batchesStored   atomic.Int64
	batchesRejected atomic.Int64
	fetchFailures   atomic.Int64
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.FromContext(context.Background())
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		loader:          deps.Loader,
		ingest:          deps.Ingest,
		batches:         deps.Batches,
		limiter:         deps.Limiter,
		pingers:         deps.Pingers,
		currency:        deps.Currency,
		logger:          logger.WithComponent(log.ComponentHTTP),
		traceMiddleware: trace.NewMiddleware(),
		appMetrics:      &appMetrics{uptime: time.Now()},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/transactions", s.handleTransactions)
	mux.HandleFunc("GET /api/facets", s.handleFacets)
	mux.HandleFunc("GET /api/summary/monthly", s.handleMonthlySummary)
	mux.HandleFunc("GET /api/summary/yearly", s.handleYearlySummary)
	mux.HandleFunc("GET /api/records/batches", s.handleBatches)

	var ingest http.Handler = http.HandlerFunc(s.handleIngest)
	if s.limiter != nil {
		ingest = s.limiter.Middleware(security.ClientIP, s.rateLimited)(ingest)
	}
	mux.Handle("POST /api/records/{kind}", ingest)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = log.AccessLog(handler)
	handler = log.RequestIDMiddleware(trace.FromRequest)(handler)
	handler = log.Middleware(s.logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)
	s.Handler = handler

	return s
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, security.ClientIP(r), log.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
