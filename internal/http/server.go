// Package http serves the fintrack JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/cache"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

const (
	defaultRequestTimeout = 7 * time.Second
	summaryCacheSize      = 100
)

// Options tune the server; zero values pick defaults.
type Options struct {
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	CacheTTL           time.Duration
	Logger             *applog.Logger
}

type Server struct {
	http.Server

	transactions *services.TransactionService
	dashboard    *services.DashboardService
	logger       *applog.Logger
	timeout      time.Duration

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	// Dashboard summaries keyed by range; purged on every write.
	summaryCache *cache.LRUCache[services.DashboardSummary]
	cacheManager *cache.Manager

	started      time.Time
	created      int64
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, txs *services.TransactionService, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	logger := opts.Logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		transactions:     txs,
		dashboard:        services.NewDashboardService(txs.Store()),
		logger:           logger,
		timeout:          opts.RequestTimeout,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		summaryCache:     cache.NewLRUCache[services.DashboardSummary](summaryCacheSize, opts.CacheTTL),
		cacheManager:     cache.NewManager(opts.Logger),
		started:          time.Now(),
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(opts.CacheTTL)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	api := http.NewServeMux()
	route(api, "/api/v1/categories", s.handleCategories)
	route(api, "/api/v1/categories/{id}", s.handleCategory)
	route(api, "/api/v1/transactions", s.handleTransactions)
	route(api, "/api/v1/transactions/{id}", s.handleTransaction)
	route(api, "/api/v1/budgets", s.handleBudgets)
	route(api, "/api/v1/budgets/{id}", s.handleBudget)
	route(api, "/api/v1/dashboard/summary", s.handleDashboardSummary)
	route(api, "/api/v1/dashboard/overview", s.handleDashboardOverview)
	route(api, "/api/v1/dashboard/budgets", s.handleDashboardBudgets)
	route(api, "/api/v1/dashboard/recent", s.handleDashboardRecent)
	route(api, "/api/v1/summary", s.handleSummary)
	api.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "Not found.")
	})

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		writeError(w, r, http.StatusTooManyRequests, "Request was throttled.")
	})(api)
	mux.Handle("/api/", limited)

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.securityDetector.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// route registers path both with and without a trailing slash.
func route(mux *http.ServeMux, path string, h http.HandlerFunc) {
	mux.HandleFunc(path, h)
	mux.HandleFunc(path+"/{$}", h)
}

// Shutdown stops background goroutines and then the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withTimeout bounds store calls made while serving r
func (s *Server) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

// invalidate drops cached dashboard figures after a write
func (s *Server) invalidate() {
	s.summaryCache.Purge()
}

func (s *Server) countCreated() {
	atomic.AddInt64(&s.created, 1)
}
