package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	applog "fintrack/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, r, "GET, HEAD")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, r, "GET, HEAD")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.transactions.Store().Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleMetrics renders counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	tm := s.traceMiddleware.GetMetrics()
	rm := s.rateLimiter.GetMetrics()
	cs := s.summaryCache.Stats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "fintrack_uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
	fmt.Fprintf(w, "fintrack_http_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "fintrack_http_client_errors_total %d\n", tm.ClientErrors)
	fmt.Fprintf(w, "fintrack_http_server_errors_total %d\n", tm.ServerErrors)
	fmt.Fprintf(w, "fintrack_http_response_time_avg_ms %d\n", tm.AverageResponseTime.Milliseconds())
	fmt.Fprintf(w, "fintrack_rate_limit_rejected_total %d\n", rm.Rejected)
	fmt.Fprintf(w, "fintrack_rate_limit_clients %d\n", rm.ClientCount)
	fmt.Fprintf(w, "fintrack_suspicious_requests_total %d\n", s.securityDetector.SuspiciousRequests())
	fmt.Fprintf(w, "fintrack_summary_cache_hits_total %d\n", cs.Hits)
	fmt.Fprintf(w, "fintrack_summary_cache_misses_total %d\n", cs.Misses)
	fmt.Fprintf(w, "fintrack_summary_cache_entries %d\n", s.summaryCache.Size())
	fmt.Fprintf(w, "fintrack_transactions_created_total %d\n", atomic.LoadInt64(&s.created))
}
