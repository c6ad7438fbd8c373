package http

import (
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/summary"
)

const maxRecent = 50

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	rng := parseRange(r)
	key := rng.String()
	if cached, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toDashboardSummaryView(cached))
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	res, err := s.dashboard.Summary(ctx, rng)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.summaryCache.Set(key, res)
	writeJSON(w, http.StatusOK, toDashboardSummaryView(res))
}

func (s *Server) handleDashboardOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	ctx, cancel := s.withTimeout(r)
	defer cancel()
	months, err := s.dashboard.Overview(ctx, parseRange(r))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(months, toMonthView))
}

func (s *Server) handleDashboardBudgets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	year, month, err := parseYearMonth(r, time.Now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := s.withTimeout(r)
	defer cancel()
	statuses, err := s.dashboard.Budgets(ctx, year, month)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(statuses, toBudgetStatusView))
}

func (s *Server) handleDashboardRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecent)
	}
	ctx, cancel := s.withTimeout(r)
	defer cancel()
	txs, err := s.dashboard.Recent(ctx, limit)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(txs, toTransactionView))
}

// handleSummary compares caller-supplied records without touching the store.
// Malformed records contribute nothing; only an undecodable body fails.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "POST")
		return
	}
	var in summaryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	rng := summary.ParseDateRange(in.Start, in.End)
	if !rng.Present() {
		rng = parseRange(r)
	}
	c := summary.Summarize(core.TransactionsFromRecords(in.Transactions), rng)
	writeJSON(w, http.StatusOK, toSummaryView(c))
}
