package http

import (
	"net/http"
	"strconv"

	applog "fintrack/internal/log"
)

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	store := s.transactions.Store()
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		year, _ := strconv.Atoi(q.Get("year"))
		month, _ := strconv.Atoi(q.Get("month"))
		page, ok := parsePage(r)
		if !ok {
			writeError(w, r, http.StatusNotFound, "Invalid page.")
			return
		}

		ctx, cancel := s.withTimeout(r)
		defer cancel()
		budgets, err := store.ListBudgets(ctx, year, month)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		p, ok := paginate(r, mapSlice(budgets, toBudgetView), page)
		if !ok {
			writeError(w, r, http.StatusNotFound, "Invalid page.")
			return
		}
		writeJSON(w, http.StatusOK, p)

	case http.MethodPost:
		var in budgetInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, validationStatus(err), err.Error())
			return
		}
		b, err := in.toBudget()
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}

		ctx, cancel := s.withTimeout(r)
		defer cancel()
		saved, created, err := store.UpsertBudget(ctx, b)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		s.invalidate()

		applog.FromContext(ctx).InfoContext(ctx, "Budget saved",
			applog.FieldCategoryID, saved.CategoryID,
			applog.FieldYear, saved.Year,
			applog.FieldMonth, saved.Month,
			"created", created)
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, toBudgetView(saved))

	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Not found.")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, "DELETE")
		return
	}
	ctx, cancel := s.withTimeout(r)
	defer cancel()
	if err := s.transactions.Store().DeleteBudget(ctx, id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}
