package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Not found.")
		return
	}
	switch r.Method {
	case http.MethodGet:
		ctx, cancel := s.withTimeout(r)
		defer cancel()
		t, err := s.transactions.Get(ctx, id)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransactionView(t))
	case http.MethodPut:
		s.updateTransaction(w, r, id)
	case http.MethodDelete:
		ctx, cancel := s.withTimeout(r)
		defer cancel()
		if err := s.transactions.Delete(ctx, id); err != nil {
			writeStoreError(w, r, err)
			return
		}
		s.invalidate()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, "GET, PUT, DELETE")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	page, ok := parsePage(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Invalid page.")
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	txs, err := s.transactions.List(ctx, f)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	p, ok := paginate(r, mapSlice(txs, toTransactionView), page)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Invalid page.")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	t, ok := s.readTransaction(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	saved, err := s.transactions.Create(ctx, t)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidate()
	s.countCreated()

	applog.FromContext(ctx).InfoContext(ctx, "Transaction created",
		applog.FieldTransactionID, saved.ID,
		applog.FieldAmountCents, saved.Amount.Cents,
		applog.FieldCategoryID, saved.CategoryID)
	writeJSON(w, http.StatusCreated, toTransactionView(saved))
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, id int64) {
	t, ok := s.readTransaction(w, r)
	if !ok {
		return
	}
	t.ID = id

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	saved, err := s.transactions.Update(ctx, t)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusOK, toTransactionView(saved))
}

// readTransaction decodes and validates a transaction body, writing the
// error response itself when it fails.
func (s *Server) readTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, bool) {
	var in transactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return core.Transaction{}, false
	}
	t, err := in.toTransaction()
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return core.Transaction{}, false
	}
	return t, true
}

// validationStatus picks 400 for undecodable bodies and 422 otherwise.
func validationStatus(err error) int {
	if errors.Is(err, errBadRequest) {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}
