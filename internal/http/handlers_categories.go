package http

import (
	"net/http"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	store := s.transactions.Store()
	switch r.Method {
	case http.MethodGet:
		page, ok := parsePage(r)
		if !ok {
			writeError(w, r, http.StatusNotFound, "Invalid page.")
			return
		}
		ctx, cancel := s.withTimeout(r)
		defer cancel()
		cats, err := store.ListCategories(ctx)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		p, ok := paginate(r, mapSlice(cats, toCategoryView), page)
		if !ok {
			writeError(w, r, http.StatusNotFound, "Invalid page.")
			return
		}
		writeJSON(w, http.StatusOK, p)

	case http.MethodPost:
		var in categoryInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, validationStatus(err), err.Error())
			return
		}
		c, err := in.toCategory()
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		ctx, cancel := s.withTimeout(r)
		defer cancel()
		saved, err := store.CreateCategory(ctx, c)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		s.invalidate()
		writeJSON(w, http.StatusCreated, toCategoryView(saved))

	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Not found.")
		return
	}
	store := s.transactions.Store()
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		c, err := store.GetCategory(ctx, id)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toCategoryView(c))
	case http.MethodDelete:
		if err := store.DeleteCategory(ctx, id); err != nil {
			writeStoreError(w, r, err)
			return
		}
		s.invalidate()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, "GET, DELETE")
	}
}
