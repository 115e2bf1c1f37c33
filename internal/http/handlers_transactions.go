package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/reinanbr/money-std/internal/core"
	"github.com/reinanbr/money-std/internal/storage"
)

// parseTransactionFilters reads the optional type, category_id, start_date
// and end_date query parameters.
func parseTransactionFilters(r *http.Request) (storage.TransactionFilters, error) {
	q := r.URL.Query()
	f := storage.TransactionFilters{
		Type:      core.TransactionType(q.Get("type")),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return storage.TransactionFilters{}, err
		}
		f.CategoryID = &id
	}
	return f, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filters, err := parseTransactionFilters(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid category_id"})
		return
	}

	list, err := s.finance.ListTransactions(r.Context(), filters)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	created, err := s.finance.AddTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReads()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid transaction id"})
		return
	}

	var t core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	ok, err := s.finance.UpdateTransaction(r.Context(), id, t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeNotFound(w)
		return
	}

	s.invalidateReads()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid transaction id"})
		return
	}

	ok, err := s.finance.DeleteTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeNotFound(w)
		return
	}

	s.invalidateReads()
	w.WriteHeader(http.StatusNoContent)
}
