package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/reinanbr/money-std/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	typeFilter := core.TransactionType(r.URL.Query().Get("type"))

	key := r.URL.Path + "?" + r.URL.RawQuery
	if body, ok := s.readCache.Get(key); ok {
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	cats, err := s.finance.ListCategories(r.Context(), typeFilter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}

	body, err := json.Marshal(cats)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.readCache.Set(key, body)
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	created, err := s.finance.CreateCategory(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReads()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid category id"})
		return
	}

	ok, err := s.finance.DeleteCategory(r.Context(), id)
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
