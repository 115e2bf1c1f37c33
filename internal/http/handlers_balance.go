package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/reinanbr/money-std/internal/core"
)

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if body, ok := s.readCache.Get(r.URL.Path); ok {
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	b, err := s.finance.GetBalance(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err := json.Marshal(b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.readCache.Set(r.URL.Path, body)
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleBalanceHistory(w http.ResponseWriter, r *http.Request) {
	days := s.historyDefaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 3650 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "days must be between 1 and 3650"})
			return
		}
		days = n
	}

	key := r.URL.Path + "?days=" + strconv.Itoa(days)
	if body, ok := s.readCache.Get(key); ok {
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	history, err := s.finance.BalanceHistory(r.Context(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if history == nil {
		history = []core.BalanceSnapshot{}
	}

	body, err := json.Marshal(history)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.readCache.Set(key, body)
	writeRawJSON(w, http.StatusOK, body)
}
