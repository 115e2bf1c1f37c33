package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/reinanbr/money-std/internal/core"
)

func (s *Server) handleCategoryStats(w http.ResponseWriter, r *http.Request) {
	typeParam := r.URL.Query().Get("type")
	if typeParam == "" {
		typeParam = string(core.Expense)
	}

	key := r.URL.Path + "?type=" + typeParam
	if body, ok := s.readCache.Get(key); ok {
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	breakdown, err := s.finance.CategoryBreakdown(r.Context(), core.TransactionType(typeParam))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if breakdown == nil {
		breakdown = []core.CategorySummary{}
	}

	body, err := json.Marshal(breakdown)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.readCache.Set(key, body)
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	months := 6
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 120 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "months must be between 1 and 120"})
			return
		}
		months = n
	}

	key := r.URL.Path + "?months=" + strconv.Itoa(months)
	if body, ok := s.readCache.Get(key); ok {
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	summary, err := s.finance.MonthlySummary(r.Context(), months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if summary == nil {
		summary = []core.MonthSummary{}
	}

	body, err := json.Marshal(summary)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.readCache.Set(key, body)
	writeRawJSON(w, http.StatusOK, body)
}
