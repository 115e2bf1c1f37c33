package http

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// maxRestoreBytes caps the restore payload. The whole dataset fits well
// within this for a single-user tracker.
const maxRestoreBytes = 32 << 20

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := s.finance.ExportBackup(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("money_std_backup_%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRestoreBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "failed to read body"})
		return
	}

	if err := s.finance.RestoreBackup(r.Context(), raw); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReads()
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// handleExportCSV streams transactions as a CSV attachment, optionally
// narrowed by the same filters as the listing endpoint. A UTF-8 BOM keeps
// accented category names readable in spreadsheet tools.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
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

	buf := new(bytes.Buffer)
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	if err := writer.Write([]string{"id", "date", "description", "type", "amount", "category"}); err != nil {
		writeError(w, r, err)
		return
	}
	for _, t := range list {
		category := ""
		if t.CategoryName != nil {
			category = *t.CategoryName
		}
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Date,
			t.Description,
			string(t.Type),
			strconv.FormatFloat(t.Amount, 'f', 2, 64),
			category,
		}
		if err := writer.Write(row); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("transactions_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
