package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reinanbr/money-std/internal/core"
	"github.com/reinanbr/money-std/internal/services"
	"github.com/reinanbr/money-std/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	svc := services.NewFinance(repo, nil)
	srv := NewServer(":0", svc, 30)
	t.Cleanup(func() {
		srv.rateLimiter.stop()
		svc.Close()
	})
	return srv
}

func doRequest(t *testing.T, srv *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	if rec := doRequest(t, srv, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", rec.Code)
	}
	if rec := doRequest(t, srv, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("GET /readyz = %d, want 200", rec.Code)
	}
}

func TestListCategoriesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/categories", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/categories = %d, want 200", rec.Code)
	}
	cats := decode[[]core.Category](t, rec)
	if len(cats) == 0 {
		t.Fatal("fresh store returned no default categories")
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/categories?type=income", nil)
	for _, c := range decode[[]core.Category](t, rec) {
		if c.Type != core.Income {
			t.Errorf("type filter leaked category %q of type %q", c.Name, c.Type)
		}
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/categories?type=transfer", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("GET with bad type = %d, want 422", rec.Code)
	}
}

func TestCategoryCreateAndDelete(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/categories",
		core.Category{Name: "Pets", Type: core.Expense})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/categories = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[core.Category](t, rec)
	if created.ID == 0 || created.Color != core.DefaultCategoryColor {
		t.Errorf("created category = %+v, want id set and default color", created)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/categories/"+jsonNumber(created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE category = %d, want 204", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/categories/"+jsonNumber(created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("DELETE missing category = %d, want 404", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/categories/abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("DELETE with bad id = %d, want 400", rec.Code)
	}
}

func TestTransactionEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", core.Transaction{
		Description: "lunch",
		Amount:      32.50,
		Type:        core.Expense,
		Date:        "2026-08-20",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/transactions = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[core.Transaction](t, rec)
	if created.ID == 0 || created.CreatedAt == "" {
		t.Errorf("created transaction = %+v, want id and created_at set", created)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/transactions = %d", rec.Code)
	}
	if list := decode[[]core.Transaction](t, rec); len(list) != 1 {
		t.Errorf("listed %d transactions, want 1", len(list))
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/transactions/"+jsonNumber(created.ID), core.Transaction{
		Description: "lunch with tip",
		Amount:      38,
		Type:        core.Expense,
		Date:        "2026-08-20",
	})
	if rec.Code != http.StatusNoContent {
		t.Errorf("PUT transaction = %d, want 204", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/balance", nil)
	if b := decode[core.Balance](t, rec); b.Expense != 38 {
		t.Errorf("balance expense = %v, want 38", b.Expense)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/transactions/"+jsonNumber(created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE transaction = %d, want 204", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodDelete, "/api/transactions/"+jsonNumber(created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("DELETE missing transaction = %d, want 404", rec.Code)
	}
}

func TestTransactionValidationStatus(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		tx   core.Transaction
	}{
		{"negative amount", core.Transaction{Description: "x", Amount: -1, Type: core.Expense, Date: "2026-08-01"}},
		{"empty description", core.Transaction{Description: " ", Amount: 1, Type: core.Income, Date: "2026-08-01"}},
		{"bad date", core.Transaction{Description: "x", Amount: 1, Type: core.Income, Date: "20-08-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPost, "/api/transactions", tt.tx)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rec.Code)
			}
		})
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader("{broken"))
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON = %d, want 400", rec.Code)
	}
}

func TestBalanceCacheInvalidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/balance", nil)
	if b := decode[core.Balance](t, rec); b.Total != 0 {
		t.Fatalf("initial total = %v, want 0", b.Total)
	}

	// The mutation must flush the cached zero balance.
	rec = doRequest(t, srv, http.MethodPost, "/api/transactions", core.Transaction{
		Description: "salary",
		Amount:      1000,
		Type:        core.Income,
		Date:        "2026-08-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST transaction = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/balance", nil)
	if b := decode[core.Balance](t, rec); b.Total != 1000 {
		t.Errorf("total after insert = %v, want 1000", b.Total)
	}
}

func TestBalanceHistoryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/transactions", core.Transaction{
		Description: "salary", Amount: 500, Type: core.Income, Date: "2026-08-01",
	})

	rec := doRequest(t, srv, http.MethodGet, "/api/balance/history?days=7", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET history = %d", rec.Code)
	}
	history := decode[[]core.BalanceSnapshot](t, rec)
	if len(history) != 1 || history[0].Total != 500 {
		t.Errorf("history = %+v, want one snapshot with total 500", history)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/balance/history?days=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("days=0 = %d, want 400", rec.Code)
	}
}

func TestStatsEndpoints(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/transactions", core.Transaction{
		Description: "groceries", Amount: 80, Type: core.Expense, Date: "2026-08-01",
	})

	rec := doRequest(t, srv, http.MethodGet, "/api/stats/categories", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/stats/categories = %d", rec.Code)
	}
	buckets := decode[[]core.CategorySummary](t, rec)
	if len(buckets) != 1 || buckets[0].Percent != 100 {
		t.Errorf("buckets = %+v, want one at 100%%", buckets)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/stats/monthly?months=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/stats/monthly = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/stats/monthly?months=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("months=0 = %d, want 400", rec.Code)
	}
}

func TestBackupRoundTripOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/transactions", core.Transaction{
		Description: "salary", Amount: 2500, Type: core.Income, Date: "2026-08-05",
	})

	rec := doRequest(t, srv, http.MethodGet, "/api/backup", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/backup = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}
	exported := rec.Body.Bytes()

	target := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/restore", bytes.NewReader(exported))
	restoreRec := httptest.NewRecorder()
	target.Server.Handler.ServeHTTP(restoreRec, req)
	if restoreRec.Code != http.StatusOK {
		t.Fatalf("POST /api/restore = %d, body %s", restoreRec.Code, restoreRec.Body.String())
	}

	rec = doRequest(t, target, http.MethodGet, "/api/balance", nil)
	if b := decode[core.Balance](t, rec); b.Income != 2500 {
		t.Errorf("restored income = %v, want 2500", b.Income)
	}
}

func TestRestoreRejectsMalformedDocument(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/transactions", core.Transaction{
		Description: "keep me", Amount: 10, Type: core.Expense, Date: "2026-08-01",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/restore", strings.NewReader(`{"categories":[]}`))
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /api/restore = %d, want 400", rec.Code)
	}

	listRec := doRequest(t, srv, http.MethodGet, "/api/transactions", nil)
	if list := decode[[]core.Transaction](t, listRec); len(list) != 1 {
		t.Errorf("rejected restore left %d transactions, want 1", len(list))
	}
}

func TestCSVExport(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/transactions", core.Transaction{
		Description: "groceries", Amount: 45.90, Type: core.Expense, Date: "2026-08-10",
	})

	rec := doRequest(t, srv, http.MethodGet, "/api/export/csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/export/csv = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "groceries") || !strings.Contains(body, "45.90") {
		t.Errorf("CSV body %q lacks expected row", body)
	}
}

func jsonNumber(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
