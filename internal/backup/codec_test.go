package backup

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/reinanbr/money-std/internal/core"
)

// memStore is an in-memory Store for codec tests.
type memStore struct {
	categories   []core.Category
	transactions []core.Transaction
	replaceErr   error
	replaced     bool
}

func (m *memStore) DumpCategories(context.Context) ([]core.Category, error) {
	return m.categories, nil
}

func (m *memStore) DumpTransactions(context.Context) ([]core.Transaction, error) {
	return m.transactions, nil
}

func (m *memStore) ReplaceAll(_ context.Context, cats []core.Category, txs []core.Transaction) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.categories = cats
	m.transactions = txs
	m.replaced = true
	return nil
}

func ptr[T any](v T) *T { return &v }

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := &memStore{
		categories: []core.Category{
			{ID: 1, Name: "Salário", Type: core.Income, Color: "#2ECC71"},
			{ID: 2, Name: "Mercado", Type: core.Expense, Color: "#FF6B6B"},
		},
		transactions: []core.Transaction{
			{ID: 1, Description: "salary", Amount: 3000, Type: core.Income, CategoryID: ptr(int64(1)), Date: "2026-08-01", CreatedAt: "2026-08-01T10:00:00.000000000Z"},
			{ID: 2, Description: "groceries", Amount: 120.50, Type: core.Expense, CategoryID: ptr(int64(2)), Date: "2026-08-02", CreatedAt: "2026-08-02T18:30:00.000000000Z"},
			{ID: 3, Description: "cash gift", Amount: 50, Type: core.Income, Date: "2026-08-03", CreatedAt: "2026-08-03T09:00:00.000000000Z"},
		},
	}

	raw, err := NewCodec(source).Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("exported document is not valid JSON: %v", err)
	}
	if doc.Version != SchemaVersion {
		t.Errorf("Version = %q, want %q", doc.Version, SchemaVersion)
	}
	if doc.ExportDate == "" {
		t.Error("ExportDate is empty")
	}
	if len(doc.Categories) != 2 || len(doc.Transactions) != 3 {
		t.Fatalf("document holds %d categories / %d transactions, want 2 / 3",
			len(doc.Categories), len(doc.Transactions))
	}

	target := &memStore{}
	if err := NewCodec(target).Import(ctx, raw); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(target.categories) != 2 || len(target.transactions) != 3 {
		t.Fatalf("restore wrote %d categories / %d transactions, want 2 / 3",
			len(target.categories), len(target.transactions))
	}
	for i, want := range source.transactions {
		got := target.transactions[i]
		if got.ID != want.ID || got.Description != want.Description ||
			got.Amount != want.Amount || got.Type != want.Type || got.Date != want.Date {
			t.Errorf("transaction %d = %+v, want fields of %+v", i, got, want)
		}
		switch {
		case want.CategoryID == nil:
			if got.CategoryID != nil {
				t.Errorf("transaction %d CategoryID = %d, want nil", i, *got.CategoryID)
			}
		case got.CategoryID == nil || *got.CategoryID != *want.CategoryID:
			t.Errorf("transaction %d CategoryID = %v, want %d", i, got.CategoryID, *want.CategoryID)
		}
	}
}

func TestExportEmptyStore(t *testing.T) {
	raw, err := NewCodec(&memStore{}).Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	// Empty collections must serialize as [], not null, so the document
	// stays importable.
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("exported document is not valid JSON: %v", err)
	}
	for _, key := range []string{"categories", "transactions"} {
		if string(doc[key]) == "null" {
			t.Errorf("%s serialized as null, want []", key)
		}
	}
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"categories": [`},
		{"not an object", `"just a string"`},
		{"missing transactions", `{"version":"1.0.0","categories":[]}`},
		{"missing categories", `{"version":"1.0.0","transactions":[]}`},
		{"empty document", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{
				categories: []core.Category{{ID: 1, Name: "Keep", Type: core.Income, Color: "#000000"}},
			}
			err := NewCodec(store).Import(context.Background(), []byte(tt.raw))
			if !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("Import() error = %v, want ErrInvalidFormat", err)
			}
			if store.replaced {
				t.Error("rejected import still mutated the store")
			}
			if len(store.categories) != 1 || store.categories[0].Name != "Keep" {
				t.Error("rejected import changed existing data")
			}
		})
	}
}

func TestImportAcceptsEmptyCollections(t *testing.T) {
	store := &memStore{
		categories: []core.Category{{ID: 1, Name: "Old", Type: core.Expense, Color: "#111111"}},
	}
	raw := `{"version":"1.0.0","exportDate":"2026-08-28T00:00:00Z","categories":[],"transactions":[]}`

	if err := NewCodec(store).Import(context.Background(), []byte(raw)); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !store.replaced {
		t.Fatal("empty document did not replace the dataset")
	}
	if len(store.categories) != 0 || len(store.transactions) != 0 {
		t.Errorf("store holds %d categories / %d transactions after empty import, want 0 / 0",
			len(store.categories), len(store.transactions))
	}
}

func TestImportPropagatesStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	store := &memStore{replaceErr: boom}
	raw := `{"categories":[],"transactions":[]}`

	err := NewCodec(store).Import(context.Background(), []byte(raw))
	if !errors.Is(err, boom) {
		t.Fatalf("Import() error = %v, want wrapped store failure", err)
	}
	if errors.Is(err, ErrInvalidFormat) {
		t.Error("store failure misreported as a format error")
	}
	if !strings.Contains(err.Error(), "restore backup") {
		t.Errorf("error %q lacks restore context", err)
	}
}
