// Package backup serializes the full dataset to a versioned JSON document and
// restores it, replacing whatever the store currently holds.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reinanbr/money-std/internal/core"
)

// SchemaVersion identifies the export document layout.
const SchemaVersion = "1.0.0"

// ErrInvalidFormat marks a document that cannot be restored: malformed JSON
// or one missing the categories or transactions key.
var ErrInvalidFormat = errors.New("invalid backup format")

// Store is the slice of the persistence layer the codec needs.
type Store interface {
	DumpCategories(ctx context.Context) ([]core.Category, error)
	DumpTransactions(ctx context.Context) ([]core.Transaction, error)
	ReplaceAll(ctx context.Context, categories []core.Category, transactions []core.Transaction) error
}

// TransactionRecord is the exported shape of a transaction. Creation
// timestamps are an internal ordering detail and stay out of the document.
type TransactionRecord struct {
	ID          int64                `json:"id"`
	Description string               `json:"description"`
	Amount      float64              `json:"amount"`
	CategoryID  *int64               `json:"category_id"`
	Type        core.TransactionType `json:"type"`
	Date        string               `json:"date"`
}

// Document is the envelope written by Export and read by Import.
type Document struct {
	Version      string              `json:"version"`
	ExportDate   string              `json:"exportDate"`
	Categories   []core.Category     `json:"categories"`
	Transactions []TransactionRecord `json:"transactions"`
}

type Codec struct {
	store Store
}

func NewCodec(store Store) *Codec {
	return &Codec{store: store}
}

// Export reads the entire dataset and returns it as a JSON document. Either
// both reads succeed or the export fails as a whole.
func (c *Codec) Export(ctx context.Context) ([]byte, error) {
	categories, err := c.store.DumpCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("export categories: %w", err)
	}
	transactions, err := c.store.DumpTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("export transactions: %w", err)
	}

	doc := Document{
		Version:      SchemaVersion,
		ExportDate:   time.Now().UTC().Format(time.RFC3339),
		Categories:   make([]core.Category, 0, len(categories)),
		Transactions: make([]TransactionRecord, 0, len(transactions)),
	}
	doc.Categories = append(doc.Categories, categories...)
	for _, t := range transactions {
		doc.Transactions = append(doc.Transactions, TransactionRecord{
			ID:          t.ID,
			Description: t.Description,
			Amount:      t.Amount,
			CategoryID:  t.CategoryID,
			Type:        t.Type,
			Date:        t.Date,
		})
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}

	slog.InfoContext(ctx, "Backup exported",
		"categories", len(doc.Categories),
		"transactions", len(doc.Transactions))

	return out, nil
}

// Import validates raw and replaces the entire dataset with its contents. The
// document is rejected before any mutation happens, so a failed Import leaves
// the store untouched.
func (c *Codec) Import(ctx context.Context, raw []byte) error {
	// Pointer slices distinguish "key absent" from "empty array": an empty
	// backup is a legal document, a truncated one is not.
	var probe struct {
		Categories   *[]core.Category     `json:"categories"`
		Transactions *[]TransactionRecord `json:"transactions"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if probe.Categories == nil || probe.Transactions == nil {
		return fmt.Errorf("%w: missing categories or transactions", ErrInvalidFormat)
	}

	transactions := make([]core.Transaction, 0, len(*probe.Transactions))
	for _, rec := range *probe.Transactions {
		transactions = append(transactions, core.Transaction{
			ID:          rec.ID,
			Description: rec.Description,
			Amount:      rec.Amount,
			Type:        rec.Type,
			CategoryID:  rec.CategoryID,
			Date:        rec.Date,
		})
	}

	if err := c.store.ReplaceAll(ctx, *probe.Categories, transactions); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}

	slog.InfoContext(ctx, "Backup restored",
		"categories", len(*probe.Categories),
		"transactions", len(transactions))

	return nil
}
