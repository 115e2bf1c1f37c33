package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/reinanbr/money-std/internal/core"
)

// DumpCategories reads the raw category table ordered by id, without the
// de-duplication applied to display reads. Used by the backup codec.
func (r *Repository) DumpCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, type, color FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("dump categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DumpTransactions reads the raw transaction table ordered by id, with no
// category join. Used by the backup codec.
func (r *Repository) DumpTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, amount, type, category_id, date, created_at
		FROM transactions ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("dump transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var categoryID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Description, &t.Amount, &t.Type,
			&categoryID, &t.Date, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if categoryID.Valid {
			t.CategoryID = &categoryID.Int64
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReplaceAll swaps the entire dataset for the given one inside a single SQL
// transaction: clear transactions, clear categories, insert categories with
// their original ids, insert transactions with their original ids and
// category references. A failure at any phase rolls everything back. Today's
// balance snapshot is refreshed once the swap commits.
func (r *Repository) ReplaceAll(ctx context.Context, categories []core.Category, transactions []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM categories"); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}

	catStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO categories (id, name, type, color)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare category insert: %w", err)
	}
	defer catStmt.Close()

	for _, c := range categories {
		color := c.Color
		if color == "" {
			color = core.DefaultCategoryColor
		}
		if _, err := catStmt.ExecContext(ctx, c.ID, c.Name, string(c.Type), color); err != nil {
			return fmt.Errorf("restore category %d: %w", c.ID, err)
		}
	}

	txStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (id, description, amount, type, category_id, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare transaction insert: %w", err)
	}
	defer txStmt.Close()

	now := time.Now().UTC().Format(createdAtLayout)
	for _, t := range transactions {
		createdAt := t.CreatedAt
		if createdAt == "" {
			createdAt = now
		}
		if _, err := txStmt.ExecContext(ctx, t.ID, t.Description, t.Amount,
			string(t.Type), t.CategoryID, t.Date, createdAt); err != nil {
			return fmt.Errorf("restore transaction %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Dataset replaced",
		"categories", len(categories),
		"transactions", len(transactions))

	return r.refreshSnapshot(ctx)
}
