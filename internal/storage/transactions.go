package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/reinanbr/money-std/internal/core"
)

// TransactionFilters narrows ListTransactions. Zero values mean "no filter".
// StartDate and EndDate form an inclusive range and must be given together.
type TransactionFilters struct {
	Type       core.TransactionType
	CategoryID *int64
	StartDate  string
	EndDate    string
}

func (f TransactionFilters) validate() error {
	if f.Type != "" {
		if err := f.Type.Validate(); err != nil {
			return err
		}
	}
	if (f.StartDate == "") != (f.EndDate == "") {
		return fmt.Errorf("start and end date must be provided together: %w", core.ErrInvalidDate)
	}
	if f.StartDate != "" {
		if _, err := core.ParseDate(f.StartDate); err != nil {
			return err
		}
		if _, err := core.ParseDate(f.EndDate); err != nil {
			return err
		}
	}
	return nil
}

// AddTransaction inserts a transaction and returns it with its generated id
// and creation timestamp. Today's balance snapshot is refreshed afterwards.
func (r *Repository) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t.CreatedAt = time.Now().UTC().Format(createdAtLayout)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (description, amount, type, category_id, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.Description, t.Amount, string(t.Type), t.CategoryID, t.Date, t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}
	t.ID = id

	if err := r.refreshSnapshot(ctx); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"description", t.Description,
		"amount", t.Amount,
		"type", t.Type,
		"date", t.Date)

	return t, nil
}

// ListTransactions returns transactions joined with their category's name and
// color (left join: rows whose category was deleted still appear, with nil
// category fields). Ordered by date descending, then creation time descending.
func (r *Repository) ListTransactions(ctx context.Context, f TransactionFilters) ([]core.Transaction, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	query := `
		SELECT t.id, t.description, t.amount, t.type, t.category_id, t.date, t.created_at,
		       c.name, c.color
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
	`
	var conditions []string
	var args []any

	if f.Type != "" {
		conditions = append(conditions, "t.type = ?")
		args = append(args, string(f.Type))
	}
	if f.CategoryID != nil {
		conditions = append(conditions, "t.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.StartDate != "" {
		conditions = append(conditions, "t.date BETWEEN ? AND ?")
		args = append(args, f.StartDate, f.EndDate)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.date DESC, t.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var categoryID sql.NullInt64
		var catName, catColor sql.NullString
		if err := rows.Scan(&t.ID, &t.Description, &t.Amount, &t.Type,
			&categoryID, &t.Date, &t.CreatedAt, &catName, &catColor); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if categoryID.Valid {
			t.CategoryID = &categoryID.Int64
		}
		if catName.Valid {
			t.CategoryName = &catName.String
		}
		if catColor.Valid {
			t.CategoryColor = &catColor.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTransaction replaces all mutable fields of the row matching id and
// returns the number of rows affected (0 when id does not exist). Today's
// balance snapshot is refreshed afterwards.
func (r *Repository) UpdateTransaction(ctx context.Context, id int64, t core.Transaction) (int64, error) {
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET description = ?, amount = ?, type = ?, category_id = ?, date = ?
		WHERE id = ?
	`, t.Description, t.Amount, string(t.Type), t.CategoryID, t.Date, id)
	if err != nil {
		return 0, fmt.Errorf("update transaction %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("transaction update count: %w", err)
	}

	if err := r.refreshSnapshot(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// DeleteTransaction removes the row matching id and returns the number of
// rows affected (0 when id does not exist). Today's balance snapshot is
// refreshed so history stays consistent with the live aggregate.
func (r *Repository) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("delete transaction %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("transaction delete count: %w", err)
	}

	if err := r.refreshSnapshot(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// refreshSnapshot recomputes the full aggregate and upserts it under today's
// date. Recomputation is total, not incremental, so the snapshot can never
// drift from the stored rows.
func (r *Repository) refreshSnapshot(ctx context.Context) error {
	balance, err := r.GetBalance(ctx)
	if err != nil {
		return err
	}
	return r.SaveBalanceHistory(ctx, balance)
}
