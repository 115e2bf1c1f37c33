package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/reinanbr/money-std/internal/core"
)

// GetBalance computes total income, total expense and their difference in a
// single aggregate scan. An empty transaction set yields {0, 0, 0}.
func (r *Repository) GetBalance(ctx context.Context) (core.Balance, error) {
	var b core.Balance
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0)
		FROM transactions
	`).Scan(&b.Income, &b.Expense)
	if err != nil {
		return core.Balance{}, fmt.Errorf("compute balance: %w", err)
	}
	b.Total = b.Income - b.Expense
	return b, nil
}

// SaveBalanceHistory upserts the balance under today's date: at most one
// snapshot row exists per day, and a second write for the same day overwrites
// in place.
func (r *Repository) SaveBalanceHistory(ctx context.Context, b core.Balance) error {
	today := time.Now().Format(core.DateLayout)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO balance_history (date, total_balance, income, expense)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			total_balance = excluded.total_balance,
			income = excluded.income,
			expense = excluded.expense
	`, today, b.Total, b.Income, b.Expense)
	if err != nil {
		return fmt.Errorf("upsert balance snapshot for %s: %w", today, err)
	}
	return nil
}

// BalanceHistory returns snapshots dated within [today-days, today],
// ascending by date. An empty range yields an empty slice, not an error.
func (r *Repository) BalanceHistory(ctx context.Context, days int) ([]core.BalanceSnapshot, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, total_balance, income, expense
		FROM balance_history
		WHERE date BETWEEN ? AND ?
		ORDER BY date ASC
	`, start.Format(core.DateLayout), end.Format(core.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query balance history: %w", err)
	}
	defer rows.Close()

	var out []core.BalanceSnapshot
	for rows.Next() {
		var s core.BalanceSnapshot
		if err := rows.Scan(&s.ID, &s.Date, &s.Total, &s.Income, &s.Expense); err != nil {
			return nil, fmt.Errorf("scan balance snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
