package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/reinanbr/money-std/internal/core"
)

// Display values for transactions whose category was deleted.
const (
	uncategorizedName  = "Sem categoria"
	uncategorizedColor = "#95A5A6"
)

// CategoryTotals sums transactions of the given type per category, largest
// first. Uncategorized transactions are grouped under a placeholder bucket.
// Percent shares are left for the caller to derive.
func (r *Repository) CategoryTotals(ctx context.Context, t core.TransactionType) ([]core.CategorySummary, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(c.name, ?), COALESCE(c.color, ?), SUM(t.amount)
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.type = ?
		GROUP BY t.category_id
		ORDER BY SUM(t.amount) DESC
	`, uncategorizedName, uncategorizedColor, string(t))
	if err != nil {
		return nil, fmt.Errorf("query category totals: %w", err)
	}
	defer rows.Close()

	var out []core.CategorySummary
	for rows.Next() {
		var s core.CategorySummary
		if err := rows.Scan(&s.Name, &s.Color, &s.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MonthlyTotals sums income and expense per calendar month over the last
// months months (including the current one), ascending by month.
func (r *Repository) MonthlyTotals(ctx context.Context, months int) ([]core.MonthSummary, error) {
	now := time.Now()
	firstMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(months - 1), 0)

	rows, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', date) AS month,
		       COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0)
		FROM transactions
		WHERE date >= ?
		GROUP BY month
		ORDER BY month ASC
	`, firstMonth.Format(core.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query monthly totals: %w", err)
	}
	defer rows.Close()

	var out []core.MonthSummary
	for rows.Next() {
		var m core.MonthSummary
		if err := rows.Scan(&m.Month, &m.Income, &m.Expense); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		m.Net = m.Income - m.Expense
		out = append(out, m)
	}
	return out, rows.Err()
}
