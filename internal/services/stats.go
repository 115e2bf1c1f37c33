package services

import (
	"context"

	"github.com/reinanbr/money-std/internal/core"
)

// CategoryBreakdown returns per-category totals for one transaction type,
// with each bucket's share of the grand total filled in. Shares are zero when
// nothing matches, never NaN.
func (s *Finance) CategoryBreakdown(ctx context.Context, t core.TransactionType) ([]core.CategorySummary, error) {
	totals, err := s.store.CategoryTotals(ctx, t)
	if err != nil {
		return nil, err
	}

	var grand float64
	for _, b := range totals {
		grand += b.Total
	}
	if grand > 0 {
		for i := range totals {
			totals[i].Percent = totals[i].Total / grand * 100
		}
	}
	return totals, nil
}

// MonthlySummary returns income, expense and net per calendar month over the
// last months months, oldest first.
func (s *Finance) MonthlySummary(ctx context.Context, months int) ([]core.MonthSummary, error) {
	return s.store.MonthlyTotals(ctx, months)
}
