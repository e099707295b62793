package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Budget is a monthly spending limit for one category.
type Budget struct {
	ID       int64
	Category string
	// Month is the budget period as "YYYY-MM".
	Month string
	Limit decimal.Decimal
}

// SetBudget creates or replaces the budget for (category, month).
func (s *Store) SetBudget(ctx context.Context, category, month string, limit decimal.Decimal) error {
	if category == "" || month == "" {
		return fmt.Errorf("ledger: category and month are required")
	}
	if !limit.IsPositive() {
		return fmt.Errorf("ledger: budget limit must be positive, got %s", limit)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (category, month, monthly_limit)
		VALUES (?, ?, ?)
		ON CONFLICT(category, month) DO UPDATE SET monthly_limit = excluded.monthly_limit
	`, category, month, limit.String())
	if err != nil {
		return fmt.Errorf("failed to set budget: %w", err)
	}
	return nil
}

// ListBudgets returns the budgets for the given month, or all budgets when
// month is empty.
func (s *Store) ListBudgets(ctx context.Context, month string) ([]Budget, error) {
	query := `SELECT id, category, month, monthly_limit FROM budgets ORDER BY category ASC`
	args := []any{}
	if month != "" {
		query = `SELECT id, category, month, monthly_limit FROM budgets WHERE month = ? ORDER BY category ASC`
		args = append(args, month)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		var b Budget
		var limit string
		if err := rows.Scan(&b.ID, &b.Category, &b.Month, &limit); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		d, err := decimal.NewFromString(limit)
		if err != nil {
			return nil, fmt.Errorf("stored budget limit %q is not a valid decimal: %w", limit, err)
		}
		b.Limit = d
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}
