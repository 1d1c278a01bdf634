package storage

import (
	"context"
	"fmt"

	"smartsave/internal/core"
)

const budgetColumns = "id, user_id, category, amount, period, created_at, last_updated"

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now := r.timestamp()
	_, err := r.db.ExecContext(ctx, r.rebind(`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.UserID, b.Category, b.Amount, string(b.Period), now, now)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	b.CreatedAt = parseTime(now)
	b.LastUpdated = b.CreatedAt
	return b, nil
}

// UpdateBudget replaces category, amount and period of an existing budget.
func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(`UPDATE budgets SET category = ?, amount = ?, period = ?, last_updated = ? WHERE id = ? AND user_id = ?`),
		b.Category, b.Amount, string(b.Period), r.timestamp(), b.ID, b.UserID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if err := expectRow(res); err != nil {
		return core.Budget{}, err
	}
	return r.GetBudget(ctx, b.UserID, b.ID)
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM budgets WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return expectRow(res)
}

func (r *Repository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	rows, err := r.queryBudgets(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.Budget{}, err
	}
	if len(rows) == 0 {
		return core.Budget{}, core.ErrNotFound
	}
	return rows[0], nil
}

// ListBudgets returns the user's budgets, oldest first.
func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	return r.queryBudgets(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY created_at, id`, userID)
}

func (r *Repository) queryBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b                core.Budget
			period           string
			created, updated string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount, &period, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Period = core.Period(period)
		b.CreatedAt = parseTime(created)
		b.LastUpdated = parseTime(updated)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}
