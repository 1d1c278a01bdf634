package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"smartsave/internal/core"
)

const goalColumns = "id, user_id, name, target_amount, current_amount, target_date, created_at"

// CreateGoal stores g with the given starting amount.
func (r *Repository) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	created := r.timestamp()
	_, err := r.db.ExecContext(ctx, r.rebind(`INSERT INTO savings_goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		g.ID, g.UserID, g.Name, g.TargetAmount, g.CurrentAmount, nullable(g.TargetDate.String()), created)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert savings goal: %w", err)
	}
	g.CreatedAt = parseTime(created)
	return g, nil
}

// UpdateGoal edits name, target amount and target date. The current amount
// only changes through AddDeposit.
func (r *Repository) UpdateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(`UPDATE savings_goals SET name = ?, target_amount = ?, target_date = ? WHERE id = ? AND user_id = ?`),
		g.Name, g.TargetAmount, nullable(g.TargetDate.String()), g.ID, g.UserID)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update savings goal: %w", err)
	}
	if err := expectRow(res); err != nil {
		return core.SavingsGoal{}, err
	}
	return r.GetGoal(ctx, g.UserID, g.ID)
}

// DeleteGoal removes the goal and its deposits.
func (r *Repository) DeleteGoal(ctx context.Context, userID, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM deposits WHERE savings_goal_id = ? AND user_id = ?`), id, userID); err != nil {
			return fmt.Errorf("delete goal deposits: %w", err)
		}
		res, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM savings_goals WHERE id = ? AND user_id = ?`), id, userID)
		if err != nil {
			return fmt.Errorf("delete savings goal: %w", err)
		}
		return expectRow(res)
	})
}

func (r *Repository) GetGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	return r.getGoal(ctx, r.db, userID, id)
}

// ListGoals returns the user's goals, newest first.
func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? ORDER BY created_at DESC, id`), userID)
	if err != nil {
		return nil, fmt.Errorf("query savings goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate savings goals: %w", err)
	}
	return out, nil
}

func (r *Repository) getGoal(ctx context.Context, q querier, userID, id string) (core.SavingsGoal, error) {
	row := q.QueryRowContext(ctx, r.rebind(`SELECT `+goalColumns+` FROM savings_goals WHERE id = ? AND user_id = ?`), id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	return g, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(s scanner) (core.SavingsGoal, error) {
	var (
		g          core.SavingsGoal
		targetDate sql.NullString
		created    string
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &targetDate, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return g, err
		}
		return g, fmt.Errorf("scan savings goal: %w", err)
	}
	if targetDate.Valid && targetDate.String != "" {
		d, err := core.ParseDate(targetDate.String)
		if err != nil {
			return g, fmt.Errorf("savings goal %s has invalid target date %q: %w", g.ID, targetDate.String, err)
		}
		g.TargetDate = d
	}
	g.CreatedAt = parseTime(created)
	return g, nil
}

const depositColumns = "id, user_id, savings_goal_id, amount, description, created_at"

// AddDeposit records d and adds its amount to the goal in one transaction.
// The new amount is always derived from the stored value, never from the
// caller. It returns the updated goal.
func (r *Repository) AddDeposit(ctx context.Context, d core.Deposit) (core.SavingsGoal, core.Deposit, error) {
	if err := d.Validate(); err != nil {
		return core.SavingsGoal{}, core.Deposit{}, err
	}
	created := r.timestamp()

	var goal core.SavingsGoal
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.incrementGoal(ctx, tx, d); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, r.rebind(`INSERT INTO deposits (`+depositColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
			d.ID, d.UserID, d.SavingsGoalID, d.Amount, nullable(d.Description), created)
		if err != nil {
			return fmt.Errorf("insert deposit: %w", err)
		}
		goal, err = r.getGoal(ctx, tx, d.UserID, d.SavingsGoalID)
		return err
	})
	if err != nil {
		return core.SavingsGoal{}, core.Deposit{}, err
	}
	d.CreatedAt = parseTime(created)

	slog.InfoContext(ctx, "Deposit recorded",
		"deposit_id", d.ID,
		"goal_id", d.SavingsGoalID,
		"amount", d.Amount.String(),
		"current_amount", goal.CurrentAmount.String())
	return goal, d, nil
}

// incrementGoal adds d.Amount to the goal's current amount. PostgreSQL does
// the addition on its NUMERIC column. SQLite keeps amounts as TEXT, so the
// sum is computed with decimal inside the transaction; the single
// connection serializes writers.
func (r *Repository) incrementGoal(ctx context.Context, tx *sql.Tx, d core.Deposit) error {
	if r.dialect == DialectPostgres {
		res, err := tx.ExecContext(ctx, r.rebind(`UPDATE savings_goals SET current_amount = current_amount + ? WHERE id = ? AND user_id = ?`),
			d.Amount, d.SavingsGoalID, d.UserID)
		if err != nil {
			return fmt.Errorf("increment savings goal: %w", err)
		}
		return expectRow(res)
	}

	var current decimal.Decimal
	err := tx.QueryRowContext(ctx, `SELECT current_amount FROM savings_goals WHERE id = ? AND user_id = ?`,
		d.SavingsGoalID, d.UserID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read savings goal: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE savings_goals SET current_amount = ? WHERE id = ? AND user_id = ?`,
		current.Add(d.Amount), d.SavingsGoalID, d.UserID)
	if err != nil {
		return fmt.Errorf("increment savings goal: %w", err)
	}
	return expectRow(res)
}

// DefaultDepositLimit applies when ListDeposits gets a non-positive limit.
const DefaultDepositLimit = 10

// ListDeposits returns the user's deposits newest first, optionally for a
// single goal.
func (r *Repository) ListDeposits(ctx context.Context, userID, goalID string, limit int) ([]core.Deposit, error) {
	if limit <= 0 {
		limit = DefaultDepositLimit
	}
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE user_id = ?`
	args := []any{userID}
	if goalID != "" {
		query += ` AND savings_goal_id = ?`
		args = append(args, goalID)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query deposits: %w", err)
	}
	defer rows.Close()

	var out []core.Deposit
	for rows.Next() {
		var (
			d           core.Deposit
			description sql.NullString
			created     string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.SavingsGoalID, &d.Amount, &description, &created); err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		d.Description = description.String
		d.CreatedAt = parseTime(created)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deposits: %w", err)
	}
	return out, nil
}

// SumDeposits totals the deposits recorded for a goal.
func (r *Repository) SumDeposits(ctx context.Context, userID, goalID string) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT amount FROM deposits WHERE user_id = ? AND savings_goal_id = ?`), userID, goalID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum deposits: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("scan deposit amount: %w", err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("sum deposits: %w", err)
	}
	return total, nil
}
