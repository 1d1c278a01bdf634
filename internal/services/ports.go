package services

import (
	"context"

	"smartsave/internal/cache"
	"smartsave/internal/core"
)

// TransactionStore persists transactions and uploaded CSV files.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) error
	ImportTransactions(ctx context.Context, file core.CSVFile, txs []core.Transaction) (core.CSVFile, error)
	SetCSVArchiveURI(ctx context.Context, fileID, uri string) error
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	LatestTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error)
}

// BudgetStore persists budgets.
type BudgetStore interface {
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID, id string) error
	GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
}

// GoalStore persists savings goals and their deposit ledger.
type GoalStore interface {
	CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
	UpdateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
	DeleteGoal(ctx context.Context, userID, id string) error
	GetGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error)
	ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)
	AddDeposit(ctx context.Context, d core.Deposit) (core.SavingsGoal, core.Deposit, error)
	ListDeposits(ctx context.Context, userID, goalID string, limit int) ([]core.Deposit, error)
}

// DataResetter removes everything a user has stored.
type DataResetter interface {
	ResetUserData(ctx context.Context, userID string) error
}

// Publisher announces imported transactions to the notification worker.
type Publisher interface {
	PublishTransactionsImported(ctx context.Context, userID, fileID string, ids []string) error
}

// Invalidator drops cached per-user data after a write.
type Invalidator interface {
	Invalidate(userID string)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(string) {}

// SnapshotSource returns the cached view of a user's data.
type SnapshotSource interface {
	Get(ctx context.Context, userID string) (*cache.Snapshot, error)
}
