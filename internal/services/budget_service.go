package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"smartsave/internal/budget"
	"smartsave/internal/core"
	"smartsave/internal/log"
)

// BudgetService manages budgets and evaluates them against spending.
type BudgetService struct {
	store     BudgetStore
	snapshots SnapshotSource
	monitor   *budget.Monitor
	cache     Invalidator
	logger    *log.Logger
	newID     func() string
}

func NewBudgetService(store BudgetStore, snapshots SnapshotSource, monitor *budget.Monitor, cache Invalidator, logger *log.Logger) *BudgetService {
	if monitor == nil {
		monitor = &budget.Monitor{}
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &BudgetService{
		store:     store,
		snapshots: snapshots,
		monitor:   monitor,
		cache:     cache,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

func (s *BudgetService) List(ctx context.Context, userID string) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID)
}

func (s *BudgetService) Create(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	b.ID = s.newID()
	b.UserID = userID
	b.Category = strings.TrimSpace(b.Category)
	if b.Period == "" {
		b.Period = core.PeriodMonthly
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	created, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	s.cache.Invalidate(userID)
	s.logger.InfoContext(ctx, "Budget created",
		log.FieldUserID, userID,
		log.FieldBudgetID, created.ID,
		log.FieldCategory, created.Category,
		log.FieldAmount, created.Amount.String())
	return created, nil
}

// Update replaces category, amount and period of the budget with id.
func (s *BudgetService) Update(ctx context.Context, userID, id string, b core.Budget) (core.Budget, error) {
	b.ID = id
	b.UserID = userID
	b.Category = strings.TrimSpace(b.Category)
	if b.Period == "" {
		b.Period = core.PeriodMonthly
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	updated, err := s.store.UpdateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %s: %w", id, err)
	}
	s.cache.Invalidate(userID)
	return updated, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	s.cache.Invalidate(userID)
	return nil
}

// Alerts checks the user's monthly budgets against current-month spending.
func (s *BudgetService) Alerts(ctx context.Context, userID string) ([]core.BudgetAlert, error) {
	snap, err := s.snapshots.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	alerts := s.monitor.Check(snap.Budgets, snap.Transactions)
	if alerts == nil {
		alerts = []core.BudgetAlert{}
	}
	return alerts, nil
}
