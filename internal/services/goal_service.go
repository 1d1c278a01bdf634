package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"smartsave/internal/core"
	"smartsave/internal/log"
	"smartsave/internal/savings"
)

// GoalView is a savings goal with its progress as of the request.
type GoalView struct {
	core.SavingsGoal
	Progress savings.GoalProgress `json:"progress"`
}

// GoalService manages savings goals. The current amount of a goal only
// moves through Deposit.
type GoalService struct {
	store  GoalStore
	cache  Invalidator
	logger *log.Logger
	events *log.StructuredLogger
	newID  func() string
	now    func() time.Time
}

func NewGoalService(store GoalStore, cache Invalidator, logger *log.Logger) *GoalService {
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &GoalService{
		store:  store,
		cache:  cache,
		logger: logger,
		events: log.NewStructuredLogger(logger),
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

func (s *GoalService) view(g core.SavingsGoal) GoalView {
	return GoalView{SavingsGoal: g, Progress: savings.Progress(g, s.now())}
}

func (s *GoalService) List(ctx context.Context, userID string) ([]GoalView, error) {
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]GoalView, len(goals))
	for i, g := range goals {
		out[i] = s.view(g)
	}
	return out, nil
}

func (s *GoalService) Get(ctx context.Context, userID, id string) (GoalView, error) {
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return GoalView{}, fmt.Errorf("get savings goal %s: %w", id, err)
	}
	return s.view(g), nil
}

// Create stores a new goal. A starting amount may be given.
func (s *GoalService) Create(ctx context.Context, userID string, g core.SavingsGoal) (GoalView, error) {
	g.ID = s.newID()
	g.UserID = userID
	g.Name = strings.TrimSpace(g.Name)
	if g.CurrentAmount.IsZero() {
		g.CurrentAmount = decimal.Zero
	}
	if err := g.Validate(); err != nil {
		return GoalView{}, err
	}
	created, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return GoalView{}, fmt.Errorf("create savings goal: %w", err)
	}
	s.cache.Invalidate(userID)
	s.logger.InfoContext(ctx, "Savings goal created",
		log.FieldUserID, userID,
		log.FieldGoalID, created.ID,
		log.FieldAmount, created.TargetAmount.String())
	return s.view(created), nil
}

// GoalUpdate lists the editable fields of a goal. Nil fields keep the
// stored value.
type GoalUpdate struct {
	Name         *string
	TargetAmount *decimal.Decimal
	TargetDate   *core.Date
}

// Update merges u into the stored goal. The current amount is never
// touched.
func (s *GoalService) Update(ctx context.Context, userID, id string, u GoalUpdate) (GoalView, error) {
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return GoalView{}, fmt.Errorf("update savings goal %s: %w", id, err)
	}
	if u.Name != nil {
		g.Name = strings.TrimSpace(*u.Name)
	}
	if u.TargetAmount != nil {
		g.TargetAmount = *u.TargetAmount
	}
	if u.TargetDate != nil {
		g.TargetDate = *u.TargetDate
	}
	if err := g.Validate(); err != nil {
		return GoalView{}, err
	}
	updated, err := s.store.UpdateGoal(ctx, g)
	if err != nil {
		return GoalView{}, fmt.Errorf("update savings goal %s: %w", id, err)
	}
	s.cache.Invalidate(userID)
	return s.view(updated), nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete savings goal %s: %w", id, err)
	}
	s.cache.Invalidate(userID)
	return nil
}

// Deposit adds amount to the goal and records it in the ledger atomically.
func (s *GoalService) Deposit(ctx context.Context, userID, goalID string, amount decimal.Decimal, description string) (GoalView, core.Deposit, error) {
	d := core.Deposit{
		ID:            s.newID(),
		UserID:        userID,
		SavingsGoalID: goalID,
		Amount:        amount,
		Description:   strings.TrimSpace(description),
	}
	if err := d.Validate(); err != nil {
		return GoalView{}, core.Deposit{}, err
	}
	goal, deposit, err := s.store.AddDeposit(ctx, d)
	if err != nil {
		return GoalView{}, core.Deposit{}, fmt.Errorf("add deposit: %w", err)
	}
	s.cache.Invalidate(userID)
	s.events.LogDeposit(ctx, userID, goalID, amount.String())
	if goal.Reached() {
		s.logger.InfoContext(ctx, "Savings goal reached",
			log.FieldUserID, userID,
			log.FieldGoalID, goalID)
	}
	return s.view(goal), deposit, nil
}

// Deposits lists recent deposits, newest first. An empty goalID lists all
// of the user's goals.
func (s *GoalService) Deposits(ctx context.Context, userID, goalID string, limit int) ([]core.Deposit, error) {
	deposits, err := s.store.ListDeposits(ctx, userID, goalID, limit)
	if err != nil {
		return nil, err
	}
	if deposits == nil {
		deposits = []core.Deposit{}
	}
	return deposits, nil
}
