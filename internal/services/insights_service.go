package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"smartsave/internal/aggregate"
	"smartsave/internal/assistant"
	"smartsave/internal/cache"
	"smartsave/internal/core"
	"smartsave/internal/export"
	"smartsave/internal/log"
	"smartsave/internal/recommend"
	"smartsave/internal/savings"
)

// Snapshots is the cache the insights read from and Sync refreshes.
type Snapshots interface {
	SnapshotSource
	Invalidator
	Sync(ctx context.Context, userID string) (*cache.Snapshot, error)
}

// Summary aggregates a user's transactions.
type Summary struct {
	TotalIncome    decimal.Decimal            `json:"total_income"`
	TotalExpenses  decimal.Decimal            `json:"total_expenses"`
	Net            decimal.Decimal            `json:"net"`
	Categories     []aggregate.CategoryTotal  `json:"categories"`
	Months         []aggregate.MonthTotal     `json:"months"`
	CurrentMonth   map[string]decimal.Decimal `json:"current_month"`
	AverageMonthly map[string]decimal.Decimal `json:"average_monthly"`
}

// SavingsInsights bundles the savings planner output.
type SavingsInsights struct {
	Recommendations         []core.SavingsRecommendation `json:"recommendations"`
	PotentialMonthlySavings decimal.Decimal              `json:"potential_monthly_savings"`
	SuggestedMonthlySavings decimal.Decimal              `json:"suggested_monthly_savings"`
	Goals                   []savings.GoalProgress       `json:"goals"`
}

// Overview is everything the dashboard shows at once.
type Overview struct {
	Summary         Summary            `json:"summary"`
	Savings         SavingsInsights    `json:"savings"`
	Recommendations []string           `json:"recommendations"`
	Alerts          []core.BudgetAlert `json:"alerts"`
	Latest          []core.Transaction `json:"latest_transactions"`
	SyncedAt        time.Time          `json:"synced_at"`
}

// InsightsService runs the analysis packages over the user's cached
// snapshot. It never writes except through Reset.
type InsightsService struct {
	snapshots Snapshots
	resetter  DataResetter
	engine    *recommend.Engine
	budgets   *BudgetService
	assistant *assistant.Assistant
	logger    *log.Logger
	now       func() time.Time
}

func NewInsightsService(snapshots Snapshots, resetter DataResetter, engine *recommend.Engine, budgets *BudgetService, asst *assistant.Assistant, logger *log.Logger) *InsightsService {
	if engine == nil {
		engine = recommend.NewEngine(recommend.FailureAdvisory)
	}
	return &InsightsService{
		snapshots: snapshots,
		resetter:  resetter,
		engine:    engine,
		budgets:   budgets,
		assistant: asst,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *InsightsService) snapshot(ctx context.Context, userID string) (*cache.Snapshot, error) {
	snap, err := s.snapshots.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Recommendations returns up to four personalized suggestions.
func (s *InsightsService) Recommendations(ctx context.Context, userID string) ([]string, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.engine.ForTransactions(snap.Transactions, snap.Budgets, s.now()), nil
}

// Savings returns reduction suggestions, the suggested monthly savings and
// the progress of every goal.
func (s *InsightsService) Savings(ctx context.Context, userID string) (SavingsInsights, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return SavingsInsights{}, err
	}
	return s.savings(snap), nil
}

func (s *InsightsService) savings(snap *cache.Snapshot) SavingsInsights {
	out := SavingsInsights{
		Recommendations:         savings.Recommendations(snap.Transactions),
		PotentialMonthlySavings: savings.PotentialMonthlySavings(snap.Transactions),
		SuggestedMonthlySavings: savings.MonthlySavingsTarget(snap.Transactions),
		Goals:                   make([]savings.GoalProgress, 0, len(snap.Goals)),
	}
	if out.Recommendations == nil {
		out.Recommendations = []core.SavingsRecommendation{}
	}
	now := s.now()
	for _, g := range snap.Goals {
		out.Goals = append(out.Goals, savings.Progress(g, now))
	}
	return out
}

// Summary totals the user's transactions by category and month.
func (s *InsightsService) Summary(ctx context.Context, userID string) (Summary, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return s.summary(snap), nil
}

func (s *InsightsService) summary(snap *cache.Snapshot) Summary {
	income := core.SumIncome(snap.Transactions)
	expenses := core.SumSpend(snap.Transactions)
	return Summary{
		TotalIncome:    income,
		TotalExpenses:  expenses,
		Net:            income.Sub(expenses),
		Categories:     aggregate.SortedCategoryTotals(snap.Transactions),
		Months:         aggregate.MonthlyTotals(aggregate.GroupByMonth(snap.Transactions)),
		CurrentMonth:   aggregate.CurrentMonthSpending(snap.Transactions, s.now()),
		AverageMonthly: aggregate.AverageMonthlySpending(snap.Transactions),
	}
}

// Overview computes the summary, savings, recommendations and alerts
// concurrently from one snapshot.
func (s *InsightsService) Overview(ctx context.Context, userID string) (Overview, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return Overview{}, err
	}

	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Summary = s.summary(snap)
		return nil
	})
	g.Go(func() error {
		out.Savings = s.savings(snap)
		return nil
	})
	g.Go(func() error {
		out.Recommendations = s.engine.ForTransactions(snap.Transactions, snap.Budgets, s.now())
		return nil
	})
	if s.budgets != nil {
		g.Go(func() error {
			alerts, err := s.budgets.Alerts(gctx, userID)
			out.Alerts = alerts
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	n := min(DefaultLatestLimit, len(snap.Transactions))
	out.Latest = snap.Transactions[:n]
	out.SyncedAt = snap.LoadedAt
	return out, nil
}

// FinancialContext is the text the assistant receives about the user.
func (s *InsightsService) FinancialContext(ctx context.Context, userID string) (string, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return "", err
	}
	return assistant.BuildContext(snap.Transactions, snap.Budgets, snap.Goals, s.now()), nil
}

// Ask answers a question about the user's finances.
func (s *InsightsService) Ask(ctx context.Context, userID, question string) (string, error) {
	if s.assistant == nil || !s.assistant.Configured() {
		return assistant.NotConfiguredMessage, assistant.ErrNotConfigured
	}
	financial, err := s.FinancialContext(ctx, userID)
	if err != nil {
		return assistant.ErrorMessage, err
	}
	return s.assistant.Ask(ctx, question, financial)
}

// ExportTransactions writes the user's transactions as CSV.
func (s *InsightsService) ExportTransactions(ctx context.Context, userID string, w io.Writer) error {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return err
	}
	return export.Transactions(w, snap.Transactions)
}

// ExportGoals writes the user's savings goals as CSV.
func (s *InsightsService) ExportGoals(ctx context.Context, userID string, w io.Writer) error {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return err
	}
	return export.Goals(w, snap.Goals)
}

// ExportRecommendations writes the savings recommendations as CSV.
func (s *InsightsService) ExportRecommendations(ctx context.Context, userID string, w io.Writer) error {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return err
	}
	return export.Recommendations(w, savings.Recommendations(snap.Transactions))
}

// Report renders the plain-text financial summary.
func (s *InsightsService) Report(ctx context.Context, userID string) (string, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return "", err
	}
	return export.Report(snap.Transactions, snap.Goals, savings.Recommendations(snap.Transactions), s.now()), nil
}

// Sync reloads the user's snapshot from storage.
func (s *InsightsService) Sync(ctx context.Context, userID string) (*cache.Snapshot, error) {
	snap, err := s.snapshots.Sync(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sync snapshot: %w", err)
	}
	s.logger.InfoContext(ctx, "Snapshot synced",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpSync,
		log.FieldCount, len(snap.Transactions))
	return snap, nil
}

// Reset deletes every transaction, CSV file, deposit, goal and budget of
// the user.
func (s *InsightsService) Reset(ctx context.Context, userID string) error {
	if err := s.resetter.ResetUserData(ctx, userID); err != nil {
		return fmt.Errorf("reset user data: %w", err)
	}
	s.snapshots.Invalidate(userID)
	s.logger.WarnContext(ctx, "User data reset",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpReset)
	return nil
}
