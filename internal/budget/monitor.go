// Package budget compares current-month spending against budget limits and
// produces threshold alerts.
package budget

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smartsave/internal/aggregate"
	"smartsave/internal/core"
)

// Policy selects which crossed threshold an alert reports.
type Policy string

const (
	// PolicyLowest reports the first threshold met scanning ascending, so a
	// budget at 95% with thresholds 50/80/90/100 reports 50.
	PolicyLowest Policy = "lowest"
	// PolicyHighest reports the most severe threshold met (90 in the same case).
	PolicyHighest Policy = "highest"
)

// DefaultThresholds are the percentage checkpoints used when none are given.
var DefaultThresholds = []float64{50, 80, 90, 100}

// ParsePolicy accepts "lowest" or "highest", case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyLowest, PolicyHighest:
		return p, nil
	case "":
		return PolicyLowest, nil
	}
	return "", fmt.Errorf("unknown budget alert policy %q", s)
}

// Monitor evaluates budgets. The zero value uses DefaultThresholds,
// PolicyLowest and time.Now.
type Monitor struct {
	Thresholds []float64
	Policy     Policy
	Now        func() time.Time
}

// NewMonitor returns a Monitor with the given thresholds and policy.
func NewMonitor(thresholds []float64, policy Policy) *Monitor {
	return &Monitor{Thresholds: thresholds, Policy: policy}
}

// CheckBudgets runs the default monitor.
func CheckBudgets(budgets []core.Budget, txs []core.Transaction) []core.BudgetAlert {
	return (&Monitor{}).Check(budgets, txs)
}

// Check returns at most one alert per monthly budget that has spending in
// the current calendar month. Weekly and yearly budgets are not evaluated.
func (m *Monitor) Check(budgets []core.Budget, txs []core.Transaction) []core.BudgetAlert {
	spending := aggregate.CurrentMonthSpending(txs, m.now())
	thresholds := m.thresholds()

	var alerts []core.BudgetAlert
	for _, b := range budgets {
		if b.Period != core.PeriodMonthly {
			continue
		}
		spent, ok := spending[b.Category]
		if !ok || spent.IsZero() {
			continue
		}
		if !b.Amount.IsPositive() {
			continue
		}

		pct := PercentUsed(spent, b.Amount)
		threshold, ok := m.pick(pct, thresholds)
		if !ok {
			continue
		}
		alerts = append(alerts, core.BudgetAlert{
			BudgetID:        b.ID,
			Category:        b.Category,
			Threshold:       threshold,
			CurrentSpending: spent,
			BudgetAmount:    b.Amount,
			PercentageUsed:  pct,
			Message:         AlertMessage(b.Category, pct, b.Amount),
		})
	}
	return alerts
}

// PercentUsed returns spent/limit*100. A non-positive limit yields 0.
func PercentUsed(spent, limit decimal.Decimal) float64 {
	if !limit.IsPositive() {
		return 0
	}
	return spent.Div(limit).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// AlertMessage renders the user-facing text for an alert.
func AlertMessage(category string, pct float64, limit decimal.Decimal) string {
	if pct >= 100 {
		return fmt.Sprintf("Warning: You've exceeded your %s budget of %s!", category, limit.StringFixed(2))
	}
	return fmt.Sprintf("Alert: You've used %d%% of your %s budget this month.", int(math.Floor(pct)), category)
}

func (m *Monitor) pick(pct float64, ascending []float64) (float64, bool) {
	found := false
	var picked float64
	for _, th := range ascending {
		if pct < th {
			continue
		}
		if m.Policy != PolicyHighest {
			return th, true
		}
		picked, found = th, true
	}
	return picked, found
}

func (m *Monitor) thresholds() []float64 {
	src := m.Thresholds
	if len(src) == 0 {
		src = DefaultThresholds
	}
	out := append([]float64(nil), src...)
	sort.Float64s(out)
	return out
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
