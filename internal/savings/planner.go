// Package savings derives savings suggestions and a monthly savings target
// from transaction history.
package savings

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"smartsave/internal/aggregate"
	"smartsave/internal/core"
)

// Target is a category with a fixed suggested reduction.
type Target struct {
	Category    string
	Reduction   decimal.Decimal // fraction, 0.15 = 15%
	Description string
}

// Targets are the categories the planner suggests cutting back on.
var Targets = []Target{
	{"Food & Dining", decimal.RequireFromString("0.15"), "Reducing restaurant and takeout meals could save you money. Consider cooking at home more often."},
	{"Entertainment", decimal.RequireFromString("0.20"), "Look for free or lower-cost entertainment options to reduce spending in this category."},
	{"Shopping", decimal.RequireFromString("0.15"), "Consider implementing a 24-hour rule before non-essential purchases to reduce impulse buying."},
	{"Subscriptions", decimal.RequireFromString("0.30"), "Review your subscriptions and cancel those you don't regularly use."},
	{"Transportation", decimal.RequireFromString("0.10"), "Consider carpooling, public transport, or biking for some trips to save on transport costs."},
}

// minMonthlySpend is the average monthly spend a target category must exceed
// before a reduction is suggested.
var minMonthlySpend = decimal.NewFromInt(50)

var (
	tierLow  = decimal.NewFromInt(500)
	tierMid  = decimal.NewFromInt(1000)
	rateLow  = decimal.RequireFromString("0.2")
	rateMid  = decimal.RequireFromString("0.3")
	rateHigh = decimal.RequireFromString("0.4")
	hundred  = decimal.NewFromInt(100)
)

// Recommendations suggests reductions for target categories whose average
// monthly spending exceeds 50, largest potential saving first.
func Recommendations(txs []core.Transaction) []core.SavingsRecommendation {
	avg := aggregate.AverageMonthlySpending(txs)
	var out []core.SavingsRecommendation
	for _, target := range Targets {
		current, ok := avg[target.Category]
		if !ok || !current.GreaterThan(minMonthlySpend) {
			continue
		}
		out = append(out, core.SavingsRecommendation{
			Category:           target.Category,
			CurrentSpending:    current,
			SuggestedReduction: target.Reduction.Mul(hundred).InexactFloat64(),
			PotentialSavings:   current.Mul(target.Reduction),
			Description:        target.Description,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PotentialSavings.GreaterThan(out[j].PotentialSavings)
	})
	return out
}

// PotentialMonthlySavings sums the potential savings of Recommendations.
func PotentialMonthlySavings(txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, r := range Recommendations(txs) {
		total = total.Add(r.PotentialSavings)
	}
	return total
}

// DisposableIncome is average monthly income minus average monthly expenses.
// Both averages divide by the number of months that have income; ok is false
// when no month has income.
func DisposableIncome(txs []core.Transaction) (disposable decimal.Decimal, ok bool) {
	income := aggregate.MonthlyIncome(txs)
	if len(income) == 0 {
		return decimal.Zero, false
	}
	months := decimal.NewFromInt(int64(len(income)))
	avgIncome := aggregate.Sum(income).Div(months)
	avgExpenses := aggregate.Sum(aggregate.MonthlyExpenses(txs)).Div(months)
	return avgIncome.Sub(avgExpenses), true
}

// MonthlySavingsTarget suggests how much to save each month.
//
// Without income the target is zero. With no disposable income it falls back
// to the potential savings of category reductions; otherwise it is 20%, 30%
// or 40% of disposable income below 500, below 1000, or above.
func MonthlySavingsTarget(txs []core.Transaction) decimal.Decimal {
	disposable, ok := DisposableIncome(txs)
	if !ok {
		return decimal.Zero
	}
	switch {
	case !disposable.IsPositive():
		return PotentialMonthlySavings(txs)
	case disposable.LessThan(tierLow):
		return disposable.Mul(rateLow)
	case disposable.LessThan(tierMid):
		return disposable.Mul(rateMid)
	default:
		return disposable.Mul(rateHigh)
	}
}

// GoalProgress describes how far a goal is from its target.
type GoalProgress struct {
	GoalID          string          `json:"goal_id"`
	Percent         float64         `json:"percent"`
	Remaining       decimal.Decimal `json:"remaining"`
	MonthsLeft      int             `json:"months_left"`
	RequiredMonthly decimal.Decimal `json:"required_monthly"`
	Reached         bool            `json:"reached"`
}

// Progress reports completion of g as of now. MonthsLeft counts started
// calendar months until the target date; a past or missing target date
// leaves RequiredMonthly equal to Remaining.
func Progress(g core.SavingsGoal, now time.Time) GoalProgress {
	p := GoalProgress{GoalID: g.ID, Reached: g.Reached()}
	if g.TargetAmount.IsPositive() {
		p.Percent = math.Min(100, g.CurrentAmount.Mul(hundred).Div(g.TargetAmount).InexactFloat64())
	}
	p.Remaining = g.TargetAmount.Sub(g.CurrentAmount)
	if p.Remaining.IsNegative() {
		p.Remaining = decimal.Zero
	}
	p.RequiredMonthly = p.Remaining
	if !g.TargetDate.IsZero() {
		months := (g.TargetDate.Year()-now.Year())*12 + int(g.TargetDate.Month()) - int(now.Month())
		if months > 0 {
			p.MonthsLeft = months
			p.RequiredMonthly = p.Remaining.Div(decimal.NewFromInt(int64(months))).Round(2)
		}
	}
	return p
}
