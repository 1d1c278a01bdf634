package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Rule is one (predicate, message, priority) entry of the rule table. A
// Message may return "" when it finds nothing to say; such output is
// dropped.
type Rule struct {
	ID       string
	Priority int
	Applies  func(FinancialData) bool
	Message  func(FinancialData) string
}

var discretionaryCategories = []string{"Entertainment", "Dining", "Shopping", "Travel", "Subscriptions"}

// Rules is the ordered rule table. Evaluation sorts by priority, keeping
// this order for equal priorities.
var Rules = []Rule{
	{
		ID:       "high-category-percentage",
		Priority: 9,
		Applies: func(d FinancialData) bool {
			_, ok := firstCategory(d, func(c CategorySpending) bool { return c.PercentOfTotal > 30 })
			return ok
		},
		Message: func(d FinancialData) string {
			c, ok := firstCategory(d, func(c CategorySpending) bool { return c.PercentOfTotal > 30 })
			if !ok {
				return ""
			}
			return fmt.Sprintf("Your %s spending accounts for %s%% of your total expenses (€%s). Consider setting a stricter budget for this category and identify specific items to cut back on.",
				c.Category, fixed(c.PercentOfTotal, 1), fixed(c.Amount, 2))
		},
	},
	{
		ID:       "significant-category-increase",
		Priority: 8,
		Applies: func(d FinancialData) bool {
			_, ok := firstCategory(d, func(c CategorySpending) bool { return c.MonthOverMonthChange > 20 })
			return ok
		},
		Message: func(d FinancialData) string {
			var mentions []string
			for _, c := range d.TopExpenseCategories {
				if c.MonthOverMonthChange > 20 && len(mentions) < 2 {
					mentions = append(mentions, fmt.Sprintf("%s (+%s%%)", c.Category, fixed(c.MonthOverMonthChange, 1)))
				}
			}
			if len(mentions) == 0 {
				return ""
			}
			return fmt.Sprintf("Your spending has significantly increased in: %s. Review these categories to identify recent changes and consider returning to previous spending levels.",
				strings.Join(mentions, ", "))
		},
	},
	{
		ID:       "budget-overspent",
		Priority: 10,
		Applies: func(d FinancialData) bool {
			for _, b := range d.Budgets {
				if b.PercentUsed > 100 {
					return true
				}
			}
			return false
		},
		Message: func(d FinancialData) string {
			var mentions []string
			for _, b := range d.Budgets {
				if b.PercentUsed > 100 && len(mentions) < 2 {
					mentions = append(mentions, fmt.Sprintf("%s (%s%% used)", b.Category, fixed(b.PercentUsed, 0)))
				}
			}
			if len(mentions) == 0 {
				return ""
			}
			return fmt.Sprintf("You've exceeded your budget in: %s. Focus on immediately reducing spending in these categories for the rest of the period.",
				strings.Join(mentions, ", "))
		},
	},
	{
		ID:       "low-savings-rate",
		Priority: 7,
		Applies: func(d FinancialData) bool {
			return !d.NoIncome && d.SavingsRate < 15
		},
		Message: func(d FinancialData) string {
			return fmt.Sprintf("Your savings rate is %s%%, which is below the recommended 15-20%%. Consider applying the 50/30/20 rule: 50%% on needs, 30%% on wants, and 20%% on savings.",
				fixed(d.SavingsRate, 1))
		},
	},
	{
		ID:       "high-discretionary",
		Priority: 6,
		Applies: func(d FinancialData) bool {
			disc, total := discretionaryShare(d)
			return total > 0 && disc/total > 0.25
		},
		Message: func(d FinancialData) string {
			disc, total := discretionaryShare(d)
			if total <= 0 {
				return ""
			}
			var mentions []string
			for _, c := range d.TopExpenseCategories {
				if isDiscretionary(c.Category) && len(mentions) < 2 {
					mentions = append(mentions, fmt.Sprintf("%s (€%s)", c.Category, fixed(c.Amount, 2)))
				}
			}
			return fmt.Sprintf("You're spending %s%% of your budget on discretionary items, particularly %s. Try using the 24-hour rule: wait 24 hours before making non-essential purchases.",
				fixed(disc/total*100, 1), strings.Join(mentions, " and "))
		},
	},
	{
		ID:       "expense-volatility",
		Priority: 5,
		Applies: func(d FinancialData) bool {
			if len(d.MonthlyExpenses) < 3 {
				return false
			}
			return coefficientOfVariation(d.MonthlyExpenses) > 0.2
		},
		Message: func(d FinancialData) string {
			if len(d.MonthlyExpenses) == 0 {
				return ""
			}
			highest, lowest := math.Inf(-1), math.Inf(1)
			for _, m := range d.MonthlyExpenses {
				highest = math.Max(highest, m.Total)
				lowest = math.Min(lowest, m.Total)
			}
			if lowest <= 0 {
				return ""
			}
			diff := highest - lowest
			return fmt.Sprintf("Your monthly spending varies by up to %s%% (€%s). Creating a consistent monthly budget and sticking to it can help stabilize your finances and make your expenses more predictable.",
				fixed(diff/lowest*100, 0), fixed(diff, 2))
		},
	},
	{
		ID:       "subscription-audit",
		Priority: 3,
		Applies:  func(FinancialData) bool { return true },
		Message: func(FinancialData) string {
			return "Consider auditing your subscriptions and recurring charges. Many people save €15-30 monthly by canceling unused subscriptions. Look for small regular transactions that might be forgotten subscriptions."
		},
	},
	{
		ID:       "rewards-optimization",
		Priority: 2,
		Applies: func(d FinancialData) bool {
			return d.AverageMonthlyExpenses > 1000
		},
		Message: func(d FinancialData) string {
			return fmt.Sprintf("With your current spending level of €%s/month, using the right cashback or rewards credit card could save you €%s/month. Make sure you're maximizing rewards on your highest spending categories.",
				fixed(d.AverageMonthlyExpenses, 2), fixed(d.AverageMonthlyExpenses*0.02, 2))
		},
	},
}

func firstCategory(d FinancialData, match func(CategorySpending) bool) (CategorySpending, bool) {
	for _, c := range d.TopExpenseCategories {
		if match(c) {
			return c, true
		}
	}
	return CategorySpending{}, false
}

func isDiscretionary(category string) bool {
	for _, dc := range discretionaryCategories {
		if strings.Contains(category, dc) {
			return true
		}
	}
	return false
}

func discretionaryShare(d FinancialData) (disc, total float64) {
	for _, c := range d.TopExpenseCategories {
		total += c.Amount
		if isDiscretionary(c.Category) {
			disc += c.Amount
		}
	}
	return disc, total
}

// coefficientOfVariation is the population standard deviation over the mean.
// A zero mean yields 0.
func coefficientOfVariation(months []MonthExpense) float64 {
	if len(months) == 0 {
		return 0
	}
	var sum float64
	for _, m := range months {
		sum += m.Total
	}
	avg := sum / float64(len(months))
	if avg == 0 {
		return 0
	}
	var variance float64
	for _, m := range months {
		variance += (m.Total - avg) * (m.Total - avg)
	}
	variance /= float64(len(months))
	return math.Sqrt(variance) / avg
}

// fixed renders x with the given number of decimals, rounding half away
// from zero on the shortest decimal representation of x.
func fixed(x float64, places int32) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Sprint(x)
	}
	return decimal.NewFromFloat(x).StringFixed(places)
}
