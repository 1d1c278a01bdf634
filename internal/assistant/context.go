package assistant

import (
	"fmt"
	"strings"
	"time"

	"smartsave/internal/core"
	"smartsave/internal/recommend"
	"smartsave/internal/savings"
)

const maxContextCategories = 5

// BuildContext summarizes the user's finances as plain text for the model:
// income and expenses, top categories, monthly expenses, budgets and goals.
func BuildContext(txs []core.Transaction, budgets []core.Budget, goals []core.SavingsGoal, now time.Time) string {
	data := recommend.PrepareFinancialData(txs, budgets, now)

	var b strings.Builder
	b.WriteString("Financial summary:\n")
	fmt.Fprintf(&b, "- Total income (3 months): €%.2f (avg €%.2f/month)\n", data.AverageMonthlyIncome*3, data.AverageMonthlyIncome)
	fmt.Fprintf(&b, "- Total expenses (3 months): €%.2f (avg €%.2f/month)\n", data.AverageMonthlyExpenses*3, data.AverageMonthlyExpenses)
	if data.NoIncome {
		b.WriteString("- Savings rate: unavailable (no income recorded)\n")
	} else {
		fmt.Fprintf(&b, "- Savings rate: %.1f%%\n", data.SavingsRate)
	}
	usage := make([]string, 0, len(data.Budgets))
	for _, u := range data.Budgets {
		usage = append(usage, fmt.Sprintf("%s: %.0f%%", u.Category, u.PercentUsed))
	}
	fmt.Fprintf(&b, "- Current month budget utilization: %s\n\n", strings.Join(usage, ", "))

	top := make([]string, 0, maxContextCategories)
	for i, c := range data.TopExpenseCategories {
		if i == maxContextCategories {
			break
		}
		top = append(top, fmt.Sprintf("%s: €%.2f", c.Category, c.Amount))
	}
	months := make([]string, 0, len(data.MonthlyExpenses))
	for _, m := range data.MonthlyExpenses {
		months = append(months, fmt.Sprintf("%s: €%.2f", m.Month, m.Total))
	}
	fmt.Fprintf(&b, "Recent transactions summary (past 3 months): %d transactions.\n", len(data.Transactions))
	fmt.Fprintf(&b, "Top expense categories: %s.\n", strings.Join(top, ", "))
	fmt.Fprintf(&b, "Monthly expenses: %s.\n\n", strings.Join(months, ", "))

	if len(budgets) == 0 {
		b.WriteString("No budgets set.\n\n")
	} else {
		parts := make([]string, 0, len(data.Budgets))
		for _, u := range data.Budgets {
			spent := data.CategoryTotals[u.Category]
			parts = append(parts, fmt.Sprintf("%s: €%s/€%.2f (%.1f%% used) %s", u.Category, spent.StringFixed(2), u.Amount, u.PercentUsed, u.Period))
		}
		fmt.Fprintf(&b, "Budgets: %s.\n\n", strings.Join(parts, ", "))
	}

	if len(goals) == 0 {
		b.WriteString("No savings goals set.")
	} else {
		lines := make([]string, 0, len(goals))
		for _, g := range goals {
			p := savings.Progress(g, now)
			line := fmt.Sprintf("%s: €%s/€%s (%.1f%%)", g.Name, g.CurrentAmount.StringFixed(2), g.TargetAmount.StringFixed(2), p.Percent)
			if !g.TargetDate.IsZero() {
				line += fmt.Sprintf(" (%d months left, need €%s/month)", p.MonthsLeft, p.RequiredMonthly.StringFixed(2))
			}
			lines = append(lines, line)
		}
		fmt.Fprintf(&b, "Savings goals: %s.", strings.Join(lines, "\n"))
	}
	return b.String()
}
