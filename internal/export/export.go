// Package export renders user data as downloadable CSV files and a plain
// text summary report.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smartsave/internal/core"
)

// Filename returns the download name for kind ("transactions", "goals",
// "recommendations", "report") generated on day.
func Filename(kind, ext string, day time.Time) string {
	return fmt.Sprintf("smartsave_%s_%s.%s", kind, day.Format(core.DateLayout), ext)
}

// Transactions writes one row per transaction.
func Transactions(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "description", "amount", "type", "account_number", "currency", "category"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txs {
		row := []string{t.Date.String(), t.Description, t.Amount.String(), t.Type, t.AccountNumber, t.Currency, t.Category}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transaction %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Goals writes one row per savings goal.
func Goals(w io.Writer, goals []core.SavingsGoal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "targetAmount", "currentAmount", "targetDate", "createdAt"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, g := range goals {
		var created string
		if !g.CreatedAt.IsZero() {
			created = g.CreatedAt.UTC().Format(time.RFC3339)
		}
		row := []string{g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), g.TargetDate.String(), created}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write goal %s: %w", g.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Recommendations writes one row per savings recommendation.
func Recommendations(w io.Writer, recs []core.SavingsRecommendation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"category", "currentSpending", "suggestedReduction", "potentialSavings", "description"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range recs {
		row := []string{
			r.Category,
			r.CurrentSpending.StringFixed(2),
			strconv.FormatFloat(r.SuggestedReduction, 'f', -1, 64),
			r.PotentialSavings.StringFixed(2),
			r.Description,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write recommendation %s: %w", r.Category, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// maxReportRecommendations caps the recommendations listed in Report.
const maxReportRecommendations = 5

// Report renders the plain text summary.
func Report(txs []core.Transaction, goals []core.SavingsGoal, recs []core.SavingsRecommendation, now time.Time) string {
	income := core.SumIncome(txs)
	expenses := core.SumSpend(txs)

	var b strings.Builder
	b.WriteString("# SmartSave Financial Summary Report\n")
	fmt.Fprintf(&b, "Generated on %s\n\n", now.Format(core.DateLayout))

	b.WriteString("## Financial Overview\n")
	fmt.Fprintf(&b, "Total Income: %s\n", income.StringFixed(2))
	fmt.Fprintf(&b, "Total Expenses: %s\n", expenses.StringFixed(2))
	fmt.Fprintf(&b, "Net Savings: %s\n\n", income.Sub(expenses).StringFixed(2))

	b.WriteString("## Savings Goals\n")
	for _, g := range goals {
		pct := decimal.Zero
		if g.TargetAmount.IsPositive() {
			pct = g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
		}
		fmt.Fprintf(&b, "- %s: %s / %s (%s%%)\n", g.Name, g.CurrentAmount.String(), g.TargetAmount.String(), pct.StringFixed(1))
	}
	b.WriteString("\n## Top Saving Recommendations\n")
	for i, r := range recs {
		if i == maxReportRecommendations {
			break
		}
		fmt.Fprintf(&b, "- %s: Potential savings of %s by reducing %s%%\n",
			r.Category, r.PotentialSavings.StringFixed(2), strconv.FormatFloat(r.SuggestedReduction, 'f', -1, 64))
	}
	return b.String()
}
