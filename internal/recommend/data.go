// Package recommend turns aggregated spending into prioritized,
// human-readable savings suggestions.
package recommend

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"smartsave/internal/aggregate"
	"smartsave/internal/core"
)

// uncategorized labels expenses without a category in the monthly series.
const uncategorized = "Uncategorized"

// analysisMonths is the window recommendations look back over.
const analysisMonths = 3

type CategorySpending struct {
	Category             string
	Amount               float64
	PercentOfTotal       float64
	MonthlyAverage       float64
	MonthOverMonthChange float64 // percent change vs previous month
}

type MonthExpense struct {
	Month string // full month name, "March"
	Total float64
}

type BudgetUsage struct {
	Category    string
	Amount      float64
	Period      core.Period
	PercentUsed float64
}

type MonthData struct {
	Month        time.Time
	Expenses     map[string]float64
	TotalExpense float64
}

// FinancialData is the snapshot every rule is evaluated against.
type FinancialData struct {
	Transactions           []core.Transaction
	CategoryTotals         map[string]decimal.Decimal
	TopExpenseCategories   []CategorySpending
	MonthlyExpenses        []MonthExpense
	SavingsRate            float64
	NoIncome               bool // savings rate is undefined without income
	AverageMonthlyIncome   float64
	AverageMonthlyExpenses float64
	Budgets                []BudgetUsage
	RecentMonths           []MonthData
}

// PrepareFinancialData builds the snapshot from the user's transactions and
// budgets as of now.
//
// Category totals, top categories and budget usage look at the last three
// months; income, expenses and the savings rate use every transaction passed
// in, averaged over three months.
func PrepareFinancialData(txs []core.Transaction, budgets []core.Budget, now time.Time) FinancialData {
	cutoff := core.DateOf(subMonths(now, analysisMonths))
	var recent []core.Transaction
	for _, t := range txs {
		if !t.Date.Before(cutoff.Time) {
			recent = append(recent, t)
		}
	}
	categoryTotals := aggregate.CategoryTotals(recent)

	months := make([]MonthData, 0, analysisMonths)
	for i := 0; i < analysisMonths; i++ {
		months = append(months, monthData(txs, subMonths(now, i)))
	}

	totalExpenses := core.SumSpend(txs).InexactFloat64()
	totalIncome := core.SumIncome(txs).InexactFloat64()

	data := FinancialData{
		Transactions:           recent,
		CategoryTotals:         categoryTotals,
		AverageMonthlyExpenses: totalExpenses / analysisMonths,
		AverageMonthlyIncome:   totalIncome / analysisMonths,
		RecentMonths:           months,
	}
	if totalIncome > 0 {
		data.SavingsRate = (totalIncome - totalExpenses) / totalIncome * 100
	} else {
		data.NoIncome = true
	}

	data.TopExpenseCategories = topCategories(categoryTotals, months)

	for _, b := range budgets {
		usage := BudgetUsage{Category: b.Category, Amount: b.Amount.InexactFloat64(), Period: b.Period}
		if b.Amount.IsPositive() {
			spent := categoryTotals[b.Category]
			usage.PercentUsed = spent.Div(b.Amount).InexactFloat64() * 100
		}
		data.Budgets = append(data.Budgets, usage)
	}

	for _, m := range months {
		data.MonthlyExpenses = append(data.MonthlyExpenses, MonthExpense{Month: m.Month.Month().String(), Total: m.TotalExpense})
	}
	return data
}

func topCategories(totals map[string]decimal.Decimal, months []MonthData) []CategorySpending {
	sorted := aggregate.SortTotals(totals)
	var total float64
	for _, ct := range sorted {
		total += ct.Amount.InexactFloat64()
	}

	out := make([]CategorySpending, 0, len(sorted))
	for _, ct := range sorted {
		amount := ct.Amount.InexactFloat64()
		cs := CategorySpending{
			Category:       ct.Category,
			Amount:         amount,
			MonthlyAverage: amount / analysisMonths,
		}
		if total > 0 {
			cs.PercentOfTotal = amount / total * 100
		}
		if len(months) >= 2 {
			current := months[0].Expenses[ct.Category]
			previous := months[1].Expenses[ct.Category]
			if previous > 0 {
				cs.MonthOverMonthChange = (current - previous) / previous * 100
			}
		}
		out = append(out, cs)
	}
	return out
}

func monthData(txs []core.Transaction, month time.Time) MonthData {
	md := MonthData{Month: month, Expenses: make(map[string]float64)}
	start, end := aggregate.MonthBounds(core.DateOf(month))
	for _, t := range aggregate.InRange(txs, start, end) {
		if !t.IsExpense() {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = uncategorized
		}
		md.Expenses[cat] += t.Spend().InexactFloat64()
	}
	// sum in a fixed order so the total does not depend on map iteration
	cats := make([]string, 0, len(md.Expenses))
	for c := range md.Expenses {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		md.TotalExpense += md.Expenses[c]
	}
	return md
}

// subMonths moves t back n calendar months, clamping the day to the length
// of the target month (May 31 minus three months is Feb 28/29).
func subMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, -n, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}
