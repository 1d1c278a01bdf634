// Package aggregate groups transactions by month and category.
//
// Every function is pure: inputs are never mutated and re-running on the
// same slice yields identical output. Only negative amounts count as
// spending; income and positive transfers never enter a total.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"smartsave/internal/core"
)

// MonthGroup holds the transactions of one calendar month in their
// original relative order.
type MonthGroup struct {
	Label        string // "Jan 2006"
	Year         int
	Month        time.Month
	Transactions []core.Transaction
}

// MonthTotal is the spending of one month.
type MonthTotal struct {
	Label string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// CategoryTotal is the spending of one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// GroupByMonth buckets txs by calendar month. Groups appear in the order
// their month is first seen.
func GroupByMonth(txs []core.Transaction) []MonthGroup {
	index := make(map[string]int)
	var groups []MonthGroup
	for _, t := range txs {
		label := t.Date.MonthLabel()
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, MonthGroup{Label: label, Year: t.Date.Year(), Month: t.Date.Month()})
		}
		groups[i].Transactions = append(groups[i].Transactions, t)
	}
	return groups
}

// MonthlyTotals sums the spending of each group.
func MonthlyTotals(groups []MonthGroup) []MonthTotal {
	out := make([]MonthTotal, 0, len(groups))
	for _, g := range groups {
		out = append(out, MonthTotal{Label: g.Label, Total: core.SumSpend(g.Transactions)})
	}
	return out
}

// CategoryTotals sums spending per category. Uncategorized expenses are
// skipped.
func CategoryTotals(txs []core.Transaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Category == "" || !t.IsExpense() {
			continue
		}
		totals[t.Category] = totals[t.Category].Add(t.Spend())
	}
	return totals
}

// SortedCategoryTotals returns CategoryTotals ordered by amount descending,
// then by name for equal amounts.
func SortedCategoryTotals(txs []core.Transaction) []CategoryTotal {
	return SortTotals(CategoryTotals(txs))
}

// SortTotals orders a category map by amount descending, then by name.
func SortTotals(totals map[string]decimal.Decimal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(totals))
	for cat, amt := range totals {
		out = append(out, CategoryTotal{Category: cat, Amount: amt})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// InRange keeps transactions dated within [from, to], both inclusive.
func InRange(txs []core.Transaction, from, to core.Date) []core.Transaction {
	var out []core.Transaction
	for _, t := range txs {
		if t.Date.Before(from.Time) || t.Date.After(to.Time) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// MonthBounds returns the first and last day of the month containing d.
func MonthBounds(d core.Date) (core.Date, core.Date) {
	start := d.MonthStart()
	end := core.Date{Time: start.AddDate(0, 1, -1)}
	return start, end
}

// CurrentMonthSpending sums categorized spending per category for the
// calendar month containing now.
func CurrentMonthSpending(txs []core.Transaction, now time.Time) map[string]decimal.Decimal {
	start, end := MonthBounds(core.DateOf(now))
	return CategoryTotals(InRange(txs, start, end))
}

// monthKey mirrors the "YYYY-M" bucketing used for monthly averages.
func monthKey(d core.Date) string {
	return fmt.Sprintf("%d-%d", d.Year(), int(d.Month()))
}

// AverageMonthlySpending averages categorized spending per category over the
// number of distinct months that contain categorized spending.
func AverageMonthlySpending(txs []core.Transaction) map[string]decimal.Decimal {
	months := make(map[string]struct{})
	totals := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Category == "" || !t.IsExpense() {
			continue
		}
		months[monthKey(t.Date)] = struct{}{}
		totals[t.Category] = totals[t.Category].Add(t.Spend())
	}
	if len(months) == 0 {
		return map[string]decimal.Decimal{}
	}
	n := decimal.NewFromInt(int64(len(months)))
	avg := make(map[string]decimal.Decimal, len(totals))
	for cat, total := range totals {
		avg[cat] = total.Div(n)
	}
	return avg
}

// MonthlyIncome sums positive amounts per "YYYY-M" month key.
func MonthlyIncome(txs []core.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if !t.IsIncome() {
			continue
		}
		k := monthKey(t.Date)
		out[k] = out[k].Add(t.Amount)
	}
	return out
}

// MonthlyExpenses sums spending per "YYYY-M" month key, categorized or not.
func MonthlyExpenses(txs []core.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if !t.IsExpense() {
			continue
		}
		k := monthKey(t.Date)
		out[k] = out[k].Add(t.Spend())
	}
	return out
}

// Sum adds every value of m.
func Sum(m map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}
