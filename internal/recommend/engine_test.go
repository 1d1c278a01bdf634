package recommend

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"smartsave/internal/core"
)

const (
	lowSavingsMsg = "Your savings rate is 10.0%, which is below the recommended 15-20%. Consider applying the 50/30/20 rule: 50% on needs, 30% on wants, and 20% on savings."
	auditMsg      = "Consider auditing your subscriptions and recurring charges. Many people save €15-30 monthly by canceling unused subscriptions. Look for small regular transactions that might be forgotten subscriptions."
)

func ruleByID(t *testing.T, id string) Rule {
	t.Helper()
	for _, r := range Rules {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("rule %q not found", id)
	return Rule{}
}

func TestLowSavingsRateOnly(t *testing.T) {
	got := Recommend(FinancialData{SavingsRate: 10})
	want := []string{lowSavingsMsg, auditMsg}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected recommendations:\n%q", got)
	}
	count := 0
	for _, r := range got {
		if r == lowSavingsMsg {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected savings message exactly once, got %d", count)
	}
}

func TestNoIncomeSkipsSavingsRule(t *testing.T) {
	got := Recommend(FinancialData{NoIncome: true})
	if !reflect.DeepEqual(got, []string{auditMsg}) {
		t.Fatalf("unexpected recommendations %q", got)
	}
}

func TestTruncatesToFourByPriority(t *testing.T) {
	data := FinancialData{
		TopExpenseCategories: []CategorySpending{
			{Category: "Shopping", Amount: 600, PercentOfTotal: 60, MonthOverMonthChange: 50},
			{Category: "Utilities", Amount: 400, PercentOfTotal: 40},
		},
		Budgets:                []BudgetUsage{{Category: "Shopping", Amount: 500, Period: core.PeriodMonthly, PercentUsed: 120}},
		SavingsRate:            5,
		MonthlyExpenses:        []MonthExpense{{"March", 100}, {"February", 300}, {"January", 200}},
		AverageMonthlyExpenses: 1500,
	}
	got := Recommend(data)
	want := []string{
		"You've exceeded your budget in: Shopping (120% used). Focus on immediately reducing spending in these categories for the rest of the period.",
		"Your Shopping spending accounts for 60.0% of your total expenses (€600.00). Consider setting a stricter budget for this category and identify specific items to cut back on.",
		"Your spending has significantly increased in: Shopping (+50.0%). Review these categories to identify recent changes and consider returning to previous spending levels.",
		"Your savings rate is 5.0%, which is below the recommended 15-20%. Consider applying the 50/30/20 rule: 50% on needs, 30% on wants, and 20% on savings.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected recommendations:\n%q", got)
	}
}

func TestRuleMessages(t *testing.T) {
	cases := []struct {
		id   string
		data FinancialData
		want string
	}{
		{
			id: "high-discretionary",
			data: FinancialData{TopExpenseCategories: []CategorySpending{
				{Category: "Rent & Housing", Amount: 200},
				{Category: "Entertainment", Amount: 100},
				{Category: "Food & Dining", Amount: 50},
				{Category: "Shopping", Amount: 10},
			}},
			want: "You're spending 44.4% of your budget on discretionary items, particularly Entertainment (€100.00) and Food & Dining (€50.00). Try using the 24-hour rule: wait 24 hours before making non-essential purchases.",
		},
		{
			id:   "expense-volatility",
			data: FinancialData{MonthlyExpenses: []MonthExpense{{"March", 100}, {"February", 200}, {"January", 100}}},
			want: "Your monthly spending varies by up to 100% (€100.00). Creating a consistent monthly budget and sticking to it can help stabilize your finances and make your expenses more predictable.",
		},
		{
			id:   "rewards-optimization",
			data: FinancialData{AverageMonthlyExpenses: 1500},
			want: "With your current spending level of €1500.00/month, using the right cashback or rewards credit card could save you €30.00/month. Make sure you're maximizing rewards on your highest spending categories.",
		},
		{
			id: "budget-overspent",
			data: FinancialData{Budgets: []BudgetUsage{
				{Category: "A", PercentUsed: 150.4},
				{Category: "B", PercentUsed: 90},
				{Category: "C", PercentUsed: 101},
				{Category: "D", PercentUsed: 300},
			}},
			want: "You've exceeded your budget in: A (150% used), C (101% used). Focus on immediately reducing spending in these categories for the rest of the period.",
		},
		{
			id: "significant-category-increase",
			data: FinancialData{TopExpenseCategories: []CategorySpending{
				{Category: "Travel", MonthOverMonthChange: 25.25},
				{Category: "Rent & Housing", MonthOverMonthChange: 5},
			}},
			want: "Your spending has significantly increased in: Travel (+25.3%). Review these categories to identify recent changes and consider returning to previous spending levels.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			r := ruleByID(t, tc.id)
			if !r.Applies(tc.data) {
				t.Fatalf("expected rule to apply")
			}
			if got := r.Message(tc.data); got != tc.want {
				t.Fatalf("unexpected message:\n got: %q\nwant: %q", got, tc.want)
			}
		})
	}
}

func TestRulePredicateBoundaries(t *testing.T) {
	cases := []struct {
		id   string
		data FinancialData
		want bool
	}{
		{"high-category-percentage", FinancialData{TopExpenseCategories: []CategorySpending{{PercentOfTotal: 30}}}, false},
		{"high-category-percentage", FinancialData{TopExpenseCategories: []CategorySpending{{PercentOfTotal: 30.01}}}, true},
		{"significant-category-increase", FinancialData{TopExpenseCategories: []CategorySpending{{MonthOverMonthChange: 20}}}, false},
		{"budget-overspent", FinancialData{Budgets: []BudgetUsage{{PercentUsed: 100}}}, false},
		{"low-savings-rate", FinancialData{SavingsRate: 15}, false},
		{"low-savings-rate", FinancialData{SavingsRate: -40}, true},
		{"high-discretionary", FinancialData{}, false},
		{"high-discretionary", FinancialData{TopExpenseCategories: []CategorySpending{{Category: "Travel", Amount: 25}, {Category: "Utilities", Amount: 75}}}, false},
		{"expense-volatility", FinancialData{MonthlyExpenses: []MonthExpense{{"a", 100}, {"b", 500}}}, false},
		{"expense-volatility", FinancialData{MonthlyExpenses: []MonthExpense{{"a", 0}, {"b", 0}, {"c", 0}}}, false},
		{"expense-volatility", FinancialData{MonthlyExpenses: []MonthExpense{{"a", 100}, {"b", 105}, {"c", 95}}}, false},
		{"subscription-audit", FinancialData{}, true},
		{"rewards-optimization", FinancialData{AverageMonthlyExpenses: 1000}, false},
	}
	for _, tc := range cases {
		if got := ruleByID(t, tc.id).Applies(tc.data); got != tc.want {
			t.Errorf("%s %+v: expected %v, got %v", tc.id, tc.data, tc.want, got)
		}
	}
}

func TestEmptyMessagesAreDropped(t *testing.T) {
	// applies, but the lowest month is zero so no percentage can be stated
	data := FinancialData{MonthlyExpenses: []MonthExpense{{"March", 0}, {"February", 500}, {"January", 400}}}
	e := NewEngine(FailureAdvisory).WithRules([]Rule{ruleByID(t, "expense-volatility")})
	if got := e.Recommend(data); len(got) != 0 {
		t.Fatalf("expected no output, got %q", got)
	}
}

func TestStableOrderForEqualPriority(t *testing.T) {
	mk := func(id string, p int) Rule {
		return Rule{ID: id, Priority: p, Applies: func(FinancialData) bool { return true }, Message: func(FinancialData) string { return id }}
	}
	e := NewEngine(FailureAdvisory).WithRules([]Rule{mk("a", 5), mk("b", 5), mk("c", 7), mk("d", 5), mk("e", 1)})
	if got := e.Recommend(FinancialData{}); !reflect.DeepEqual(got, []string{"c", "a", "b", "d"}) {
		t.Fatalf("unexpected order %q", got)
	}
}

func TestFailureModes(t *testing.T) {
	boom := Rule{ID: "boom", Priority: 1, Applies: func(FinancialData) bool { panic("boom") }}
	rules := append([]Rule{ruleByID(t, "subscription-audit")}, boom)

	got := NewEngine(FailureAdvisory).WithRules(rules).Recommend(FinancialData{})
	if !reflect.DeepEqual(got, []string{FallbackMessage}) {
		t.Fatalf("expected advisory fallback, got %q", got)
	}
	got = NewEngine(FailureEmpty).WithRules(rules).Recommend(FinancialData{})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty list, got %q", got)
	}
}

func TestParseFailureMode(t *testing.T) {
	if m, err := ParseFailureMode(""); err != nil || m != FailureAdvisory {
		t.Fatalf("expected advisory default, got %q %v", m, err)
	}
	if m, err := ParseFailureMode("EMPTY"); err != nil || m != FailureEmpty {
		t.Fatalf("expected empty, got %q %v", m, err)
	}
	if _, err := ParseFailureMode("silent"); err == nil {
		t.Fatalf("expected error")
	}
}

func newTx(y, m, d int, amount, category string) core.Transaction {
	return core.Transaction{Date: core.NewDate(y, m, d), Description: "x", Amount: decimal.RequireFromString(amount), Category: category}
}

func TestPrepareFinancialData(t *testing.T) {
	now := time.Date(2025, 3, 18, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		newTx(2025, 3, 5, "-300", "Food & Dining"),
		newTx(2025, 2, 10, "-200", "Food & Dining"),
		newTx(2025, 1, 15, "-100", "Shopping"),
		newTx(2025, 3, 1, "4000", "Income"),
		newTx(2024, 11, 1, "-999", "Travel"),
		newTx(2025, 3, 7, "-50", ""),
	}
	budgets := []core.Budget{{Category: "Food & Dining", Amount: decimal.NewFromInt(400), Period: core.PeriodMonthly}}

	data := PrepareFinancialData(txs, budgets, now)

	if _, ok := data.CategoryTotals["Travel"]; ok {
		t.Fatalf("transactions older than three months must not count")
	}
	if len(data.TopExpenseCategories) != 2 || data.TopExpenseCategories[0].Category != "Food & Dining" {
		t.Fatalf("unexpected top categories %+v", data.TopExpenseCategories)
	}
	food := data.TopExpenseCategories[0]
	if food.Amount != 500 || math.Abs(food.PercentOfTotal-83.333) > 0.01 || food.MonthOverMonthChange != 50 {
		t.Fatalf("unexpected food stats %+v", food)
	}
	if data.RecentMonths[0].Expenses["Uncategorized"] != 50 || data.RecentMonths[0].TotalExpense != 350 {
		t.Fatalf("unexpected current month %+v", data.RecentMonths[0])
	}
	wantMonths := []MonthExpense{{"March", 350}, {"February", 200}, {"January", 100}}
	if !reflect.DeepEqual(data.MonthlyExpenses, wantMonths) {
		t.Fatalf("unexpected monthly expenses %+v", data.MonthlyExpenses)
	}
	if math.Abs(data.SavingsRate-58.775) > 1e-9 || data.NoIncome {
		t.Fatalf("unexpected savings rate %v", data.SavingsRate)
	}
	if data.Budgets[0].PercentUsed != 125 {
		t.Fatalf("unexpected budget usage %v", data.Budgets[0].PercentUsed)
	}

	got := NewEngine(FailureAdvisory).ForTransactions(txs, budgets, now)
	if len(got) != MaxRecommendations {
		t.Fatalf("expected %d recommendations, got %d: %q", MaxRecommendations, len(got), got)
	}
	if !strings.HasPrefix(got[0], "You've exceeded your budget in: Food & Dining (125% used).") {
		t.Fatalf("unexpected first recommendation %q", got[0])
	}
	if !strings.HasPrefix(got[3], "You're spending 100.0% of your budget on discretionary items") {
		t.Fatalf("unexpected fourth recommendation %q", got[3])
	}
}

func TestPrepareFinancialDataWithoutIncome(t *testing.T) {
	now := time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC)
	data := PrepareFinancialData([]core.Transaction{newTx(2025, 3, 1, "-10", "Shopping")}, nil, now)
	if !data.NoIncome || data.SavingsRate != 0 {
		t.Fatalf("expected undefined savings rate, got %+v", data)
	}
}

func TestSubMonths(t *testing.T) {
	cases := []struct {
		in   time.Time
		n    int
		want string
	}{
		{time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC), 3, "2025-02-28"},
		{time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), 3, "2024-02-29"},
		{time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), 1, "2025-02-28"},
		{time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), 2, "2024-11-15"},
		{time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), 0, "2025-01-15"},
	}
	for _, tc := range cases {
		if got := subMonths(tc.in, tc.n).Format(core.DateLayout); got != tc.want {
			t.Errorf("%s - %d: expected %s, got %s", tc.in.Format(core.DateLayout), tc.n, tc.want, got)
		}
	}
}
