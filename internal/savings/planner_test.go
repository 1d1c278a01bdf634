package savings

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"smartsave/internal/core"
)

func tx(y, m int, amount, category string) core.Transaction {
	return core.Transaction{Date: core.NewDate(y, m, 10), Description: category, Amount: decimal.RequireFromString(amount), Category: category}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRecommendations(t *testing.T) {
	txs := []core.Transaction{
		tx(2025, 1, "-300", "Food & Dining"),
		tx(2025, 2, "-100", "Food & Dining"),
		tx(2025, 1, "-200", "Subscriptions"),
		tx(2025, 2, "-60", "Shopping"),
		tx(2025, 1, "-90", "Transportation"), // avg 45, below threshold
		tx(2025, 2, "-5000", "Rent & Housing"),
		tx(2025, 1, "4000", "Income"),
	}
	recs := Recommendations(txs)
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %+v", recs)
	}
	// Food: avg 200 * 0.15 = 30; Subscriptions: avg 100 * 0.30 = 30; Shopping avg 30 skipped
	if recs[0].Category != "Food & Dining" || recs[1].Category != "Subscriptions" {
		t.Fatalf("unexpected order %s, %s", recs[0].Category, recs[1].Category)
	}
	if !recs[0].PotentialSavings.Equal(dec("30")) || recs[0].SuggestedReduction != 15 {
		t.Fatalf("unexpected food recommendation %+v", recs[0])
	}
	if recs[1].SuggestedReduction != 30 {
		t.Fatalf("unexpected subscription reduction %v", recs[1].SuggestedReduction)
	}
}

func TestRecommendationsSortedBySavings(t *testing.T) {
	txs := []core.Transaction{
		tx(2025, 1, "-100", "Food & Dining"),  // 15
		tx(2025, 1, "-1000", "Entertainment"), // 200
		tx(2025, 1, "-200", "Transportation"), // 20
	}
	recs := Recommendations(txs)
	if len(recs) != 3 || recs[0].Category != "Entertainment" || recs[2].Category != "Food & Dining" {
		t.Fatalf("unexpected order %+v", recs)
	}
	if !PotentialMonthlySavings(txs).Equal(dec("235")) {
		t.Fatalf("unexpected potential savings %s", PotentialMonthlySavings(txs))
	}
}

func TestMonthlySavingsTarget(t *testing.T) {
	cases := []struct {
		name string
		txs  []core.Transaction
		want string
	}{
		{"no income", []core.Transaction{tx(2025, 1, "-100", "Shopping")}, "0"},
		{"empty", nil, "0"},
		{"below 500", []core.Transaction{tx(2025, 1, "2000", "Income"), tx(2025, 1, "-1600", "Rent & Housing")}, "80"},
		{"below 1000", []core.Transaction{tx(2025, 1, "2000", "Income"), tx(2025, 1, "-1200", "Rent & Housing")}, "240"},
		{"exactly 1000", []core.Transaction{tx(2025, 1, "2000", "Income"), tx(2025, 1, "-1000", "Rent & Housing")}, "400"},
		{"two income months", []core.Transaction{
			tx(2025, 1, "3000", "Income"), tx(2025, 2, "3000", "Income"),
			tx(2025, 1, "-2000", "Rent & Housing"), tx(2025, 2, "-2000", "Rent & Housing"),
		}, "400"},
		{"expenses averaged over income months", []core.Transaction{
			tx(2025, 1, "1000", "Income"),
			tx(2025, 1, "-300", "Rent & Housing"), tx(2025, 2, "-300", "Rent & Housing"),
		}, "80"},
		{"no disposable income falls back", []core.Transaction{
			tx(2025, 1, "1000", "Income"),
			tx(2025, 1, "-1000", "Rent & Housing"),
			tx(2025, 1, "-200", "Subscriptions"),
		}, "60"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MonthlySavingsTarget(tc.txs); !got.Equal(dec(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	now := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	g := core.SavingsGoal{
		ID:            "g1",
		TargetAmount:  dec("5000"),
		CurrentAmount: dec("1200"),
		TargetDate:    core.NewDate(2025, 11, 1),
	}
	p := Progress(g, now)
	if p.Percent != 24 || !p.Remaining.Equal(dec("3800")) || p.MonthsLeft != 10 || !p.RequiredMonthly.Equal(dec("380")) {
		t.Fatalf("unexpected progress %+v", p)
	}

	g.CurrentAmount = dec("6000")
	p = Progress(g, now)
	if !p.Reached || p.Percent != 100 || !p.Remaining.IsZero() {
		t.Fatalf("unexpected progress for reached goal %+v", p)
	}

	g.CurrentAmount = dec("100")
	g.TargetDate = core.NewDate(2024, 1, 1)
	p = Progress(g, now)
	if p.MonthsLeft != 0 || !p.RequiredMonthly.Equal(dec("4900")) {
		t.Fatalf("unexpected progress for past target %+v", p)
	}
}
