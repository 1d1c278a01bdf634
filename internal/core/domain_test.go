package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01-31", true},
		{"2025/01/31", true},
		{"01/31/2025", true},
		{"31.01.2025", true},
		{"2025-01-31T10:00:00Z", true},
		{"", false},
		{"yesterday", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q: unexpected error %v", tc.in, err)
			}
			if d.String() != "2025-01-31" {
				t.Fatalf("%q: expected 2025-01-31, got %s", tc.in, d)
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
	}
	if err := json.Unmarshal([]byte(`{"date":"2024-03-05"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Date.MonthLabel() != "Mar 2024" {
		t.Fatalf("unexpected label %q", payload.Date.MonthLabel())
	}
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"date":"2024-03-05"}` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{Category: "Shopping", Amount: decimal.NewFromInt(100), Period: PeriodMonthly}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	cases := []struct {
		b    Budget
		want error
	}{
		{Budget{Category: "", Amount: decimal.NewFromInt(1), Period: PeriodMonthly}, ErrEmptyCategory},
		{Budget{Category: "a", Amount: decimal.Zero, Period: PeriodMonthly}, ErrInvalidAmount},
		{Budget{Category: "a", Amount: decimal.NewFromInt(-1), Period: PeriodMonthly}, ErrInvalidAmount},
		{Budget{Category: "a", Amount: decimal.NewFromInt(1), Period: "daily"}, ErrInvalidPeriod},
	}
	for i, tc := range cases {
		if err := tc.b.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestDepositValidate(t *testing.T) {
	if err := (Deposit{SavingsGoalID: "g", Amount: decimal.NewFromInt(200)}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, amt := range []int64{0, -5} {
		err := (Deposit{SavingsGoalID: "g", Amount: decimal.NewFromInt(amt)}).Validate()
		if !errors.Is(err, ErrInvalidDepositAmount) {
			t.Fatalf("amount %d: expected ErrInvalidDepositAmount, got %v", amt, err)
		}
	}
	if err := (Deposit{Amount: decimal.NewFromInt(1)}).Validate(); !errors.Is(err, ErrMissingGoal) {
		t.Fatalf("expected ErrMissingGoal, got %v", err)
	}
}

func TestTransactionHelpers(t *testing.T) {
	tx := Transaction{Date: NewDate(2025, 1, 1), Description: "x", Amount: decimal.NewFromInt(-40)}
	if !tx.IsExpense() || tx.IsIncome() {
		t.Fatalf("expected expense")
	}
	if tx.Spend().String() != "40" {
		t.Fatalf("expected spend 40, got %s", tx.Spend())
	}
	if err := tx.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Transaction{Description: "x"}).Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
