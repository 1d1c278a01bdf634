package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"-15", "-15", true},
		{"1,234.56", "1234.56", true},
		{"-1,200", "-1200", true},
		{" 2.50 ", "2.5", true},
		{"€12.50", "12.5", true},
		{"-€12", "-12", true},
		{"+3", "3", true},
		{"abc", "0", false},
		{"1.2.3", "0", false},
		{"", "0", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParsePositiveAmount(t *testing.T) {
	if _, err := ParsePositiveAmount("0"); err == nil {
		t.Fatalf("expected error for zero")
	}
	if _, err := ParsePositiveAmount("-5"); err == nil {
		t.Fatalf("expected error for negative")
	}
	got, err := ParsePositiveAmount("200")
	if err != nil || got.String() != "200" {
		t.Fatalf("expected 200, got %s (err=%v)", got, err)
	}
}

func TestSums(t *testing.T) {
	txs := []Transaction{
		{Amount: decimal.RequireFromString("-10.10")},
		{Amount: decimal.RequireFromString("-0.20")},
		{Amount: decimal.RequireFromString("100")},
		{Amount: decimal.Zero},
	}
	if got := SumSpend(txs); got.String() != "10.3" {
		t.Fatalf("spend: expected 10.3, got %s", got)
	}
	if got := SumIncome(txs); got.String() != "100" {
		t.Fatalf("income: expected 100, got %s", got)
	}
	if got := FormatAmount(decimal.RequireFromString("1200")); got != "1200.00" {
		t.Fatalf("format: got %q", got)
	}
}
