package google

import (
	"testing"

	"github.com/shopspring/decimal"

	"smartsave/internal/core"
)

func TestParseRow(t *testing.T) {
	tests := []struct {
		name    string
		row     []any
		want    core.Transaction
		wantErr bool
	}{
		{
			name: "full row",
			row:  []any{"t1", "2025-07-03", "Uber ride", "-18.40", "Transportation", "debit", "EUR", "IT60X", "u1"},
			want: core.Transaction{
				ID: "t1", Date: core.NewDate(2025, 7, 3), Description: "Uber ride",
				Amount: decimal.RequireFromString("-18.40"), Category: "Transportation",
				Type: "debit", Currency: "EUR", AccountNumber: "IT60X", UserID: "u1",
			},
		},
		{
			name: "trailing cells omitted and numeric amount",
			row:  []any{"t2", "07/03/2025", "Salary", 2500.5},
			want: core.Transaction{
				ID: "t2", Date: core.NewDate(2025, 7, 3), Description: "Salary",
				Amount: decimal.RequireFromString("2500.5"),
			},
		},
		{name: "too short", row: []any{"t3", "2025-07-03"}, wantErr: true},
		{name: "missing id", row: []any{"", "2025-07-03", "x", "1"}, wantErr: true},
		{name: "bad date", row: []any{"t4", "yesterday", "x", "1"}, wantErr: true},
		{name: "bad amount", row: []any{"t5", "2025-07-03", "x", "n/a"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRow(tt.row)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRow() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !got.Amount.Equal(tt.want.Amount) {
				t.Errorf("amount = %s, want %s", got.Amount, tt.want.Amount)
			}
			got.Amount, tt.want.Amount = decimal.Zero, decimal.Zero
			if got != tt.want {
				t.Errorf("parseRow() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTransactionRowRoundTrip(t *testing.T) {
	in := core.Transaction{
		ID: "t1", UserID: "u1", Date: core.NewDate(2025, 1, 31), Description: "Rent",
		Amount: decimal.RequireFromString("-950"), Category: "Rent & Housing",
	}
	row := transactionRow(in)
	if row[3] != "-950.00" {
		t.Errorf("expected fixed two-decimal amount, got %v", row[3])
	}
	out, err := parseRow(row)
	if err != nil {
		t.Fatalf("parseRow() error = %v", err)
	}
	if out.ID != in.ID || out.Date != in.Date || !out.Amount.Equal(in.Amount) || out.UserID != "u1" {
		t.Errorf("round trip changed transaction: %+v", out)
	}
	if !isHeader(headerRow()) || isHeader(row) {
		t.Error("header detection mismatch")
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Transactions", 2025, "2025 Transactions"},
		{"2024 Transactions", 2025, "2024 Transactions"},
		{"  Spending  ", 2026, "2026 Spending"},
		{"", 2025, ""},
		{"12345", 2025, "2025 12345"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}
