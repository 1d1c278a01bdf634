package google

import (
	"fmt"
	"strconv"
	"strings"

	"smartsave/internal/core"
)

var header = []string{"ID", "Date", "Description", "Amount", "Category", "Type", "Currency", "Account", "User"}

func headerRow() []any {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}

func isHeader(row []any) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(fmt.Sprint(row[0])), header[0])
}

// transactionRow lays a transaction out in header order.
func transactionRow(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.String(),
		t.Description,
		t.Amount.StringFixed(2),
		t.Category,
		t.Type,
		t.Currency,
		t.AccountNumber,
		t.UserID,
	}
}

// parseRow converts a values row (as returned by the Sheets API) back into
// a transaction. Trailing empty cells may be omitted by the API.
func parseRow(row []any) (core.Transaction, error) {
	cols := toStrings(row)
	if len(cols) < 4 {
		return core.Transaction{}, fmt.Errorf("expected at least 4 columns, got %d", len(cols))
	}
	if cols[0] == "" {
		return core.Transaction{}, fmt.Errorf("missing transaction id")
	}
	date, err := core.ParseDate(cols[1])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", cols[1], err)
	}
	amount, err := core.ParseAmount(cols[3])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", cols[3], err)
	}
	return core.Transaction{
		ID:            cols[0],
		Date:          date,
		Description:   cols[2],
		Amount:        amount,
		Category:      safeGet(cols, 4),
		Type:          safeGet(cols, 5),
		Currency:      safeGet(cols, 6),
		AccountNumber: safeGet(cols, 7),
		UserID:        safeGet(cols, 8),
	}, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
