package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"smartsave/internal/core"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
}

// TransactionMessage renders the WhatsApp notification for a new transaction.
func TransactionMessage(t core.Transaction) string {
	kind, emoji := "Expense", "💸"
	if !t.Amount.IsNegative() {
		kind, emoji = "Income", "💰"
	}
	category := t.Category
	if category == "" {
		category = core.CategoryOther
	}
	return fmt.Sprintf("%s *New %s Transaction*\n\n"+
		"*Description:* %s\n"+
		"*Amount:* %s\n"+
		"*Category:* %s\n"+
		"*Date:* %s\n\n"+
		"_Track your financial progress with SmartSave!_",
		emoji, kind, t.Description, FormatCurrency(t.Amount, t.Currency), category, t.Date)
}

// BudgetAlertMessage renders the WhatsApp notification for a budget alert.
func BudgetAlertMessage(a core.BudgetAlert) string {
	emoji := "⚠️"
	if a.PercentageUsed >= 100 {
		emoji = "🚨"
	}
	return fmt.Sprintf("%s *Budget Alert: %s*\n\n%s\n\n"+
		"*Spent:* %s of %s\n\n"+
		"_Track your financial progress with SmartSave!_",
		emoji, a.Category, a.Message,
		FormatCurrency(a.CurrentSpending, ""), FormatCurrency(a.BudgetAmount, ""))
}

// FormatCurrency renders amount like "-$1,234.50". Unknown currency codes
// are used as a prefix; an empty code means USD.
func FormatCurrency(amount decimal.Decimal, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + symbol + groupThousands(whole) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
