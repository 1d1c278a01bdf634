package categorize

import (
	"strings"

	"github.com/shopspring/decimal"

	"smartsave/internal/core"
)

// Categorizer is safe for concurrent use; it never mutates its table after
// construction.
type Categorizer struct {
	rules    []Rule
	transfer []string
}

// New builds a Categorizer over rules, keeping their order. Keywords are
// lowercased once here so matching stays a plain substring test.
func New(rules []Rule) *Categorizer {
	c := &Categorizer{
		rules:    make([]Rule, 0, len(rules)),
		transfer: lowerAll(TransferKeywords),
	}
	for _, r := range rules {
		name := strings.TrimSpace(r.Category)
		if name == "" {
			continue
		}
		c.rules = append(c.rules, Rule{Category: name, Keywords: lowerAll(r.Keywords)})
	}
	return c
}

// Default returns a Categorizer over DefaultRules.
func Default() *Categorizer {
	return New(DefaultRules)
}

// Category returns the category for a description and signed amount.
func (c *Categorizer) Category(description string, amount decimal.Decimal) string {
	desc := strings.ToLower(description)

	if amount.IsPositive() {
		if containsAny(desc, c.transfer) {
			return core.CategoryTransfer
		}
		return core.CategoryIncome
	}

	for _, r := range c.rules {
		if containsAny(desc, r.Keywords) {
			return r.Category
		}
	}
	return core.CategoryOther
}

// Categorize returns a copy of tx with its category assigned.
func (c *Categorizer) Categorize(tx core.Transaction) core.Transaction {
	tx.Category = c.Category(tx.Description, tx.Amount)
	return tx
}

// CategorizeAll categorizes every transaction that has no category yet.
// Transactions that already carry a category keep it.
func (c *Categorizer) CategorizeAll(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	for i, tx := range txs {
		if strings.TrimSpace(tx.Category) != "" {
			out[i] = tx
			continue
		}
		out[i] = c.Categorize(tx)
	}
	return out
}

// Categories lists every category the table can produce, in table order,
// followed by "Other".
func (c *Categorizer) Categories() []string {
	seen := make(map[string]struct{}, len(c.rules)+1)
	out := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	if _, ok := seen[core.CategoryOther]; !ok {
		out = append(out, core.CategoryOther)
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
