// Package categorize assigns a semantic category to a transaction by
// matching its description against an ordered keyword table.
package categorize

// Rule maps a category to the keywords that select it. Keywords are
// matched as case-insensitive substrings of the description.
type Rule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// DefaultRules is the canonical table. Order is part of the contract: the
// first rule with a matching keyword wins, so Subscriptions sits ahead of
// Entertainment and "Netflix subscription" lands in Subscriptions.
var DefaultRules = []Rule{
	{"Food & Dining", []string{"restaurant", "cafe", "dining", "eat", "food", "grocery", "supermarket", "bakery", "meal", "takeaway", "takeout"}},
	{"Rent & Housing", []string{"rent", "mortgage", "housing", "apartment", "condo", "home", "property", "real estate"}},
	{"Transportation", []string{"uber", "lyft", "taxi", "car", "bus", "train", "metro", "transport", "gas", "fuel", "parking", "transit"}},
	{"Subscriptions", []string{"subscription", "member", "monthly", "annual", "recurring", "netflix", "spotify", "apple", "amazon prime"}},
	{"Entertainment", []string{"movie", "cinema", "theater", "concert", "show", "event", "festival", "netflix", "spotify", "disney", "hulu"}},
	{"Shopping", []string{"amazon", "shop", "store", "mall", "retail", "clothing", "purchase", "buy"}},
	{"Utilities", []string{"electric", "water", "gas", "internet", "phone", "utility", "bill", "power", "energy"}},
	{"Health & Fitness", []string{"gym", "fitness", "health", "medical", "doctor", "pharmacy", "medicine", "hospital", "clinic", "wellness"}},
	{"Travel", []string{"hotel", "flight", "airline", "vacation", "trip", "travel", "booking", "airbnb"}},
	{"Education", []string{"school", "college", "university", "course", "class", "tuition", "education", "learn", "book", "tutorial"}},
	{"Income", []string{"salary", "deposit", "income", "paycheck", "wage", "earnings", "revenue", "payment received"}},
	{"Transfer", []string{"transfer", "wire", "zelle", "venmo", "send", "receive"}},
}

// TransferKeywords decide between Transfer and Income for positive amounts.
var TransferKeywords = []string{"transfer", "wire", "zelle", "venmo", "send", "receive", "move money"}

var colors = map[string]string{
	"Food & Dining":    "#FF5733",
	"Rent & Housing":   "#33FF57",
	"Transportation":   "#3357FF",
	"Entertainment":    "#FF33F5",
	"Shopping":         "#33FFF5",
	"Utilities":        "#F5FF33",
	"Subscriptions":    "#FF8C33",
	"Health & Fitness": "#33FFB2",
	"Travel":           "#B233FF",
	"Education":        "#33B2FF",
	"Income":           "#2ECC71",
	"Transfer":         "#F1C40F",
	"Other":            "#95A5A6",
}

// Color returns the display color for a category, falling back to the
// color of "Other" for unknown names.
func Color(category string) string {
	if c, ok := colors[category]; ok {
		return c
	}
	return colors["Other"]
}
