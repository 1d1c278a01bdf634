package recommend

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"smartsave/internal/core"
)

// MaxRecommendations caps how many suggestions are returned.
const MaxRecommendations = 4

// FallbackMessage is returned in place of suggestions when evaluation fails
// under FailureAdvisory.
const FallbackMessage = "Unable to generate personalized recommendations due to an error."

// FailureMode decides what callers get when rule evaluation fails.
type FailureMode string

const (
	FailureAdvisory FailureMode = "advisory" // single FallbackMessage
	FailureEmpty    FailureMode = "empty"    // empty list
)

// ParseFailureMode accepts "advisory" or "empty"; empty input means advisory.
func ParseFailureMode(s string) (FailureMode, error) {
	switch m := FailureMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", FailureAdvisory:
		return FailureAdvisory, nil
	case FailureEmpty:
		return FailureEmpty, nil
	}
	return "", fmt.Errorf("unknown recommendation failure mode %q", s)
}

// Engine evaluates a rule table. Results are all-or-nothing: a failure in
// any rule discards every partial result.
type Engine struct {
	rules   []Rule
	limit   int
	failure FailureMode
}

// NewEngine returns an Engine over Rules.
func NewEngine(mode FailureMode) *Engine {
	return &Engine{rules: Rules, limit: MaxRecommendations, failure: mode}
}

// WithRules returns a copy of e evaluating rules instead.
func (e *Engine) WithRules(rules []Rule) *Engine {
	cp := *e
	cp.rules = rules
	return &cp
}

// Recommend evaluates the default rule table with FailureAdvisory.
func Recommend(data FinancialData) []string {
	return NewEngine(FailureAdvisory).Recommend(data)
}

// Recommend filters, sorts by priority, renders and truncates.
func (e *Engine) Recommend(data FinancialData) (out []string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recommendation rule evaluation failed", "panic", r)
			out = e.fallback()
		}
	}()

	applicable := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		if r.Applies(data) {
			applicable = append(applicable, r)
		}
	}
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Priority > applicable[j].Priority
	})

	out = make([]string, 0, e.limit)
	for _, r := range applicable {
		msg := r.Message(data)
		if msg == "" {
			continue
		}
		out = append(out, msg)
		if len(out) == e.limit {
			break
		}
	}
	return out
}

// ForTransactions prepares the snapshot and evaluates it. Failures while
// preparing are handled like rule failures.
func (e *Engine) ForTransactions(txs []core.Transaction, budgets []core.Budget, now time.Time) (out []string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Financial data preparation failed", "panic", r)
			out = e.fallback()
		}
	}()
	return e.Recommend(PrepareFinancialData(txs, budgets, now))
}

func (e *Engine) fallback() []string {
	if e.failure == FailureEmpty {
		return []string{}
	}
	return []string{FallbackMessage}
}
