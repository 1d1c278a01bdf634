package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"smartsave/internal/core"
	"smartsave/internal/log"
)

type fakeGenerator struct {
	reply  string
	err    error
	system string
	user   string
}

func (f *fakeGenerator) Generate(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func testLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func TestAsk(t *testing.T) {
	ctx := context.Background()

	gen := &fakeGenerator{reply: "  Spend less on dining.  "}
	a := New(gen, testLogger())
	reply, err := a.Ask(ctx, "How am I doing?", "Financial summary: ...")
	if err != nil || reply != "Spend less on dining." {
		t.Fatalf("Ask() = %q, %v", reply, err)
	}
	if !strings.Contains(gen.system, "Financial summary: ...") || gen.user != "How am I doing?" {
		t.Errorf("unexpected prompt: system=%q user=%q", gen.system, gen.user)
	}

	if _, err := a.Ask(ctx, "   ", ""); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}

	gen.reply = ""
	if reply, _ := a.Ask(ctx, "hi", ""); reply != EmptyMessage {
		t.Errorf("expected empty-reply message, got %q", reply)
	}

	gen.err = errors.New("quota exceeded")
	if reply, err := a.Ask(ctx, "hi", ""); err == nil || reply != ErrorMessage {
		t.Errorf("expected error message, got %q, %v", reply, err)
	}
}

func TestAskNotConfigured(t *testing.T) {
	gen, err := NewGemini(context.Background(), "", "gemini-2.0-flash", genai.HTTPOptions{})
	if err != nil || gen != nil {
		t.Fatalf("expected nil generator without key, got %v, %v", gen, err)
	}
	a := New(gen, testLogger())
	if a.Configured() {
		t.Fatal("assistant without key must not be configured")
	}
	reply, err := a.Ask(context.Background(), "hi", "")
	if !errors.Is(err, ErrNotConfigured) || reply != NotConfiguredMessage {
		t.Fatalf("Ask() = %q, %v", reply, err)
	}
}

func TestGeminiGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Save 10% more."}]}}]}`))
	}))
	defer srv.Close()

	gen, err := NewGemini(context.Background(), "test-key", "gemini-2.0-flash", genai.HTTPOptions{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}
	reply, err := gen.Generate(context.Background(), "system prompt", "question")
	if err != nil || reply != "Save 10% more." {
		t.Fatalf("Generate() = %q, %v", reply, err)
	}
	cfg, _ := body["generationConfig"].(map[string]any)
	if cfg["maxOutputTokens"] != float64(maxOutputTokens) || cfg["temperature"] != temperature {
		t.Errorf("unexpected generation config %v", cfg)
	}
}

func TestBuildContext(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		{Date: core.NewDate(2025, 3, 1), Description: "Salary", Amount: decimal.NewFromInt(3000), Category: core.CategoryIncome},
		{Date: core.NewDate(2025, 3, 3), Description: "Restaurant", Amount: decimal.NewFromInt(-150), Category: "Food & Dining"},
		{Date: core.NewDate(2025, 2, 3), Description: "Rent", Amount: decimal.NewFromInt(-900), Category: "Rent & Housing"},
	}
	budgets := []core.Budget{{Category: "Food & Dining", Amount: decimal.NewFromInt(300), Period: core.PeriodMonthly}}
	goals := []core.SavingsGoal{{
		Name: "Trip", TargetAmount: decimal.NewFromInt(1200), CurrentAmount: decimal.NewFromInt(600),
		TargetDate: core.NewDate(2025, 9, 1),
	}}

	got := BuildContext(txs, budgets, goals, now)
	for _, want := range []string{
		"- Total income (3 months): €3000.00 (avg €1000.00/month)",
		"- Total expenses (3 months): €1050.00 (avg €350.00/month)",
		"- Savings rate: 65.0%",
		"- Current month budget utilization: Food & Dining: 50%",
		"Recent transactions summary (past 3 months): 3 transactions.",
		"Top expense categories: Rent & Housing: €900.00, Food & Dining: €150.00.",
		"Monthly expenses: March: €150.00, February: €900.00, January: €0.00.",
		"Budgets: Food & Dining: €150.00/€300.00 (50.0% used) monthly.",
		"Savings goals: Trip: €600.00/€1200.00 (50.0%) (6 months left, need €100.00/month).",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q\n%s", want, got)
		}
	}

	empty := BuildContext(nil, nil, nil, now)
	for _, want := range []string{"No budgets set.", "No savings goals set.", "Savings rate: unavailable"} {
		if !strings.Contains(empty, want) {
			t.Errorf("empty context missing %q\n%s", want, empty)
		}
	}
}
