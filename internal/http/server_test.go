package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"smartsave/internal/auth"
	"smartsave/internal/budget"
	"smartsave/internal/cache"
	"smartsave/internal/categorize"
	"smartsave/internal/core"
	"smartsave/internal/log"
	"smartsave/internal/recommend"
	"smartsave/internal/services"
	"smartsave/internal/middleware/trace"
	"smartsave/internal/storage"
)

type testServer struct {
	*Server
	token string
}

func newTestDeps(t *testing.T) Dependencies {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "smartsave.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.Config{Output: io.Discard})
	snapshots := cache.NewSnapshotStore(repo, 10, time.Minute)
	budgets := services.NewBudgetService(repo, snapshots, budget.NewMonitor(nil, budget.PolicyLowest), snapshots, logger)

	return Dependencies{
		Auth:         auth.NewService(repo, auth.NewSessions("test-secret", time.Hour), logger),
		Transactions: services.NewTransactionService(repo, categorize.Default(), nil, nil, snapshots, logger),
		Budgets:      budgets,
		Goals:        services.NewGoalService(repo, snapshots, logger),
		Insights:     services.NewInsightsService(snapshots, repo, recommend.NewEngine(recommend.FailureAdvisory), budgets, nil, logger),
		Ready:        repo.Ping,
		Logger:       logger,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	srv := NewServer(":0", newTestDeps(t))
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &testServer{Server: srv}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	w := httptest.NewRecorder()
	ts.Handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

// login signs up a fresh user and keeps its bearer token.
func (ts *testServer) login(t *testing.T) {
	t.Helper()
	creds := map[string]string{"email": "Ada@Example.com", "password": "s3cret!", "name": "Ada"}
	expectStatus(t, ts.do(t, http.MethodPost, "/api/auth/signup", creds), http.StatusCreated)

	w := ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "s3cret!"})
	expectStatus(t, w, http.StatusOK)
	resp := decode[sessionResponse](t, w)
	if resp.Token == "" || resp.User.Email != "ada@example.com" {
		t.Fatalf("unexpected login response %+v", resp)
	}
	cookie := w.Result().Cookies()
	if len(cookie) != 1 || cookie[0].Name != auth.SessionCookieName || !cookie[0].HttpOnly {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", cookie)
	}
	ts.token = resp.Token
}

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer(t)
	expectStatus(t, ts.do(t, http.MethodGet, "/healthz", nil), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodGet, "/readyz", nil), http.StatusOK)

	ts.deps.Ready = func(context.Context) error { return errors.New("db down") }
	expectStatus(t, ts.do(t, http.MethodGet, "/readyz", nil), http.StatusServiceUnavailable)
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/user", nil)
	expectStatus(t, w, http.StatusUnauthorized)
	if w.Header().Get(trace.HeaderRequestID) == "" {
		t.Error("expected a request id on every response")
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/api/auth/signup", map[string]string{"email": "nope", "password": "s3cret!"}), http.StatusBadRequest)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/auth/signup", map[string]string{"email": "a@example.com", "password": "123"}), http.StatusBadRequest)

	ts.login(t)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/auth/signup", map[string]string{"email": "ada@example.com", "password": "another1"}), http.StatusConflict)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "wrong-pass"}), http.StatusUnauthorized)

	w = ts.do(t, http.MethodGet, "/api/user", nil)
	expectStatus(t, w, http.StatusOK)
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("user response leaks the password hash: %s", w.Body.String())
	}

	expectStatus(t, ts.do(t, http.MethodPut, "/api/user/whatsapp", map[string]string{"whatsapp_number": "abc"}), http.StatusBadRequest)
	w = ts.do(t, http.MethodPut, "/api/user/whatsapp", map[string]string{"whatsapp_number": "+393331234567"})
	expectStatus(t, w, http.StatusOK)
	if u := decode[core.User](t, w); u.WhatsAppNumber != "+393331234567" {
		t.Errorf("WhatsAppNumber = %q", u.WhatsAppNumber)
	}

	w = ts.do(t, http.MethodPost, "/api/auth/logout", nil)
	expectStatus(t, w, http.StatusNoContent)
	if c := w.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
		t.Errorf("expected the session cookie to be cleared, got %+v", c)
	}

	ts.token = "not-a-token"
	expectStatus(t, ts.do(t, http.MethodGet, "/api/user", nil), http.StatusUnauthorized)
}

func TestTransactionsAndUpload(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	today := core.DateOf(time.Now()).String()
	csv := "Date,Description,Amount\n" +
		today + ",Salary,\"2,500.00\"\n" +
		today + ",Netflix,-15.99\n" +
		",no date,-3\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "bank.csv")
	part.Write([]byte(csv))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/csv/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.token)
	w := httptest.NewRecorder()
	ts.Handler.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusCreated)
	result := decode[services.ImportResult](t, w)
	if result.Imported != 2 || result.Skipped != 1 || result.File.Filename != "bank.csv" {
		t.Fatalf("unexpected import result %+v", result)
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/api/csv/upload", "Foo,Bar\n1,2\n"), http.StatusBadRequest)

	w = ts.do(t, http.MethodPost, "/api/transactions", map[string]any{"date": today, "description": "Corner cafe lunch", "amount": "-12.40"})
	expectStatus(t, w, http.StatusCreated)
	if tx := decode[core.Transaction](t, w); tx.Category != "Food & Dining" || tx.ID == "" {
		t.Errorf("unexpected transaction %+v", tx)
	}
	expectStatus(t, ts.do(t, http.MethodPost, "/api/transactions", map[string]any{"date": today, "description": "", "amount": "-1"}), http.StatusBadRequest)

	w = ts.do(t, http.MethodGet, "/api/transactions", nil)
	expectStatus(t, w, http.StatusOK)
	if txs := decode[[]core.Transaction](t, w); len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}

	w = ts.do(t, http.MethodGet, "/api/transactions/latest?limit=2", nil)
	expectStatus(t, w, http.StatusOK)
	if txs := decode[[]core.Transaction](t, w); len(txs) != 2 {
		t.Fatalf("expected 2 latest transactions, got %d", len(txs))
	}
	expectStatus(t, ts.do(t, http.MethodGet, "/api/transactions/latest?limit=x", nil), http.StatusBadRequest)
}

func TestBudgetsAndAlerts(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	w := ts.do(t, http.MethodGet, "/api/budgets", nil)
	expectStatus(t, w, http.StatusOK)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected an empty list, got %s", w.Body.String())
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/api/budgets", map[string]any{"category": "Subscriptions", "amount": "-1"}), http.StatusBadRequest)
	w = ts.do(t, http.MethodPost, "/api/budgets", map[string]any{"category": "Subscriptions", "amount": "20"})
	expectStatus(t, w, http.StatusCreated)
	b := decode[core.Budget](t, w)

	today := core.DateOf(time.Now()).String()
	expectStatus(t, ts.do(t, http.MethodPost, "/api/transactions", map[string]any{"date": today, "description": "Netflix", "amount": "-15.99", "category": "Subscriptions"}), http.StatusCreated)

	w = ts.do(t, http.MethodGet, "/api/budgets/alerts", nil)
	expectStatus(t, w, http.StatusOK)
	if alerts := decode[[]core.BudgetAlert](t, w); len(alerts) != 1 || alerts[0].Threshold != 50 {
		t.Fatalf("unexpected alerts %+v", alerts)
	}

	w = ts.do(t, http.MethodPut, "/api/budgets/"+b.ID, map[string]any{"category": "Subscriptions", "amount": "100", "period": "monthly"})
	expectStatus(t, w, http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodPut, "/api/budgets/missing", map[string]any{"category": "X", "amount": "1"}), http.StatusNotFound)

	expectStatus(t, ts.do(t, http.MethodDelete, "/api/budgets/"+b.ID, nil), http.StatusNoContent)
	expectStatus(t, ts.do(t, http.MethodDelete, "/api/budgets/"+b.ID, nil), http.StatusNotFound)
}

func TestGoalsAndDeposits(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	w := ts.do(t, http.MethodPost, "/api/savings-goals", map[string]any{"name": "Vacation", "target_amount": "1000", "target_date": "2030-06-01"})
	expectStatus(t, w, http.StatusCreated)
	goal := decode[services.GoalView](t, w)

	w = ts.do(t, http.MethodPost, "/api/savings-goals/"+goal.ID+"/deposits", map[string]any{"amount": "250", "description": "bonus"})
	expectStatus(t, w, http.StatusCreated)
	dep := decode[depositResponse](t, w)
	if dep.Goal.CurrentAmount.String() != "250" || dep.Goal.Progress.Percent != 25 {
		t.Fatalf("unexpected deposit response %+v", dep)
	}
	expectStatus(t, ts.do(t, http.MethodPost, "/api/savings-goals/"+goal.ID+"/deposits", map[string]any{"amount": "0"}), http.StatusBadRequest)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/savings-goals/missing/deposits", map[string]any{"amount": "5"}), http.StatusNotFound)

	w = ts.do(t, http.MethodGet, "/api/deposits?savings_goal_id="+goal.ID, nil)
	expectStatus(t, w, http.StatusOK)
	if deps := decode[[]core.Deposit](t, w); len(deps) != 1 || deps[0].Description != "bonus" {
		t.Fatalf("unexpected deposits %+v", deps)
	}

	w = ts.do(t, http.MethodPut, "/api/savings-goals/"+goal.ID, map[string]any{"name": "Summer trip", "target_amount": "2000", "current_amount": "0"})
	expectStatus(t, w, http.StatusOK)
	if g := decode[services.GoalView](t, w); g.Name != "Summer trip" || g.CurrentAmount.String() != "250" || g.TargetDate.String() != "2030-06-01" {
		t.Fatalf("update must keep deposited amount and target date, got %+v", g)
	}

	w = ts.do(t, http.MethodPut, "/api/savings-goals/"+goal.ID, map[string]any{"target_date": ""})
	expectStatus(t, w, http.StatusOK)
	if g := decode[services.GoalView](t, w); g.Name != "Summer trip" || g.TargetAmount.String() != "2000" || !g.TargetDate.IsZero() {
		t.Fatalf("expected only the target date to be cleared, got %+v", g)
	}
	expectStatus(t, ts.do(t, http.MethodPut, "/api/savings-goals/"+goal.ID, map[string]any{"target_amount": "-1"}), http.StatusBadRequest)

	expectStatus(t, ts.do(t, http.MethodGet, "/api/savings-goals/"+goal.ID, nil), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodDelete, "/api/savings-goals/"+goal.ID, nil), http.StatusNoContent)
	expectStatus(t, ts.do(t, http.MethodGet, "/api/savings-goals/"+goal.ID, nil), http.StatusNotFound)
}

func TestInsightsAndExports(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	today := core.DateOf(time.Now()).String()
	for _, tx := range []map[string]any{
		{"date": today, "description": "Salary", "amount": "3000", "category": core.CategoryIncome},
		{"date": today, "description": "Restaurant", "amount": "-450", "category": "Food & Dining"},
	} {
		expectStatus(t, ts.do(t, http.MethodPost, "/api/transactions", tx), http.StatusCreated)
	}

	w := ts.do(t, http.MethodGet, "/api/insights/summary", nil)
	expectStatus(t, w, http.StatusOK)
	summary := decode[services.Summary](t, w)
	if summary.TotalExpenses.String() != "450" || summary.TotalIncome.String() != "3000" {
		t.Fatalf("unexpected summary %+v", summary)
	}

	w = ts.do(t, http.MethodGet, "/api/insights/recommendations", nil)
	expectStatus(t, w, http.StatusOK)
	if recs, ok := decode[map[string][]string](t, w)["recommendations"]; !ok || recs == nil {
		t.Fatalf("expected a recommendations list, got %s", w.Body.String())
	}

	expectStatus(t, ts.do(t, http.MethodGet, "/api/insights/savings", nil), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodGet, "/api/insights/overview", nil), http.StatusOK)

	w = ts.do(t, http.MethodPost, "/api/assistant", map[string]string{"userMessage": "How am I doing?"})
	expectStatus(t, w, http.StatusServiceUnavailable)
	if reply := decode[assistantResponse](t, w); reply.BotMessage == "" {
		t.Error("expected a botMessage when the assistant is unavailable")
	}

	w = ts.do(t, http.MethodGet, "/api/export/transactions.csv", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") ||
		!strings.Contains(w.Header().Get("Content-Disposition"), "smartsave_transactions_") {
		t.Errorf("unexpected export headers %v", w.Header())
	}
	if lines := strings.Count(w.Body.String(), "\n"); lines != 3 {
		t.Errorf("expected header and 2 rows, got %d lines", lines)
	}
	expectStatus(t, ts.do(t, http.MethodGet, "/api/export/goals.csv", nil), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodGet, "/api/export/recommendations.csv", nil), http.StatusOK)
	w = ts.do(t, http.MethodGet, "/api/export/report.txt", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}

	w = ts.do(t, http.MethodPost, "/api/cache/sync", nil)
	expectStatus(t, w, http.StatusOK)
	if s := decode[syncResponse](t, w); s.Transactions != 2 {
		t.Fatalf("unexpected sync response %+v", s)
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/api/reset", nil), http.StatusNoContent)
	w = ts.do(t, http.MethodGet, "/api/transactions", nil)
	if txs := decode[[]core.Transaction](t, w); len(txs) != 0 {
		t.Fatalf("expected no transactions after reset, got %d", len(txs))
	}
}

func TestSecurityMiddleware(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "TRACE", "/api/transactions", nil)
	expectStatus(t, w, http.StatusMethodNotAllowed)

	w = ts.do(t, http.MethodGet, "/healthz", nil)
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("expected security headers, got %v", w.Header())
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	deps := newTestDeps(t)
	deps.RateLimitPerMinute = 2
	srv := NewServer(":0", deps)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	creds := `{"email":"x@example.com","password":"wrong-pass"}`
	var last int
	for range 3 {
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(creds)))
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third write status = %d, want 429", last)
	}

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	expectStatus(t, w, http.StatusOK)
}
