package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"smartsave/internal/core"
	"smartsave/internal/log"
)

func TestTransactionMessage(t *testing.T) {
	tx := core.Transaction{
		Description: "Grocery store",
		Amount:      decimal.RequireFromString("-1234.5"),
		Category:    "Food & Dining",
		Date:        core.NewDate(2025, 3, 14),
	}
	want := "💸 *New Expense Transaction*\n\n" +
		"*Description:* Grocery store\n" +
		"*Amount:* -$1,234.50\n" +
		"*Category:* Food & Dining\n" +
		"*Date:* 2025-03-14\n\n" +
		"_Track your financial progress with SmartSave!_"
	if got := TransactionMessage(tx); got != want {
		t.Errorf("TransactionMessage() =\n%s\nwant\n%s", got, want)
	}

	income := core.Transaction{Description: "Salary", Amount: decimal.NewFromInt(2500), Currency: "EUR", Date: core.NewDate(2025, 3, 1)}
	got := TransactionMessage(income)
	if !strings.HasPrefix(got, "💰 *New Income Transaction*") || !strings.Contains(got, "*Amount:* €2,500.00") || !strings.Contains(got, "*Category:* Other") {
		t.Errorf("unexpected income message:\n%s", got)
	}
}

func TestBudgetAlertMessage(t *testing.T) {
	msg := BudgetAlertMessage(core.BudgetAlert{
		Category:        "Shopping",
		CurrentSpending: decimal.NewFromInt(120),
		BudgetAmount:    decimal.NewFromInt(100),
		PercentageUsed:  120,
		Message:         "Warning: You've exceeded your Shopping budget of 100.00!",
	})
	for _, want := range []string{"🚨 *Budget Alert: Shopping*", "exceeded your Shopping budget", "*Spent:* $120.00 of $100.00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"0", "", "$0.00"},
		{"12.345", "usd", "$12.35"},
		{"-999.99", "GBP", "-£999.99"},
		{"1000", "EUR", "€1,000.00"},
		{"1234567.891", "CHF", "CHF 1,234,567.89"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(decimal.RequireFromString(tt.amount), tt.currency); got != tt.want {
			t.Errorf("FormatCurrency(%s, %q) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestClientSend(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" || r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"bad auth"}`))
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"message_id":"wamid.1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok")
	id, err := c.Send(context.Background(), "+39 333 1234567", "hello")
	if err != nil || id != "wamid.1" {
		t.Fatalf("Send() = %q, %v", id, err)
	}
	if got.To != "+39 333 1234567" || got.Text != "hello" {
		t.Errorf("unexpected request %+v", got)
	}

	bad := NewClient(srv.URL, "wrong")
	if _, err := bad.Send(context.Background(), "+39 333 1234567", "hello"); err == nil || !strings.Contains(err.Error(), "bad auth") {
		t.Errorf("expected gateway error, got %v", err)
	}

	if _, err := c.Send(context.Background(), "123", "hello"); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("expected ErrInvalidNumber, got %v", err)
	}
}

func TestClientSendUnreadableReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	id, err := NewClient(srv.URL, "tok").Send(context.Background(), "+39 333 1234567", "hello")
	if !errors.Is(err, ErrBadResponse) || id != "" {
		t.Fatalf("Send() = %q, %v; want ErrBadResponse", id, err)
	}
}

func TestNewFallsBackToLogSender(t *testing.T) {
	logger := log.New(log.Config{Output: io.Discard})
	s := New("", "", logger)
	if _, ok := s.(LogSender); !ok {
		t.Fatalf("expected LogSender, got %T", s)
	}
	id, err := s.Send(context.Background(), "555-123-4567", "hi")
	if err != nil || !strings.HasPrefix(id, "whatsapp_msg_") {
		t.Fatalf("Send() = %q, %v", id, err)
	}
	if _, ok := New("http://gateway", "", logger).(*Client); !ok {
		t.Fatal("expected gateway client when url is set")
	}
}
