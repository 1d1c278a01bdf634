package memory

import (
	"context"
	"testing"

	"smartsave/internal/core"
)

func TestStoreAppendAndList(t *testing.T) {
	s := New()
	ctx := context.Background()
	txs := []core.Transaction{
		{ID: "t1", Date: core.NewDate(2025, 1, 2), Description: "a"},
		{ID: "t2", Date: core.NewDate(2024, 5, 6), Description: "b"},
		{ID: "t1", Date: core.NewDate(2025, 1, 2), Description: "a"},
	}
	n, err := s.AppendTransactions(ctx, txs)
	if err != nil || n != 2 {
		t.Fatalf("unexpected append: n=%d err=%v", n, err)
	}
	if n, _ := s.AppendTransactions(ctx, txs[:1]); n != 0 {
		t.Fatalf("expected duplicate to be skipped, appended %d", n)
	}

	got, err := s.ListTransactions(ctx, 2025)
	if err != nil || len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("unexpected list: %v err=%v", got, err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", s.Len())
	}
}

func TestStoreRejectsMissingID(t *testing.T) {
	if _, err := New().AppendTransactions(context.Background(), []core.Transaction{{Description: "x"}}); err == nil {
		t.Fatal("expected error for transaction without id")
	}
}
