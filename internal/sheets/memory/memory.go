package memory

import (
	"context"
	"errors"
	"sync"

	"smartsave/internal/core"
	ports "smartsave/internal/sheets"
)

var (
	_ ports.TransactionWriter = (*Store)(nil)
	_ ports.TransactionLister = (*Store)(nil)
)

// Store is an in-process spreadsheet mirror keyed by transaction ID.
type Store struct {
	mu    sync.Mutex
	seen  map[string]bool
	items []core.Transaction
}

func New() *Store {
	return &Store{seen: map[string]bool{}}
}

// AppendTransactions stores transactions it has not seen before.
func (s *Store) AppendTransactions(_ context.Context, txs []core.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range txs {
		if t.ID == "" {
			return n, errors.New("transaction without id")
		}
		if s.seen[t.ID] {
			continue
		}
		s.seen[t.ID] = true
		s.items = append(s.items, t)
		n++
	}
	return n, nil
}

// ListTransactions returns the stored transactions dated in year, in
// insertion order.
func (s *Store) ListTransactions(_ context.Context, year int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.items {
		if t.Date.Year() == year {
			out = append(out, t)
		}
	}
	return out, nil
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
