package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"smartsave/internal/core"
)

// Snapshot is the locally cached copy of one user's data. Analysis code
// receives plain slices from it and never knows whether they came from the
// cache.
type Snapshot struct {
	UserID       string
	Transactions []core.Transaction
	Budgets      []core.Budget
	Goals        []core.SavingsGoal
	LoadedAt     time.Time
}

// Source loads the data a Snapshot is built from.
type Source interface {
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)
}

// SnapshotStore keeps per-user snapshots in an LRU cache. Writes invalidate
// the user's entry; Sync reloads it explicitly. Concurrent misses for the
// same user share one load.
//
// Each user has a generation that Invalidate and Sync bump. A load only
// caches its result if the generation it started under is still current.
type SnapshotStore struct {
	source Source
	cache  *LRUCache[*Snapshot]
	group  singleflight.Group
	now    func() time.Time

	mu   sync.Mutex
	gens map[string]uint64
}

// NewSnapshotStore caches at most size users for ttl.
func NewSnapshotStore(source Source, size int, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{
		source: source,
		cache:  NewLRUCache[*Snapshot](size, ttl),
		now:    time.Now,
		gens:   make(map[string]uint64),
	}
}

// Cache exposes the underlying LRU for registration with a Manager.
func (s *SnapshotStore) Cache() *LRUCache[*Snapshot] {
	return s.cache
}

// Get returns the cached snapshot for userID, loading it on a miss.
func (s *SnapshotStore) Get(ctx context.Context, userID string) (*Snapshot, error) {
	if snap, ok := s.cache.Get(userID); ok {
		return snap, nil
	}
	return s.load(ctx, userID)
}

// Sync discards any cached snapshot for userID and loads a fresh one. It
// never joins a load that started before the call.
func (s *SnapshotStore) Sync(ctx context.Context, userID string) (*Snapshot, error) {
	s.Invalidate(userID)
	return s.load(ctx, userID)
}

// Invalidate drops the cached snapshot for userID. Loads already in flight
// will not cache what they read.
func (s *SnapshotStore) Invalidate(userID string) {
	s.mu.Lock()
	s.gens[userID]++
	s.cache.Delete(userID)
	s.group.Forget(userID)
	s.mu.Unlock()
}

func (s *SnapshotStore) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

// store caches snap unless userID was invalidated after gen was taken.
func (s *SnapshotStore) store(userID string, gen uint64, snap *Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[userID] != gen {
		return false
	}
	s.cache.Set(userID, snap)
	return true
}

func (s *SnapshotStore) load(ctx context.Context, userID string) (*Snapshot, error) {
	v, err, _ := s.group.Do(userID, func() (any, error) {
		gen := s.generation(userID)
		snap := &Snapshot{UserID: userID}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			txs, err := s.source.ListTransactions(gctx, userID)
			snap.Transactions = txs
			return err
		})
		g.Go(func() error {
			budgets, err := s.source.ListBudgets(gctx, userID)
			snap.Budgets = budgets
			return err
		})
		g.Go(func() error {
			goals, err := s.source.ListGoals(gctx, userID)
			snap.Goals = goals
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		snap.LoadedAt = s.now()
		cached := s.store(userID, gen, snap)
		slog.DebugContext(ctx, "Snapshot loaded",
			"component", "cache",
			"user_id", userID,
			"cached", cached,
			"transactions", len(snap.Transactions),
			"budgets", len(snap.Budgets),
			"goals", len(snap.Goals))
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}
