package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smartsave/internal/core"
)

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a becomes most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("expected a=1, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("expected size 2, got %d", c.Size())
	}
	if st := c.Stats(); st.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %+v", st)
	}
	c.Purge()
	if c.Size() != 0 {
		t.Errorf("expected empty cache after purge, got %d", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "v")
	now = now.Add(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected entry before ttl")
	}
	now = now.Add(31 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to expire after ttl")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry removed, got %d", n)
	}
	if st := c.Stats(); st.Hits != 1 || st.Misses != 1 || st.Expired != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
}

type fakeSource struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (f *fakeSource) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	return []core.Transaction{{ID: "t-" + userID}}, f.err
}

func (f *fakeSource) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	return []core.Budget{{ID: "b-" + userID}}, nil
}

func (f *fakeSource) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	return nil, nil
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	store := NewSnapshotStore(src, 10, time.Minute)

	snap, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Transactions) != 1 || snap.Budgets[0].ID != "b-u1" || snap.LoadedAt.IsZero() {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if _, err := store.Get(ctx, "u1"); err != nil || src.calls.Load() != 1 {
		t.Fatalf("expected cached snapshot, loads=%d err=%v", src.calls.Load(), err)
	}

	if _, err := store.Sync(ctx, "u1"); err != nil || src.calls.Load() != 2 {
		t.Fatalf("expected sync to reload, loads=%d err=%v", src.calls.Load(), err)
	}

	store.Invalidate("u1")
	if _, err := store.Get(ctx, "u1"); err != nil || src.calls.Load() != 3 {
		t.Fatalf("expected reload after invalidate, loads=%d err=%v", src.calls.Load(), err)
	}
}

func TestSnapshotStoreSharesConcurrentLoads(t *testing.T) {
	src := &fakeSource{delay: 50 * time.Millisecond}
	store := NewSnapshotStore(src, 10, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Get(context.Background(), "u1"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if n := src.calls.Load(); n > 2 {
		t.Fatalf("expected concurrent misses to share a load, got %d loads", n)
	}
}

func TestSnapshotStoreError(t *testing.T) {
	src := &fakeSource{err: errors.New("db down")}
	store := NewSnapshotStore(src, 10, time.Minute)

	if _, err := store.Get(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
	if store.Cache().Size() != 0 {
		t.Fatal("failed loads must not be cached")
	}
}

// gatedSource blocks the first ListTransactions call until release is
// closed, then returns whatever rows are current.
type gatedSource struct {
	mu      sync.Mutex
	rows    []core.Transaction
	calls   int
	started chan struct{}
	release chan struct{}
}

func (g *gatedSource) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	rows := append([]core.Transaction(nil), g.rows...)
	g.mu.Unlock()
	if first {
		close(g.started)
		<-g.release
	}
	return rows, nil
}

func (g *gatedSource) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	return nil, nil
}

func (g *gatedSource) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	return nil, nil
}

func (g *gatedSource) setRows(rows ...core.Transaction) {
	g.mu.Lock()
	g.rows = rows
	g.mu.Unlock()
}

func TestSnapshotStoreInvalidateDuringLoad(t *testing.T) {
	ctx := context.Background()
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	store := NewSnapshotStore(src, 10, time.Minute)

	done := make(chan *Snapshot)
	go func() {
		snap, err := store.Get(ctx, "u1")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		done <- snap
	}()

	<-src.started
	src.setRows(core.Transaction{ID: "t1"})
	store.Invalidate("u1")
	close(src.release)

	if stale := <-done; len(stale.Transactions) != 0 {
		t.Fatalf("first load should have read the old rows, got %d", len(stale.Transactions))
	}
	snap, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Transactions) != 1 {
		t.Fatalf("cached snapshot has %d transactions, storage has 1", len(snap.Transactions))
	}
}

func TestSnapshotStoreSyncDoesNotJoinOlderLoad(t *testing.T) {
	ctx := context.Background()
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	store := NewSnapshotStore(src, 10, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		store.Get(ctx, "u1")
	}()

	<-src.started
	src.setRows(core.Transaction{ID: "t1"})
	snap, err := store.Sync(ctx, "u1")
	close(src.release)
	<-done

	if err != nil || len(snap.Transactions) != 1 {
		t.Fatalf("Sync() = %d transactions, %v; want 1", len(snap.Transactions), err)
	}
	cached, err := store.Get(ctx, "u1")
	if err != nil || len(cached.Transactions) != 1 {
		t.Fatalf("expected synced snapshot to stay cached, got %d", len(cached.Transactions))
	}
}
