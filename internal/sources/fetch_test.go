package sources

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// stubSource serves fixed collections and can fail or block per kind.
type stubSource struct {
	mu      sync.Mutex
	data    core.Snapshot
	fail    map[core.Kind]bool
	block   chan struct{}
	calls   int
	started chan struct{}
}

func (s *stubSource) Fetch(ctx context.Context, kind core.Kind, _ Query) (core.Snapshot, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()
	if block != nil && kind == core.KindIncome {
		if s.started != nil {
			s.started <- struct{}{}
		}
		select {
		case <-block:
		case <-ctx.Done():
			return core.Snapshot{}, ctx.Err()
		}
	}
	if s.fail[kind] {
		return core.Snapshot{}, errors.New("boom")
	}
	return s.data.Only(kind), nil
}

func sample() core.Snapshot {
	return core.Snapshot{
		Income:  []core.Income{{Base: core.Base{ID: 1, Year: "2024", Month: "1", Day: "1"}, Amount: core.N(10)}},
		Expense: []core.Expense{{Base: core.Base{ID: 2, Year: "2024", Month: "1", Day: "2"}, Cost: core.N(5)}},
		Tax:     []core.Tax{},
	}
}

func TestFetcherMergesAndTolerates(t *testing.T) {
	src := &stubSource{data: sample(), fail: map[core.Kind]bool{core.KindExpense: true}}
	f := NewFetcher(src, time.Second)

	res, err := f.Fetch(context.Background(), Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Snapshot.Income) != 1 || res.Snapshot.Has(core.KindExpense) {
		t.Fatalf("unexpected snapshot %+v", res.Snapshot)
	}
	if !res.Snapshot.Has(core.KindTax) {
		t.Fatalf("empty tax collection should be present")
	}
	if len(res.Failed) != 1 || res.Failed[0] != core.KindExpense {
		t.Fatalf("unexpected failures %v", res.Failed)
	}
	if res.Generation != 1 {
		t.Fatalf("expected generation 1, got %d", res.Generation)
	}
	res2, _ := f.Fetch(context.Background(), Query{})
	if res2.Generation != 2 {
		t.Fatalf("generations must increase, got %d", res2.Generation)
	}
}

func TestFetcherAllFailed(t *testing.T) {
	fail := map[core.Kind]bool{}
	for _, k := range core.Kinds {
		fail[k] = true
	}
	f := NewFetcher(&stubSource{fail: fail}, 0)
	if _, err := f.Fetch(context.Background(), Query{}); !errors.Is(err, ErrNoCollections) {
		t.Fatalf("expected ErrNoCollections, got %v", err)
	}
}

func TestFetcherTimeout(t *testing.T) {
	src := &stubSource{data: sample(), block: make(chan struct{})}
	f := NewFetcher(src, 20*time.Millisecond)
	res, err := f.Fetch(context.Background(), Query{})
	if err != nil {
		t.Fatalf("only income should time out: %v", err)
	}
	if res.Snapshot.Has(core.KindIncome) || len(res.Snapshot.Expense) != 1 {
		t.Fatalf("unexpected snapshot %+v", res.Snapshot)
	}
}

func TestLoaderCachesByQuery(t *testing.T) {
	src := &stubSource{data: sample()}
	l := NewLoader(NewFetcher(src, time.Second), cache.NewLRUCache[Result](8, time.Minute))
	ctx := context.Background()

	first, err := l.Load(ctx, Query{Year: "2024"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	calls := src.calls
	second, _ := l.Load(ctx, Query{Year: "2024"})
	if src.calls != calls || second.Generation != first.Generation {
		t.Fatalf("second load should be served from cache")
	}
	if _, err := l.Load(ctx, Query{Year: "2023"}); err != nil || src.calls == calls {
		t.Fatalf("a different query should fetch")
	}

	l.Invalidate()
	third, _ := l.Load(ctx, Query{Year: "2024"})
	if third.Generation <= first.Generation {
		t.Fatalf("invalidate should force a refetch")
	}
}

func TestLoaderDiscardsStaleResult(t *testing.T) {
	c := cache.NewLRUCache[Result](8, time.Minute)
	l := NewLoader(NewFetcher(&stubSource{}, 0), c)
	ctx := context.Background()
	key := Query{}.Key()

	newer := Result{Generation: 5, Snapshot: core.Snapshot{Tax: []core.Tax{}}}
	if got := l.apply(ctx, key, newer); got.Generation != 5 {
		t.Fatalf("first result should be applied")
	}
	older := Result{Generation: 3}
	if got := l.apply(ctx, key, older); got.Generation != 5 {
		t.Fatalf("stale result should be discarded, got generation %d", got.Generation)
	}
	if cached, _ := c.Get(key); cached.Generation != 5 {
		t.Fatalf("cache should keep the newer result")
	}
}

func TestLoaderDoesNotCacheFetchesStartedBeforeInvalidate(t *testing.T) {
	src := &stubSource{data: sample(), block: make(chan struct{}), started: make(chan struct{}, 1)}
	c := cache.NewLRUCache[Result](8, time.Minute)
	l := NewLoader(NewFetcher(src, time.Second), c)

	done := make(chan Result)
	go func() {
		res, _ := l.Load(context.Background(), Query{})
		done <- res
	}()
	<-src.started
	l.Invalidate()
	close(src.block)
	res := <-done
	if len(res.Snapshot.Income) != 1 {
		t.Fatalf("caller should still get its result")
	}
	if _, ok := c.Get(Query{}.Key()); ok {
		t.Fatalf("result of a fetch that predates Invalidate must not be cached")
	}
}
