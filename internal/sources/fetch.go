package sources

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ErrNoCollections is returned when every collection failed to load.
var ErrNoCollections = errors.New("no record collection could be fetched")

// Result is one completed fetch.
type Result struct {
	Snapshot   core.Snapshot
	Generation uint64
	Failed     []core.Kind
	FetchedAt  time.Time
}

// Fetcher loads all six collections from a RecordSource concurrently.
type Fetcher struct {
	src     RecordSource
	timeout time.Duration
	gen     atomic.Uint64
}

// NewFetcher wraps src. A non-positive timeout disables the per-fetch deadline.
func NewFetcher(src RecordSource, timeout time.Duration) *Fetcher {
	return &Fetcher{src: src, timeout: timeout}
}

// Fetch loads every collection for q. A collection that fails is logged and
// left absent so the ledger still renders; only when all of them fail is an
// error returned. Each call is stamped with a new generation number.
func (f *Fetcher) Fetch(ctx context.Context, q Query) (Result, error) {
	gen := f.gen.Add(1)
	logger := log.FromContext(ctx).WithComponent(log.ComponentSources)

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var (
		mu     sync.Mutex
		snap   core.Snapshot
		failed []core.Kind
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, k := range core.Kinds {
		g.Go(func() error {
			part, err := f.src.Fetch(gctx, k, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.WarnContext(ctx, "Collection fetch failed",
					log.FieldKind, k, log.FieldGeneration, gen, log.FieldError, err)
				failed = append(failed, k)
				return nil
			}
			snap = snap.Merge(part)
			return nil
		})
	}
	if other, ok := f.src.(OtherSource); ok {
		g.Go(func() error {
			recs, err := other.FetchOther(gctx, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.WarnContext(ctx, "Extra collections fetch failed", log.FieldGeneration, gen, log.FieldError, err)
				return nil
			}
			snap = snap.Merge(core.Snapshot{Other: recs})
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) == len(core.Kinds) {
		if err := ctx.Err(); err != nil {
			return Result{Generation: gen, Failed: failed}, fmt.Errorf("%w: %w", ErrNoCollections, err)
		}
		return Result{Generation: gen, Failed: failed}, ErrNoCollections
	}
	logger.DebugContext(ctx, "Fetched snapshot",
		log.FieldGeneration, gen, log.FieldRecords, snap.Len(), "failed", len(failed))
	return Result{Snapshot: snap, Generation: gen, Failed: failed, FetchedAt: time.Now()}, nil
}

// Loader serves snapshots through a TTL'd cache keyed by query. When two
// fetches for the same query overlap, the one that started later wins: a
// result older than the cached one is discarded.
type Loader struct {
	fetcher *Fetcher
	cache   cache.Cache[Result]

	mu      sync.Mutex
	applied map[string]uint64
	floor   uint64 // fetches at or below this generation started before the last Invalidate
}

func NewLoader(fetcher *Fetcher, c cache.Cache[Result]) *Loader {
	return &Loader{fetcher: fetcher, cache: c, applied: make(map[string]uint64)}
}

// Load returns the newest snapshot for q, fetching when the cache has none.
func (l *Loader) Load(ctx context.Context, q Query) (Result, error) {
	key := q.Key()
	if res, ok := l.cache.Get(key); ok {
		return res, nil
	}
	res, err := l.fetcher.Fetch(ctx, q)
	if err != nil {
		return Result{}, err
	}
	return l.apply(ctx, key, res), nil
}

// apply stores res unless a newer generation has already been applied for
// key, in which case the newer cached result is returned instead.
func (l *Loader) apply(ctx context.Context, key string, res Result) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res.Generation <= l.floor {
		return res
	}
	if last := l.applied[key]; res.Generation < last {
		if cached, ok := l.cache.Get(key); ok {
			log.FromContext(ctx).WithComponent(log.ComponentCache).DebugContext(ctx, "Discarded stale snapshot",
				log.FieldCacheKey, key, log.FieldGeneration, res.Generation, "applied", last)
			return cached
		}
	}
	l.applied[key] = res.Generation
	l.cache.Set(key, res)
	return res
}

// Invalidate drops every cached snapshot, so the next Load refetches.
// Fetches already in flight are still returned to their callers but no
// longer cached.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.floor = l.fetcher.gen.Load()
	l.cache.Purge()
}

// CacheSize returns the number of cached snapshots.
func (l *Loader) CacheSize() int {
	return l.cache.Size()
}
