package worker

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Flusher persists in-memory state
type Flusher interface {
	FlushToCache(ctx context.Context) error
	FlushToStore(ctx context.Context) error
}

// Intervals configures how often each persistence worker runs
type Intervals struct {
	Cache time.Duration
	Store time.Duration
}

// StartAllWorkers starts the persistence workers. They stop when ctx is
// cancelled; wait on the returned WaitGroup before the final flush.
func StartAllWorkers(ctx context.Context, f Flusher, every Intervals, log logr.Logger) *sync.WaitGroup {
	log.Info("starting all workers")

	var wg sync.WaitGroup
	startTicker(ctx, &wg, "cache", every.Cache, f.FlushToCache, log)
	startTicker(ctx, &wg, "store", every.Store, f.FlushToStore, log)

	log.Info("all workers started", "cacheInterval", every.Cache, "storeInterval", every.Store)
	return &wg
}

func startTicker(ctx context.Context, wg *sync.WaitGroup, name string, interval time.Duration, fn func(context.Context) error, log logr.Logger) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.V(1).Info("worker stopped", "worker", name)
				return
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					log.Error(err, "flush failed", "worker", name)
				}
			}
		}
	}()
}

// FlushAll writes to the cache, then the store. Both are attempted.
func FlushAll(ctx context.Context, f Flusher) error {
	cacheErr := f.FlushToCache(ctx)
	storeErr := f.FlushToStore(ctx)
	if cacheErr != nil {
		return cacheErr
	}
	return storeErr
}
