package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFlusher struct {
	cache, store atomic.Int32
	cacheErr     error
	storeErr     error
}

func (f *countingFlusher) FlushToCache(context.Context) error {
	f.cache.Add(1)
	return f.cacheErr
}

func (f *countingFlusher) FlushToStore(context.Context) error {
	f.store.Add(1)
	return f.storeErr
}

func TestStartAllWorkersRunsUntilCancelled(t *testing.T) {
	f := &countingFlusher{cacheErr: errors.New("keeps going")}
	ctx, cancel := context.WithCancel(context.Background())

	wg := StartAllWorkers(ctx, f, Intervals{Cache: 5 * time.Millisecond, Store: 10 * time.Millisecond}, logr.Discard())

	require.Eventually(t, func() bool {
		return f.cache.Load() >= 3 && f.store.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()

	stopped := f.cache.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, f.cache.Load())
}

func TestFlushAllAttemptsBoth(t *testing.T) {
	f := &countingFlusher{cacheErr: errors.New("redis down")}
	err := FlushAll(context.Background(), f)

	assert.EqualError(t, err, "redis down")
	assert.Equal(t, int32(1), f.cache.Load())
	assert.Equal(t, int32(1), f.store.Load())

	f = &countingFlusher{storeErr: errors.New("pg down")}
	assert.EqualError(t, FlushAll(context.Background(), f), "pg down")
}
