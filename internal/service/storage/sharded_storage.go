package storage

import (
	"hash/fnv"
	"sync"
)

// ShardedStorage spreads keys over independently locked MemoryStorage-like
// shards. Dirty tracking follows MemoryStorage.
type ShardedStorage[K comparable, V any] struct {
	shards  []*shard[K, V]
	mask    uint32
	shardOf func(K) uint32
}

type shard[K comparable, V any] struct {
	mutex sync.RWMutex
	data  map[K]V
	dirty map[K]bool
}

// NewShardedStorage creates a storage with shardCount rounded up to a power
// of two. hash picks the shard for a key.
func NewShardedStorage[K comparable, V any](shardCount int, hash func(K) uint32) *ShardedStorage[K, V] {
	n := 1
	for n < shardCount {
		n *= 2
	}

	shards := make([]*shard[K, V], n)
	for i := range shards {
		shards[i] = &shard[K, V]{
			data:  make(map[K]V),
			dirty: make(map[K]bool),
		}
	}

	return &ShardedStorage[K, V]{
		shards:  shards,
		mask:    uint32(n - 1),
		shardOf: hash,
	}
}

// NewStringShardedStorage shards string keys by their FNV-1a hash
func NewStringShardedStorage[V any](shardCount int) *ShardedStorage[string, V] {
	return NewShardedStorage[string, V](shardCount, HashString)
}

// HashString is the FNV-1a hash of s
func HashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (s *ShardedStorage[K, V]) shardFor(key K) *shard[K, V] {
	return s.shards[s.shardOf(key)&s.mask]
}

// ShardCount returns the number of shards
func (s *ShardedStorage[K, V]) ShardCount() int {
	return len(s.shards)
}

func (s *ShardedStorage[K, V]) Set(key K, value V) {
	sh := s.shardFor(key)

	sh.mutex.Lock()
	defer sh.mutex.Unlock()

	sh.data[key] = value
	sh.dirty[key] = true
}

func (s *ShardedStorage[K, V]) Get(key K) (V, bool) {
	sh := s.shardFor(key)

	sh.mutex.RLock()
	defer sh.mutex.RUnlock()

	value, exists := sh.data[key]
	return value, exists
}

func (s *ShardedStorage[K, V]) Delete(key K) bool {
	sh := s.shardFor(key)

	sh.mutex.Lock()
	defer sh.mutex.Unlock()

	if _, exists := sh.data[key]; !exists {
		return false
	}

	delete(sh.data, key)
	delete(sh.dirty, key)
	return true
}

func (s *ShardedStorage[K, V]) GetAll() map[K]V {
	result := make(map[K]V)
	for _, sh := range s.shards {
		sh.mutex.RLock()
		for k, v := range sh.data {
			result[k] = v
		}
		sh.mutex.RUnlock()
	}
	return result
}

func (s *ShardedStorage[K, V]) GetAllValues() []V {
	result := make([]V, 0, s.Count())
	for _, sh := range s.shards {
		sh.mutex.RLock()
		for _, v := range sh.data {
			result = append(result, v)
		}
		sh.mutex.RUnlock()
	}
	return result
}

// GetDirty returns dirty objects from every shard without clearing flags
func (s *ShardedStorage[K, V]) GetDirty() map[K]V {
	result := make(map[K]V)
	for _, sh := range s.shards {
		sh.mutex.RLock()
		for k := range sh.dirty {
			if v, exists := sh.data[k]; exists {
				result[k] = v
			}
		}
		sh.mutex.RUnlock()
	}
	return result
}

func (s *ShardedStorage[K, V]) ClearDirty(keys []K) {
	for _, k := range keys {
		sh := s.shardFor(k)
		sh.mutex.Lock()
		delete(sh.dirty, k)
		sh.mutex.Unlock()
	}
}

// ForEach visits shards in order, copying each one before calling fn
func (s *ShardedStorage[K, V]) ForEach(fn func(key K, value V) bool) {
	for _, sh := range s.shards {
		sh.mutex.RLock()
		items := make(map[K]V, len(sh.data))
		for k, v := range sh.data {
			items[k] = v
		}
		sh.mutex.RUnlock()

		for k, v := range items {
			if !fn(k, v) {
				return
			}
		}
	}
}

// ForEachParallel runs fn over every shard concurrently and waits
func (s *ShardedStorage[K, V]) ForEachParallel(fn func(key K, value V)) {
	var wg sync.WaitGroup
	wg.Add(len(s.shards))

	for _, sh := range s.shards {
		go func(sh *shard[K, V]) {
			defer wg.Done()

			sh.mutex.RLock()
			items := make(map[K]V, len(sh.data))
			for k, v := range sh.data {
				items[k] = v
			}
			sh.mutex.RUnlock()

			for k, v := range items {
				fn(k, v)
			}
		}(sh)
	}

	wg.Wait()
}

func (s *ShardedStorage[K, V]) Count() int {
	count := 0
	for _, sh := range s.shards {
		sh.mutex.RLock()
		count += len(sh.data)
		sh.mutex.RUnlock()
	}
	return count
}

var _ Storage[string, int] = (*ShardedStorage[string, int])(nil)
