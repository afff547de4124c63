// Package concurrent provides a hybrid concurrent map tuned for read-mostly
// workloads that still see bursts of writes from several goroutines.
//
// The map keeps two stores. Writes land in a sharded, mutex-guarded write
// store for low latency. Reads go to an immutable snapshot published through
// an atomic pointer, making the hot read path lock-free. Sync rebuilds the
// snapshot from the write store and swaps it in atomically; readers never
// block while that happens.
//
// Consistency is eventual between Sync calls: a value updated but not yet
// synced is served at its snapshot version, and a key inserted but not yet
// synced is found through the write-store fallback. Remove syncs eagerly so
// deletions are visible immediately.
package concurrent

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Hasher maps a key to a shard-selection hash.
type Hasher[K comparable] func(K) uint64

// StringHash hashes string keys with xxhash.
func StringHash(key string) uint64 { return xxhash.Sum64String(key) }

// BytesHash hashes fixed-width byte keys with xxhash.
func BytesHash[K ~[16]byte](key K) uint64 {
	b := [16]byte(key)
	return xxhash.Sum64(b[:])
}

type mapShard[K comparable, V any] struct {
	mx sync.RWMutex
	m  map[K]V
}

type snapshot[K comparable, V any] struct {
	m map[K]V
}

// Map is the dual-store concurrent map.
type Map[K comparable, V any] struct {
	shards   []mapShard[K, V]
	count    uint64
	hash     Hasher[K]
	read     atomic.Pointer[snapshot[K, V]]
	version  atomic.Uint64
	dirty    atomic.Bool
	writeLen atomic.Int64
}

// NewMap creates a Map with the given shard count and key hasher.
func NewMap[K comparable, V any](shardCount int, hash Hasher[K]) *Map[K, V] {
	if shardCount <= 0 {
		shardCount = 16
	}
	m := &Map[K, V]{
		shards: make([]mapShard[K, V], shardCount),
		count:  uint64(shardCount),
		hash:   hash,
	}
	for i := range m.shards {
		m.shards[i].m = make(map[K]V)
	}
	m.read.Store(&snapshot[K, V]{m: make(map[K]V)})
	m.version.Store(1)
	return m
}

func (m *Map[K, V]) shardFor(key K) *mapShard[K, V] {
	return &m.shards[m.hash(key)%m.count]
}

// Get returns the value for key. The snapshot is consulted first without
// taking any lock; unsynced writes are found through the owning shard.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if v, ok := m.read.Load().m[key]; ok {
		return v, true
	}

	sh := m.shardFor(key)
	sh.mx.RLock()
	v, ok := sh.m[key]
	sh.mx.RUnlock()
	return v, ok
}

// GetCurrent returns the write-store value for key, bypassing the snapshot.
// Use it when read-your-writes matters more than avoiding the shard lock.
func (m *Map[K, V]) GetCurrent(key K) (V, bool) {
	sh := m.shardFor(key)
	sh.mx.RLock()
	v, ok := sh.m[key]
	sh.mx.RUnlock()
	return v, ok
}

// Put stores the value for key and reports whether the key was new.
func (m *Map[K, V]) Put(key K, value V) bool {
	sh := m.shardFor(key)
	sh.mx.Lock()
	_, existed := sh.m[key]
	sh.m[key] = value
	sh.mx.Unlock()

	if !existed {
		m.writeLen.Add(1)
	}
	m.version.Add(1)
	m.dirty.Store(true)
	return !existed
}

// Update applies fn to the current value for key under the shard write lock
// and stores the result. Returns false and leaves the map untouched when the
// key is absent. With copy-on-write values this publishes every multi-field
// mutation as a unit.
func (m *Map[K, V]) Update(key K, fn func(V) V) bool {
	sh := m.shardFor(key)
	sh.mx.Lock()
	v, ok := sh.m[key]
	if ok {
		sh.m[key] = fn(v)
	}
	sh.mx.Unlock()

	if ok {
		m.version.Add(1)
		m.dirty.Store(true)
	}
	return ok
}

// Remove deletes key from the map and reports whether it was present.
// The snapshot is rebuilt eagerly so readers stop observing the key at once.
func (m *Map[K, V]) Remove(key K) bool {
	sh := m.shardFor(key)
	sh.mx.Lock()
	_, ok := sh.m[key]
	if ok {
		delete(sh.m, key)
	}
	sh.mx.Unlock()

	if ok {
		m.writeLen.Add(-1)
		m.version.Add(1)
		m.Sync()
	}
	return ok
}

// Contains reports whether key is present in either store.
func (m *Map[K, V]) Contains(key K) bool {
	if _, ok := m.read.Load().m[key]; ok {
		return true
	}
	sh := m.shardFor(key)
	sh.mx.RLock()
	_, ok := sh.m[key]
	sh.mx.RUnlock()
	return ok
}

// Sync rebuilds the read snapshot from the write store and publishes it
// with a single atomic swap.
func (m *Map[K, V]) Sync() {
	next := make(map[K]V, m.writeLen.Load())
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mx.RLock()
		for k, v := range sh.m {
			next[k] = v
		}
		sh.mx.RUnlock()
	}
	m.read.Store(&snapshot[K, V]{m: next})
	m.dirty.Store(false)
}

// Range calls fn for every entry in the write store (the authoritative
// view). Iteration stops when fn returns false. Entries are copied out
// shard by shard, so fn runs without any lock held and may call back into
// the map.
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mx.RLock()
		keys := make([]K, 0, len(sh.m))
		vals := make([]V, 0, len(sh.m))
		for k, v := range sh.m {
			keys = append(keys, k)
			vals = append(vals, v)
		}
		sh.mx.RUnlock()

		for j := range keys {
			if !fn(keys[j], vals[j]) {
				return
			}
		}
	}
}

// Len returns the number of entries in the write store.
func (m *Map[K, V]) Len() int { return int(m.writeLen.Load()) }

// ReadCount returns the number of entries in the published snapshot.
func (m *Map[K, V]) ReadCount() int { return len(m.read.Load().m) }

// WriteCount returns the number of entries in the write store.
func (m *Map[K, V]) WriteCount() int { return m.Len() }

// Version returns a counter incremented on every mutation.
func (m *Map[K, V]) Version() uint64 { return m.version.Load() }

// IsDirty reports whether mutations happened since the last Sync.
func (m *Map[K, V]) IsDirty() bool { return m.dirty.Load() }

// Clear removes every entry from both stores.
func (m *Map[K, V]) Clear() {
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mx.Lock()
		sh.m = make(map[K]V)
		sh.mx.Unlock()
	}
	m.writeLen.Store(0)
	m.read.Store(&snapshot[K, V]{m: make(map[K]V)})
	m.version.Add(1)
	m.dirty.Store(false)
}
