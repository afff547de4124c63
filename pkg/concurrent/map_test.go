package concurrent

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newStringMap(shards int) *Map[string, int] {
	return NewMap[string, int](shards, StringHash)
}

func TestMap_BasicOperations(t *testing.T) {
	m := newStringMap(4)

	require.True(t, m.Put("a", 1))
	require.False(t, m.Put("a", 2), "second put of same key is an update")

	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 2, v)

	require.True(t, m.Contains("a"))
	require.False(t, m.Contains("missing"))

	_, ok = m.Get("missing")
	require.False(t, ok)

	require.Equal(t, 1, m.Len())
}

func TestMap_UnsyncedWritesAreVisible(t *testing.T) {
	m := newStringMap(4)
	m.Put("fresh", 42)

	// No Sync yet: the snapshot is empty but the write-store fallback
	// must serve the value.
	require.Equal(t, 0, m.ReadCount())
	v, ok := m.Get("fresh")
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestMap_GetCurrentBypassesStaleSnapshot(t *testing.T) {
	m := newStringMap(4)
	m.Put("key", 1)
	m.Sync()
	m.Put("key", 2)

	// The snapshot still serves the old value until the next Sync, but
	// GetCurrent always sees the write store.
	v, _ := m.Get("key")
	require.Equal(t, 1, v)
	v, ok := m.GetCurrent("key")
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestMap_SyncPublishesSnapshot(t *testing.T) {
	m := newStringMap(4)
	for i := 0; i < 10; i++ {
		m.Put(fmt.Sprintf("key-%d", i), i)
	}
	require.True(t, m.IsDirty())
	require.Equal(t, 0, m.ReadCount())

	m.Sync()
	require.False(t, m.IsDirty())
	require.Equal(t, 10, m.ReadCount())
	require.Equal(t, 10, m.WriteCount())
}

func TestMap_RemoveIsImmediate(t *testing.T) {
	m := newStringMap(4)
	m.Put("gone", 1)
	m.Sync()

	require.True(t, m.Remove("gone"))
	_, ok := m.Get("gone")
	require.False(t, ok, "removed key must not be readable, even from the snapshot")
	require.False(t, m.Contains("gone"))

	require.False(t, m.Remove("gone"), "second remove is a no-op")
}

func TestMap_Update(t *testing.T) {
	m := newStringMap(4)
	m.Put("n", 10)

	require.True(t, m.Update("n", func(v int) int { return v + 5 }))
	v, _ := m.Get("n")
	require.Equal(t, 15, v)

	require.False(t, m.Update("missing", func(v int) int { return v }))
}

func TestMap_Range(t *testing.T) {
	m := newStringMap(4)
	for i := 0; i < 20; i++ {
		m.Put(fmt.Sprintf("key-%d", i), i)
	}

	seen := map[string]int{}
	m.Range(func(k string, v int) bool {
		seen[k] = v
		return true
	})
	require.Len(t, seen, 20)

	count := 0
	m.Range(func(string, int) bool {
		count++
		return count < 5
	})
	require.Equal(t, 5, count)
}

func TestMap_Clear(t *testing.T) {
	m := newStringMap(4)
	m.Put("a", 1)
	m.Sync()

	m.Clear()
	require.Equal(t, 0, m.Len())
	require.Equal(t, 0, m.ReadCount())
	require.False(t, m.Contains("a"))
}

func TestMap_ConcurrentReadersAndWriters(t *testing.T) {
	m := newStringMap(16)
	const writers = 8
	const perWriter = 500

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				m.Put(fmt.Sprintf("w%d-k%d", w, i), i)
				if i%50 == 0 {
					m.Sync()
				}
			}
		}(w)
	}

	// Concurrent readers hammer the snapshot while writers sync.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				m.Get(fmt.Sprintf("w%d-k%d", i%writers, i%perWriter))
				m.ReadCount()
			}
		}()
	}

	wg.Wait()
	m.Sync()
	require.Equal(t, writers*perWriter, m.Len())
	require.Equal(t, writers*perWriter, m.ReadCount())
}

func TestMap_BytesHash(t *testing.T) {
	type key [16]byte
	m := NewMap[key, string](8, BytesHash[key])

	k := key{1, 2, 3}
	m.Put(k, "value")
	v, ok := m.Get(k)
	require.True(t, ok)
	require.Equal(t, "value", v)
}
