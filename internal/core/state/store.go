// Package state owns the authoritative per-entity records shared between
// the host's frame loop and the engine's background tick. Reads are
// lock-free against a published snapshot; writes go to a sharded write
// store and are reconciled into the read path by Sync.
package state

import (
	"github.com/skirmish/skirmish/internal/core/ident"
	"github.com/skirmish/skirmish/pkg/concurrent"
)

// DefaultShards is the write-store shard count. Plenty for the target
// population of ~100 concurrent combatants.
const DefaultShards = 16

// Store maps identities to records.
type Store struct {
	records *concurrent.Map[ident.ID, *Record]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records: concurrent.NewMap[ident.ID, *Record](DefaultShards, concurrent.BytesHash[ident.ID]),
	}
}

// Put registers or replaces the record for its identity.
func (s *Store) Put(r *Record) {
	s.records.Put(r.ID, r)
}

// Get returns the record for id. The returned record must be treated as
// read-only; use Mutate to change it.
func (s *Store) Get(id ident.ID) (*Record, bool) {
	return s.records.Get(id)
}

// Current returns the latest record for id straight from the write store,
// bypassing the read snapshot. The tick engine uses it where within-tick
// freshness matters, such as the attack cooldown gate.
func (s *Store) Current(id ident.ID) (*Record, bool) {
	return s.records.GetCurrent(id)
}

// Contains reports whether id has a live record.
func (s *Store) Contains(id ident.ID) bool {
	return s.records.Contains(id)
}

// Remove deletes the record for id, purging it from the read path at
// once, and reports whether it existed.
func (s *Store) Remove(id ident.ID) bool {
	return s.records.Remove(id)
}

// Mutate applies fn to a private clone of the record under the shard
// write lock and republishes the clone, so concurrent readers observe
// either the whole old record or the whole new one. Returns false when
// the identity is gone (a despawn race, not an error).
func (s *Store) Mutate(id ident.ID, fn func(*Record)) bool {
	return s.records.Update(id, func(r *Record) *Record {
		c := r.clone()
		fn(c)
		return c
	})
}

// Range calls fn for every record until fn returns false.
func (s *Store) Range(fn func(*Record) bool) {
	s.records.Range(func(_ ident.ID, r *Record) bool {
		return fn(r)
	})
}

// Snapshot returns the current records as a slice. Used by the tick
// engine to scan a stable view of the population.
func (s *Store) Snapshot() []*Record {
	out := make([]*Record, 0, s.records.Len())
	s.records.Range(func(_ ident.ID, r *Record) bool {
		out = append(out, r)
		return true
	})
	return out
}

// Sync reconciles pending writes into the lock-free read path.
func (s *Store) Sync() { s.records.Sync() }

// Len returns the number of live records.
func (s *Store) Len() int { return s.records.Len() }

// ReadCount returns the size of the published read snapshot.
func (s *Store) ReadCount() int { return s.records.ReadCount() }

// WriteCount returns the size of the write store.
func (s *Store) WriteCount() int { return s.records.WriteCount() }

// Clear drops every record.
func (s *Store) Clear() { s.records.Clear() }
