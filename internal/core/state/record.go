package state

import (
	"github.com/skirmish/skirmish/internal/core/flags"
	"github.com/skirmish/skirmish/internal/core/ident"
)

// Record is the full per-entity state held by the store: one structured
// value per identity instead of per-field keys, so an entity's fields are
// always observed as a unit.
//
// Records are copy-on-write. Once published through the store they are
// never mutated in place; every change clones the record and republishes
// it under the owning shard lock. Readers holding an old pointer keep a
// consistent view.
type Record struct {
	ID   ident.ID
	Name string
	Kind string

	// Static never changes after registration.
	Static   flags.Static
	Behavior flags.Behavior

	X, Y   float64
	HasPos bool

	HP, MaxHP float64
	Attack    float64
	Defense   float64

	// LastAttackMS is the wall-clock timestamp of the entity's most
	// recent attack, in milliseconds. Zero means it may attack at once.
	LastAttackMS int64

	// Slot is the host-owned pool slot reference carried for the host's
	// benefit; the engine never inspects it.
	Slot any
}

// Alive reports whether the record may still take part in combat.
func (r *Record) Alive() bool {
	return !r.Behavior.Has(flags.Dead)
}

// Ready reports whether the record carries everything a tick needs.
// Entities without a known position are not errors, just not ready yet.
func (r *Record) Ready() bool {
	return r.HasPos && r.MaxHP > 0
}

// clone returns a shallow copy for copy-on-write updates.
func (r *Record) clone() *Record {
	c := *r
	return &c
}
