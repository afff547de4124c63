// Package flags implements the two fixed-width bitsets carried by every
// entity: an immutable Static set (combat category + faction, fixed at
// registration) and a mutable Behavior set (current activity + modifiers,
// rewritten by the tick engine and the host).
package flags

import "strings"

// Static holds the immutable properties of an entity. Set once at
// registration, never mutated afterwards.
type Static uint32

const (
	// Combat categories. Each entity carries exactly one.
	Melee  Static = 1 << 0
	Ranged Static = 1 << 1
	Magic  Static = 1 << 2
	Healer Static = 1 << 3

	// Factions. Determine who may attack whom.
	Ally    Static = 1 << 4
	Monster Static = 1 << 5
	Passive Static = 1 << 6
)

// Behavior holds the mutable activity and modifier bits of an entity.
type Behavior uint32

const (
	// Activities. At most one is authoritative at a time; Activity()
	// resolves conflicts by priority.
	Idle      Behavior = 1 << 0
	Walking   Behavior = 1 << 1
	Attacking Behavior = 1 << 2
	Wandering Behavior = 1 << 3
	Damaged   Behavior = 1 << 4
	Dead      Behavior = 1 << 5
	Spawning  Behavior = 1 << 6
	Hurt      Behavior = 1 << 7

	// Modifiers. Coexist freely with an activity bit.
	Combat     Behavior = 1 << 8
	Waypoint   Behavior = 1 << 9
	Retreating Behavior = 1 << 10
	Pursuing   Behavior = 1 << 11
)

// Has reports whether all bits of flag are set.
func (s Static) Has(flag Static) bool { return s&flag == flag }

// Combine merges two static sets.
func (s Static) Combine(other Static) Static { return s | other }

// Has reports whether all bits of flag are set.
func (b Behavior) Has(flag Behavior) bool { return b&flag == flag }

// Add returns b with flag set. DEAD is absorbing: once set, no further
// bits can be added.
func (b Behavior) Add(flag Behavior) Behavior {
	if b.Has(Dead) {
		return b
	}
	return b | flag
}

// Remove returns b with flag cleared. DEAD itself cannot be cleared.
func (b Behavior) Remove(flag Behavior) Behavior {
	if b.Has(Dead) {
		return b
	}
	return b &^ flag
}

// Combine merges two behavior sets.
func (b Behavior) Combine(other Behavior) Behavior { return b | other }

// Activity collapses a behavior set to the single activity that should
// drive presentation, by priority: DEAD > DAMAGED > ATTACKING > WALKING >
// IDLE.
func (b Behavior) Activity() Behavior {
	switch {
	case b.Has(Dead):
		return Dead
	case b.Has(Damaged):
		return Damaged
	case b.Has(Attacking):
		return Attacking
	case b.Has(Walking):
		return Walking
	default:
		return Idle
	}
}

// Hostile reports whether two entities may form an attacker/target pair.
// Passive entities never fight; otherwise hostility requires one side to
// be an ally and the other a monster. Symmetric by construction.
func Hostile(a, b Static) bool {
	if a.Has(Passive) || b.Has(Passive) {
		return false
	}
	return (a.Has(Ally) && b.Has(Monster)) || (a.Has(Monster) && b.Has(Ally))
}

// CanAttack reports whether an entity in this state may deal damage.
func CanAttack(s Static, b Behavior) bool {
	if b.Has(Dead) || s.Has(Passive) {
		return false
	}
	return s.Has(Melee) || s.Has(Ranged) || s.Has(Magic) || s.Has(Healer)
}

// Category returns the single combat-category bit of a static set, or 0.
func (s Static) Category() Static {
	for _, c := range []Static{Melee, Ranged, Magic, Healer} {
		if s.Has(c) {
			return c
		}
	}
	return 0
}

// Faction returns the single faction bit of a static set, or 0.
func (s Static) Faction() Static {
	for _, f := range []Static{Ally, Monster, Passive} {
		if s.Has(f) {
			return f
		}
	}
	return 0
}

// State transitions. All of them are value-in/value-out and no-ops on a
// DEAD set, so the tick engine can apply them without re-checking.

// EnterCombat drops the peaceful activities and raises COMBAT.
func (b Behavior) EnterCombat() Behavior {
	return b.Remove(Idle).Remove(Wandering).Add(Combat)
}

// ExitCombat clears every combat-related bit. Monsters fall back to
// wandering, everything else to idle.
func (b Behavior) ExitCombat(s Static) Behavior {
	b = b.Remove(Combat).Remove(Attacking).Remove(Pursuing).
		Remove(Retreating).Remove(Walking)
	if s.Has(Monster) {
		return b.Add(Wandering)
	}
	return b.Add(Idle)
}

// StartAttack raises ATTACKING and clears the movement activities.
func (b Behavior) StartAttack() Behavior {
	return b.Add(Attacking).Remove(Walking).Remove(Idle)
}

// StopAttack clears ATTACKING.
func (b Behavior) StopAttack() Behavior { return b.Remove(Attacking) }

// StartWalking raises WALKING and clears IDLE.
func (b Behavior) StartWalking() Behavior { return b.Add(Walking).Remove(Idle) }

// StopWalking clears WALKING and falls back to IDLE.
func (b Behavior) StopWalking() Behavior { return b.Remove(Walking).Add(Idle) }

// MarkDead returns the terminal behavior set. Static flags live in their
// own domain, so nothing needs preserving here.
func (b Behavior) MarkDead() Behavior { return Dead }

var staticNames = []struct {
	flag Static
	name string
}{
	{Melee, "MELEE"}, {Ranged, "RANGED"}, {Magic, "MAGIC"}, {Healer, "HEALER"},
	{Ally, "ALLY"}, {Monster, "MONSTER"}, {Passive, "PASSIVE"},
}

var behaviorNames = []struct {
	flag Behavior
	name string
}{
	{Idle, "IDLE"}, {Walking, "WALKING"}, {Attacking, "ATTACKING"},
	{Wandering, "WANDERING"}, {Damaged, "DAMAGED"}, {Dead, "DEAD"},
	{Spawning, "SPAWNING"}, {Hurt, "HURT"}, {Combat, "COMBAT"},
	{Waypoint, "WAYPOINT"}, {Retreating, "RETREATING"}, {Pursuing, "PURSUING"},
}

// String renders the set as "IDLE | MELEE"-style diagnostics output.
func (s Static) String() string {
	parts := make([]string, 0, 4)
	for _, n := range staticNames {
		if s.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, " | ")
}

func (b Behavior) String() string {
	parts := make([]string, 0, 4)
	for _, n := range behaviorNames {
		if b.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, " | ")
}
