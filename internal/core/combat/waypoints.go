package combat

import (
	"github.com/skirmish/skirmish/internal/core/config"
	"github.com/skirmish/skirmish/internal/core/flags"
	"github.com/skirmish/skirmish/internal/core/ident"
	"github.com/skirmish/skirmish/internal/core/state"
)

// SetWorldBounds replaces the clamp rectangle used for waypoint output.
// Safe to call while the tick loop is running.
func (e *Engine) SetWorldBounds(b config.Bounds) {
	e.boundsMx.Lock()
	e.bounds = b
	e.boundsMx.Unlock()
}

// WorldBounds returns the current clamp rectangle.
func (e *Engine) WorldBounds() config.Bounds {
	e.boundsMx.RLock()
	defer e.boundsMx.RUnlock()
	return e.bounds
}

// Waypoint computes where the entity should move next, clamped to the
// world bounds. ok is false when the entity has nowhere to go: unknown,
// dead, mid-attack, recovering from a hit, or no hostile within aggro
// range. Holding position is the default, not an error.
func (e *Engine) Waypoint(id ident.ID) (x, y float64, ok bool) {
	r, found := e.store.Get(id)
	if !found || !r.Ready() {
		return 0, 0, false
	}
	if r.Behavior.Has(flags.Dead) || r.Behavior.Has(flags.Attacking) || r.Behavior.Has(flags.Damaged) {
		return 0, 0, false
	}

	enemy := e.nearestHostile(r)
	if enemy == nil {
		return 0, 0, false
	}

	var wx, wy float64
	if r.Behavior.Has(flags.Retreating) {
		// Move directly away from the threat by one aggro radius.
		dx, dy := r.X-enemy.X, r.Y-enemy.Y
		d := distance(r.X, r.Y, enemy.X, enemy.Y)
		if d == 0 {
			dx, dy, d = 1, 0, 1
		}
		wx = r.X + dx/d*e.cfg.AggroRange
		wy = r.Y + dy/d*e.cfg.AggroRange
	} else {
		// Already in reach: stand and fight.
		if distance(r.X, r.Y, enemy.X, enemy.Y) <= e.attackRange(r.Static) {
			return 0, 0, false
		}
		wx, wy = enemy.X, enemy.Y
	}

	b := e.WorldBounds()
	return clamp(wx, b.MinX, b.MaxX), clamp(wy, b.MinY, b.MaxY), true
}

// nearestHostile scans the population for the closest living enemy inside
// the aggro radius.
func (e *Engine) nearestHostile(r *state.Record) *state.Record {
	var nearest *state.Record
	best := e.cfg.AggroRange
	for _, other := range e.store.Snapshot() {
		if other.ID == r.ID || !other.Alive() || !other.Ready() {
			continue
		}
		if !flags.Hostile(r.Static, other.Static) {
			continue
		}
		if d := distance(r.X, r.Y, other.X, other.Y); d <= best {
			best = d
			nearest = other
		}
	}
	return nearest
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
