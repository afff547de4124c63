// Package combat runs the autonomous combat resolution loop: a fixed-rate
// tick that scans the population for hostile pairs, applies cooldowns and
// damage, advances the per-entity state machine, and emits events for the
// host to present.
package combat

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/skirmish/skirmish/internal/core/config"
	"github.com/skirmish/skirmish/internal/core/events"
	"github.com/skirmish/skirmish/internal/core/flags"
	"github.com/skirmish/skirmish/internal/core/ident"
	"github.com/skirmish/skirmish/internal/core/observability/log"
	"github.com/skirmish/skirmish/internal/core/state"
)

// Engine owns the background tick. It shares exactly one resource with
// the host: the state store. Commands flow in through Start/Stop, results
// flow out through the event queue.
type Engine struct {
	store  *state.Store
	queue  *events.Queue
	cfg    config.Config
	logger log.Log

	mx      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool

	boundsMx sync.RWMutex
	bounds   config.Bounds
}

// NewEngine wires an engine to its store and event queue.
func NewEngine(store *state.Store, queue *events.Queue, cfg config.Config, logger log.Log) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		store:  store,
		queue:  queue,
		cfg:    cfg,
		logger: logger,
		bounds: cfg.WorldBounds,
	}
}

// Start launches the tick loop on its own goroutine. Calling Start on a
// running engine is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mx.Lock()
	defer e.mx.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.loop(ctx, e.stop, e.done)
	e.logger.Info("combat tick loop started",
		log.Duration("interval", e.cfg.TickInterval),
	)
}

// Stop asks the loop to quit and waits for it. The request is observed
// within one tick interval; an in-flight tick always finishes first, so
// the store is never left mid-mutation.
func (e *Engine) Stop() {
	e.mx.Lock()
	if !e.running {
		e.mx.Unlock()
		return
	}
	e.running = false
	close(e.stop)
	done := e.done
	e.mx.Unlock()

	<-done
	e.logger.Info("combat tick loop stopped")
}

// Running reports whether the tick loop is live.
func (e *Engine) Running() bool {
	e.mx.Lock()
	defer e.mx.Unlock()
	return e.running
}

func (e *Engine) loop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			e.tick(time.Now().UnixMilli())
		}
	}
}

// tick runs one resolution pass and publishes its results.
func (e *Engine) tick(nowMS int64) {
	evs := e.RunTick(nowMS)
	droppedBefore := e.queue.Dropped()
	e.queue.PushMany(evs)
	if d := e.queue.Dropped() - droppedBefore; d > 0 {
		e.logger.Warn("event queue overflow, oldest events dropped",
			log.Uint64("dropped", d),
		)
	}
	// Reconcile this tick's writes into the lock-free read path so host
	// queries see them within one tick interval.
	e.store.Sync()
}

// retreatHPFraction is the health fraction below which a surviving
// target starts retreating instead of pursuing.
const retreatHPFraction = 0.25

// relationship is one directed (attacker, target) candidate for this tick.
type relationship struct {
	attacker *state.Record
	target   *state.Record
	heal     bool
}

// RunTick executes one combat tick against the current store contents and
// returns the events it produced, in emission order. Exported so tests
// and embedding hosts can drive the clock themselves.
func (e *Engine) RunTick(nowMS int64) []events.Event {
	combatants := e.snapshotCombatants()
	if len(combatants) < 2 {
		return nil
	}

	rels := e.findRelationships(combatants)
	if len(rels) == 0 {
		return nil
	}

	out := make([]events.Event, 0, len(rels)*2)
	// Deaths inside this tick exclude the fallen from later pairs
	// immediately, even though their records stay in the store.
	deadThisTick := make(map[ident.ID]struct{})

	for _, rel := range rels {
		if _, gone := deadThisTick[rel.attacker.ID]; gone {
			continue
		}
		if _, gone := deadThisTick[rel.target.ID]; gone {
			continue
		}

		if !e.cooldownElapsed(rel.attacker.ID, nowMS) {
			continue
		}

		var evs []events.Event
		if rel.heal {
			evs = e.resolveHeal(rel, nowMS)
		} else {
			evs = e.resolveAttack(rel, nowMS, deadThisTick)
		}
		out = append(out, evs...)
	}
	return out
}

// snapshotCombatants collects every entity eligible for pairing this tick:
// alive, position known, stats present. A missing position or zeroed stats
// is "not ready yet", never an error.
func (e *Engine) snapshotCombatants() []*state.Record {
	all := e.store.Snapshot()
	out := all[:0]
	for _, r := range all {
		if !r.Alive() {
			continue
		}
		if !r.Ready() {
			continue
		}
		if r.HP < 0 || r.MaxHP < 0 {
			e.logger.Warn("skipping malformed record for this tick",
				log.String("id", r.ID.String()),
				log.Float64("hp", r.HP),
			)
			continue
		}
		out = append(out, r)
	}
	return out
}

// findRelationships does the O(n²) pair scan. Each unordered pair can
// yield up to two directed attack relationships, one per direction, plus
// heal relationships for healers next to wounded friends. Quadratic cost
// is the accepted trade for a population of at most a few hundred.
func (e *Engine) findRelationships(combatants []*state.Record) []relationship {
	var rels []relationship
	for i := 0; i < len(combatants); i++ {
		a := combatants[i]
		for j := i + 1; j < len(combatants); j++ {
			b := combatants[j]
			dist := distance(a.X, a.Y, b.X, b.Y)

			if flags.Hostile(a.Static, b.Static) {
				if flags.CanAttack(a.Static, a.Behavior) && dist <= e.attackRange(a.Static) {
					rels = append(rels, relationship{attacker: a, target: b})
				}
				if flags.CanAttack(b.Static, b.Behavior) && dist <= e.attackRange(b.Static) {
					rels = append(rels, relationship{attacker: b, target: a})
				}
				continue
			}

			// Same-faction healer support.
			if a.Static.Has(flags.Healer) && canHeal(a, b) && dist <= e.cfg.MagicRange {
				rels = append(rels, relationship{attacker: a, target: b, heal: true})
			}
			if b.Static.Has(flags.Healer) && canHeal(b, a) && dist <= e.cfg.MagicRange {
				rels = append(rels, relationship{attacker: b, target: a, heal: true})
			}
		}
	}
	return rels
}

func canHeal(healer, target *state.Record) bool {
	if healer.Behavior.Has(flags.Dead) || target.Behavior.Has(flags.Dead) {
		return false
	}
	if healer.Static.Faction() != target.Static.Faction() {
		return false
	}
	return target.HP < target.MaxHP
}

// cooldownElapsed re-reads the attacker's current record so an attack
// earlier in the same tick pushes later relationships past the gate.
func (e *Engine) cooldownElapsed(attacker ident.ID, nowMS int64) bool {
	r, ok := e.store.Current(attacker)
	if !ok {
		return false
	}
	return nowMS >= r.LastAttackMS+e.cfg.AttackCooldownMS
}

// resolveAttack applies one attack. The target's HP mutation and the
// emitted events are one logical step: if the store write fails (the
// target despawned between the scan and now) nothing is emitted.
func (e *Engine) resolveAttack(rel relationship, nowMS int64, deadThisTick map[ident.ID]struct{}) []events.Event {
	dmg := CalculateDamage(rel.attacker.Attack, rel.target.Defense)

	var died bool
	var tx, ty float64
	ok := e.store.Mutate(rel.target.ID, func(t *state.Record) {
		t.HP = math.Max(0, t.HP-dmg)
		tx, ty = t.X, t.Y
		if t.HP <= 0 {
			t.Behavior = t.Behavior.MarkDead()
			died = true
		} else {
			t.Behavior = t.Behavior.EnterCombat().Add(flags.Damaged)
			if t.HP <= t.MaxHP*retreatHPFraction {
				t.Behavior = t.Behavior.Add(flags.Retreating)
			}
		}
	})
	if !ok {
		// Despawn race: no damage landed, so no events either.
		return nil
	}

	e.store.Mutate(rel.attacker.ID, func(a *state.Record) {
		a.LastAttackMS = nowMS
		a.Behavior = a.Behavior.EnterCombat().StartAttack()
	})

	if died {
		deadThisTick[rel.target.ID] = struct{}{}
	}

	attack := events.Event{
		Type:         events.TypeAttack,
		Attacker:     rel.attacker.ID,
		Target:       rel.target.ID,
		AttackerAnim: "attack",
		TargetX:      tx,
		TargetY:      ty,
	}
	outcome := events.Event{
		Type:       events.TypeDamage,
		Attacker:   rel.attacker.ID,
		Target:     rel.target.ID,
		Amount:     dmg,
		TargetAnim: "hurt",
		TargetX:    tx,
		TargetY:    ty,
	}
	if died {
		outcome.Type = events.TypeDeath
		outcome.TargetAnim = "death"
	}
	return []events.Event{attack, outcome}
}

// resolveHeal restores HP to a wounded friend, clamped at max.
func (e *Engine) resolveHeal(rel relationship, nowMS int64) []events.Event {
	amount := math.Max(1, rel.attacker.Attack/2)

	var healed float64
	var tx, ty float64
	ok := e.store.Mutate(rel.target.ID, func(t *state.Record) {
		before := t.HP
		t.HP = math.Min(t.MaxHP, t.HP+amount)
		healed = t.HP - before
		if t.HP > t.MaxHP*retreatHPFraction {
			t.Behavior = t.Behavior.Remove(flags.Retreating)
		}
		tx, ty = t.X, t.Y
	})
	if !ok || healed <= 0 {
		return nil
	}

	e.store.Mutate(rel.attacker.ID, func(a *state.Record) {
		a.LastAttackMS = nowMS
	})

	return []events.Event{{
		Type:       events.TypeHeal,
		Attacker:   rel.attacker.ID,
		Target:     rel.target.ID,
		Amount:     healed,
		TargetAnim: "heal",
		TargetX:    tx,
		TargetY:    ty,
	}}
}

// attackRange maps a combat category to its reach.
func (e *Engine) attackRange(s flags.Static) float64 {
	switch {
	case s.Has(flags.Melee):
		return e.cfg.MeleeRange
	case s.Has(flags.Ranged):
		return e.cfg.RangedRange
	case s.Has(flags.Magic), s.Has(flags.Healer):
		return e.cfg.MagicRange
	default:
		return e.cfg.MeleeRange
	}
}

// CalculateDamage is the damage formula: attack minus half the defense,
// floored at 1 so a hit always costs something.
func CalculateDamage(attack, defense float64) float64 {
	return math.Max(1, attack-defense/2)
}

func distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}
