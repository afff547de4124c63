// Package session is the host boundary. A Session owns one simulation:
// its state store, its pools, its event queue, and its tick engine. Hosts
// create one Session per game session and talk to nothing else.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/skirmish/skirmish/internal/core/combat"
	"github.com/skirmish/skirmish/internal/core/config"
	"github.com/skirmish/skirmish/internal/core/events"
	"github.com/skirmish/skirmish/internal/core/flags"
	"github.com/skirmish/skirmish/internal/core/ident"
	"github.com/skirmish/skirmish/internal/core/namegen"
	"github.com/skirmish/skirmish/internal/core/observability/log"
	"github.com/skirmish/skirmish/internal/core/pool"
	"github.com/skirmish/skirmish/internal/core/state"
)

// Damageable is the HP surface hosts wire their damage sources to.
type Damageable interface {
	ApplyDamage(id ident.ID, amount float64) bool
	ApplyHealing(id ident.ID, amount float64) bool
	GetHP(id ident.ID) (hp, max float64, ok bool)
}

// Mobile is the movement surface.
type Mobile interface {
	UpdatePosition(id ident.ID, x, y float64) bool
	GetPosition(id ident.ID) (x, y float64, ok bool)
	GetWaypoint(id ident.ID) (x, y float64, ok bool)
}

// Named resolves entity display names.
type Named interface {
	GetName(id ident.ID) (string, bool)
}

var (
	_ Damageable = (*Session)(nil)
	_ Mobile     = (*Session)(nil)
	_ Named      = (*Session)(nil)
)

// Archetype is the stat template a kind spawns from.
type Archetype struct {
	Static  flags.Static
	MaxHP   float64
	Attack  float64
	Defense float64
}

// Params describes an externally managed entity for Register.
type Params struct {
	Name     string
	Kind     string
	Static   flags.Static
	Behavior flags.Behavior
	X, Y     float64
	HasPos   bool
	MaxHP    float64
	Attack   float64
	Defense  float64
}

// spawnToken is the pool payload for spawned entities. It carries nothing
// but its liveness; the record itself lives in the store.
type spawnToken struct {
	id ident.ID
}

func (p *spawnToken) Reset() { p.id = ident.Zero }

// Session is safe for concurrent use by the host and the tick loop.
type Session struct {
	store  *state.Store
	queue  *events.Queue
	engine *combat.Engine
	pools  *pool.Manager
	logger log.Log

	archMx     sync.RWMutex
	archetypes map[string]Archetype
	poolSizes  map[string]int
}

// defaultPoolCapacity sizes pools for kinds the config does not mention.
const defaultPoolCapacity = 64

// New builds a fully wired session from a validated config.
func New(cfg config.Config, logger log.Log) *Session {
	if logger == nil {
		logger = log.Nop()
	}
	store := state.NewStore()
	queue := events.NewQueue(cfg.EventQueueCapacity)
	poolSizes := make(map[string]int, len(cfg.Pools))
	for _, p := range cfg.Pools {
		poolSizes[p.Kind] = p.Capacity
	}
	return &Session{
		store:      store,
		queue:      queue,
		engine:     combat.NewEngine(store, queue, cfg, logger),
		pools:      pool.NewManager(logger),
		logger:     logger,
		archetypes: make(map[string]Archetype),
		poolSizes:  poolSizes,
	}
}

// RegisterKind declares a spawnable kind: its stat template and how many
// live entities of it the pool allows. Capacity zero defers to the pools
// section of the config, or to defaultPoolCapacity if the kind is not
// configured there.
func (s *Session) RegisterKind(kind string, capacity int, a Archetype) error {
	if capacity <= 0 {
		capacity = s.poolSizes[kind]
	}
	if capacity <= 0 {
		capacity = defaultPoolCapacity
	}
	if err := s.pools.Register(kind, capacity, func() pool.Payload { return &spawnToken{} }); err != nil {
		return err
	}
	s.archMx.Lock()
	s.archetypes[kind] = a
	s.archMx.Unlock()
	return nil
}

// Spawn acquires a pool slot for the kind, names the entity, and registers
// it at the given position.
func (s *Session) Spawn(kind string, x, y float64) (ident.ID, error) {
	s.archMx.RLock()
	arch, known := s.archetypes[kind]
	s.archMx.RUnlock()
	if !known {
		return ident.Zero, fmt.Errorf("%w: %s", pool.ErrUnknownKind, kind)
	}

	slot, err := s.pools.Acquire(kind)
	if err != nil {
		return ident.Zero, err
	}

	id := ident.New()
	if tok, ok := slot.Payload().(*spawnToken); ok {
		tok.id = id
	}

	s.store.Put(&state.Record{
		ID:       id,
		Name:     namegen.Generate(kind),
		Kind:     kind,
		Static:   arch.Static,
		Behavior: flags.Idle.Add(flags.Spawning),
		X:        x, Y: y, HasPos: true,
		HP: arch.MaxHP, MaxHP: arch.MaxHP,
		Attack: arch.Attack, Defense: arch.Defense,
		Slot: slot,
	})
	s.store.Sync()

	s.logger.Debug("entity spawned",
		log.String("id", id.String()),
		log.String("kind", kind),
	)
	return id, nil
}

// Despawn removes the entity and returns its pool slot. Idempotent.
func (s *Session) Despawn(id ident.ID) bool {
	r, ok := s.store.Get(id)
	if !ok {
		return false
	}
	if slot, isPooled := r.Slot.(*pool.Slot); isPooled {
		s.pools.Release(slot)
	}
	return s.store.Remove(id)
}

// Register adds an externally managed entity under a host-chosen ID.
// Registering an ID that already exists is a no-op.
func (s *Session) Register(id ident.ID, p Params) bool {
	if id.IsZero() || s.store.Contains(id) {
		return false
	}
	name := p.Name
	if name == "" {
		name = namegen.Generate(p.Kind)
	}
	behavior := p.Behavior
	if behavior == 0 {
		behavior = flags.Idle
	}
	s.store.Put(&state.Record{
		ID:       id,
		Name:     name,
		Kind:     p.Kind,
		Static:   p.Static,
		Behavior: behavior,
		X:        p.X, Y: p.Y, HasPos: p.HasPos,
		HP: p.MaxHP, MaxHP: p.MaxHP,
		Attack: p.Attack, Defense: p.Defense,
	})
	s.store.Sync()
	return true
}

// Unregister removes an entity without touching the pools. Idempotent.
func (s *Session) Unregister(id ident.ID) bool {
	return s.store.Remove(id)
}

// StartTickLoop launches the combat loop. No-op if already running.
func (s *Session) StartTickLoop(ctx context.Context) {
	s.engine.Start(ctx)
}

// StopTickLoop stops the loop and waits for the in-flight tick.
func (s *Session) StopTickLoop() {
	s.engine.Stop()
}

// TickRunning reports whether the combat loop is live.
func (s *Session) TickRunning() bool { return s.engine.Running() }

// SetWorldBounds replaces the waypoint clamp rectangle.
func (s *Session) SetWorldBounds(b config.Bounds) {
	s.engine.SetWorldBounds(b)
}

// UpdatePosition streams a host-side position into the store. The new
// position reaches the lock-free read path at the next reconcile, at
// latest one tick later.
func (s *Session) UpdatePosition(id ident.ID, x, y float64) bool {
	return s.store.Mutate(id, func(r *state.Record) {
		r.X, r.Y = x, y
		r.HasPos = true
	})
}

// GetPosition returns the last reconciled position.
func (s *Session) GetPosition(id ident.ID) (x, y float64, ok bool) {
	r, found := s.store.Get(id)
	if !found || !r.HasPos {
		return 0, 0, false
	}
	return r.X, r.Y, true
}

// GetWaypoint asks the engine where the entity should move next.
func (s *Session) GetWaypoint(id ident.ID) (x, y float64, ok bool) {
	return s.engine.Waypoint(id)
}

// GetHP returns current and maximum HP.
func (s *Session) GetHP(id ident.ID) (hp, max float64, ok bool) {
	r, found := s.store.Get(id)
	if !found {
		return 0, 0, false
	}
	return r.HP, r.MaxHP, true
}

// GetBehavior returns the entity's behavior bits.
func (s *Session) GetBehavior(id ident.ID) (flags.Behavior, bool) {
	r, found := s.store.Get(id)
	if !found {
		return 0, false
	}
	return r.Behavior, true
}

// GetName returns the entity's display name.
func (s *Session) GetName(id ident.ID) (string, bool) {
	r, found := s.store.Get(id)
	if !found {
		return "", false
	}
	return r.Name, true
}

// ActiveCombatants lists every entity that would be considered for
// pairing on the next tick.
func (s *Session) ActiveCombatants() []ident.ID {
	var out []ident.ID
	for _, r := range s.store.Snapshot() {
		if r.Alive() && r.Ready() {
			out = append(out, r.ID)
		}
	}
	return out
}

// ApplyDamage lands host-sourced damage: HP floors at zero, death flips
// the terminal flag, and a damage or death event is emitted with a zero
// attacker.
func (s *Session) ApplyDamage(id ident.ID, amount float64) bool {
	if amount <= 0 {
		return false
	}
	var applied, died bool
	var tx, ty float64
	ok := s.store.Mutate(id, func(r *state.Record) {
		if r.Behavior.Has(flags.Dead) {
			return
		}
		applied = true
		r.HP = r.HP - amount
		if r.HP <= 0 {
			r.HP = 0
			r.Behavior = r.Behavior.MarkDead()
			died = true
		} else {
			r.Behavior = r.Behavior.Add(flags.Damaged)
		}
		tx, ty = r.X, r.Y
	})
	if !ok || !applied {
		return false
	}

	ev := events.Event{
		Type:       events.TypeDamage,
		Target:     id,
		Amount:     amount,
		TargetAnim: "hurt",
		TargetX:    tx,
		TargetY:    ty,
	}
	if died {
		ev.Type = events.TypeDeath
		ev.TargetAnim = "death"
	}
	s.queue.Push(ev)
	return true
}

// ApplyHealing restores HP up to max and emits a heal event for the
// amount actually restored.
func (s *Session) ApplyHealing(id ident.ID, amount float64) bool {
	if amount <= 0 {
		return false
	}
	var healed float64
	var tx, ty float64
	ok := s.store.Mutate(id, func(r *state.Record) {
		if r.Behavior.Has(flags.Dead) {
			return
		}
		before := r.HP
		r.HP = min(r.MaxHP, r.HP+amount)
		healed = r.HP - before
		tx, ty = r.X, r.Y
	})
	if !ok || healed <= 0 {
		return false
	}

	s.queue.Push(events.Event{
		Type:       events.TypeHeal,
		Target:     id,
		Amount:     healed,
		TargetAnim: "heal",
		TargetX:    tx,
		TargetY:    ty,
	})
	return true
}

// ClearAttackingState drops the attacking bit after the host finishes the
// swing animation.
func (s *Session) ClearAttackingState(id ident.ID) bool {
	return s.store.Mutate(id, func(r *state.Record) {
		r.Behavior = r.Behavior.StopAttack()
	})
}

// ClearDamagedState drops the hit-reaction bit.
func (s *Session) ClearDamagedState(id ident.ID) bool {
	return s.store.Mutate(id, func(r *state.Record) {
		r.Behavior = r.Behavior.Remove(flags.Damaged)
	})
}

// ClearSpawnState marks spawn-in as complete.
func (s *Session) ClearSpawnState(id ident.ID) bool {
	return s.store.Mutate(id, func(r *state.Record) {
		r.Behavior = r.Behavior.Remove(flags.Spawning)
	})
}

// PollEvents drains everything emitted since the previous poll, oldest
// first. Returns nil when there is nothing pending.
func (s *Session) PollEvents() []events.Event {
	return s.queue.DrainAll()
}

// DroppedEvents reports how many events were lost to queue overflow.
func (s *Session) DroppedEvents() uint64 { return s.queue.Dropped() }

// Sync flushes pending writes into the lock-free read path. The tick
// loop does this every tick; hosts only need it when the loop is stopped
// and they want read-your-writes on the getters.
func (s *Session) Sync() { s.store.Sync() }

// Snapshot returns copies of every record for presentation layers.
func (s *Session) Snapshot() []state.Record {
	recs := s.store.Snapshot()
	out := make([]state.Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, *r)
	}
	return out
}

// PoolStats reports active/free/capacity for a registered kind.
func (s *Session) PoolStats(kind string) (active, free, capacity int) {
	return s.pools.Active(kind), s.pools.Free(kind), s.pools.Capacity(kind)
}
