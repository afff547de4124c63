package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirmish/skirmish/internal/core/config"
	"github.com/skirmish/skirmish/internal/core/events"
	"github.com/skirmish/skirmish/internal/core/flags"
	"github.com/skirmish/skirmish/internal/core/ident"
	"github.com/skirmish/skirmish/internal/core/pool"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return New(config.Default(), nil)
}

var goblinArch = Archetype{
	Static: flags.Melee | flags.Monster,
	MaxHP:  50, Attack: 8, Defense: 3,
}

func TestSpawnAndDespawn(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.RegisterKind("goblin", 4, goblinArch))

	id, err := s.Spawn("goblin", 100, 200)
	require.NoError(t, err)
	assert.False(t, id.IsZero())

	x, y, ok := s.GetPosition(id)
	require.True(t, ok)
	assert.Equal(t, float64(100), x)
	assert.Equal(t, float64(200), y)

	hp, max, ok := s.GetHP(id)
	require.True(t, ok)
	assert.Equal(t, float64(50), hp)
	assert.Equal(t, float64(50), max)

	name, ok := s.GetName(id)
	require.True(t, ok)
	assert.NotEmpty(t, name)

	active, free, capacity := s.PoolStats("goblin")
	assert.Equal(t, 1, active)
	assert.Equal(t, 3, free)
	assert.Equal(t, 4, capacity)

	assert.True(t, s.Despawn(id))
	assert.False(t, s.Despawn(id))

	_, _, ok = s.GetHP(id)
	assert.False(t, ok)

	active, free, _ = s.PoolStats("goblin")
	assert.Equal(t, 0, active)
	assert.Equal(t, 4, free)
}

func TestRegisterKindCapacityFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Pools = []config.PoolConfig{{Kind: "goblin", Capacity: 3}}
	s := New(cfg, nil)

	require.NoError(t, s.RegisterKind("goblin", 0, goblinArch))
	_, _, capacity := s.PoolStats("goblin")
	assert.Equal(t, 3, capacity)

	// Kinds absent from the config fall back to the default size.
	require.NoError(t, s.RegisterKind("warrior", 0, goblinArch))
	_, _, capacity = s.PoolStats("warrior")
	assert.Equal(t, defaultPoolCapacity, capacity)

	// An explicit capacity always wins.
	require.NoError(t, s.RegisterKind("archer", 7, goblinArch))
	_, _, capacity = s.PoolStats("archer")
	assert.Equal(t, 7, capacity)
}

func TestSpawnUnknownKind(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Spawn("dragon", 0, 0)
	assert.ErrorIs(t, err, pool.ErrUnknownKind)
}

func TestSpawnSetsSpawningFlag(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.RegisterKind("goblin", 1, goblinArch))

	id, err := s.Spawn("goblin", 0, 0)
	require.NoError(t, err)

	b, ok := s.GetBehavior(id)
	require.True(t, ok)
	assert.True(t, b.Has(flags.Spawning))

	assert.True(t, s.ClearSpawnState(id))
	s.Sync()
	b, _ = s.GetBehavior(id)
	assert.False(t, b.Has(flags.Spawning))
}

func TestRegisterIsIdempotent(t *testing.T) {
	s := newTestSession(t)
	id := ident.New()
	p := Params{
		Kind: "warrior", Static: flags.Melee | flags.Ally,
		X: 10, Y: 10, HasPos: true,
		MaxHP: 100, Attack: 15, Defense: 5,
	}

	assert.True(t, s.Register(id, p))
	assert.False(t, s.Register(id, p))
	assert.False(t, s.Register(ident.Zero, p))

	assert.True(t, s.Unregister(id))
	assert.False(t, s.Unregister(id))
}

func TestGettersReturnZeroForUnknown(t *testing.T) {
	s := newTestSession(t)
	id := ident.New()

	hp, max, ok := s.GetHP(id)
	assert.False(t, ok)
	assert.Zero(t, hp)
	assert.Zero(t, max)

	_, _, ok = s.GetPosition(id)
	assert.False(t, ok)

	_, ok = s.GetBehavior(id)
	assert.False(t, ok)

	_, ok = s.GetName(id)
	assert.False(t, ok)

	assert.False(t, s.UpdatePosition(id, 1, 1))
	assert.False(t, s.ApplyDamage(id, 5))
	assert.False(t, s.ApplyHealing(id, 5))
	assert.False(t, s.ClearAttackingState(id))
	assert.False(t, s.ClearDamagedState(id))
}

func TestApplyDamageAndDeath(t *testing.T) {
	s := newTestSession(t)
	id := ident.New()
	require.True(t, s.Register(id, Params{
		Kind: "warrior", Static: flags.Melee | flags.Ally,
		HasPos: true, MaxHP: 30,
	}))

	require.True(t, s.ApplyDamage(id, 10))
	s.Sync()
	hp, _, _ := s.GetHP(id)
	assert.Equal(t, float64(20), hp)

	b, _ := s.GetBehavior(id)
	assert.True(t, b.Has(flags.Damaged))

	evs := s.PollEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeDamage, evs[0].Type)
	assert.True(t, evs[0].Attacker.IsZero())

	// Overkill floors at zero and flips the terminal flag.
	require.True(t, s.ApplyDamage(id, 999))
	s.Sync()
	hp, _, _ = s.GetHP(id)
	assert.Zero(t, hp)
	b, _ = s.GetBehavior(id)
	assert.Equal(t, flags.Dead, b.Activity())

	evs = s.PollEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeDeath, evs[0].Type)

	// The dead take no further damage and emit nothing.
	assert.False(t, s.ApplyDamage(id, 5))
	assert.Empty(t, s.PollEvents())
}

func TestApplyHealingClampsAtMax(t *testing.T) {
	s := newTestSession(t)
	id := ident.New()
	require.True(t, s.Register(id, Params{
		Kind: "warrior", Static: flags.Melee | flags.Ally,
		HasPos: true, MaxHP: 100,
	}))
	require.True(t, s.ApplyDamage(id, 30))
	s.PollEvents()

	require.True(t, s.ApplyHealing(id, 50))
	s.Sync()
	hp, _, _ := s.GetHP(id)
	assert.Equal(t, float64(100), hp)

	evs := s.PollEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeHeal, evs[0].Type)
	assert.Equal(t, float64(30), evs[0].Amount)

	// Already full: nothing restored, nothing emitted.
	assert.False(t, s.ApplyHealing(id, 10))
	assert.Empty(t, s.PollEvents())
}

func TestClearStateHelpers(t *testing.T) {
	s := newTestSession(t)
	id := ident.New()
	require.True(t, s.Register(id, Params{
		Kind: "warrior", Static: flags.Melee | flags.Ally,
		HasPos: true, MaxHP: 100,
	}))

	require.True(t, s.ApplyDamage(id, 5))
	s.Sync()
	b, _ := s.GetBehavior(id)
	require.True(t, b.Has(flags.Damaged))

	assert.True(t, s.ClearDamagedState(id))
	s.Sync()
	b, _ = s.GetBehavior(id)
	assert.False(t, b.Has(flags.Damaged))
}

func TestActiveCombatants(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.RegisterKind("goblin", 4, goblinArch))

	a, err := s.Spawn("goblin", 0, 0)
	require.NoError(t, err)
	_, err = s.Spawn("goblin", 10, 10)
	require.NoError(t, err)

	assert.Len(t, s.ActiveCombatants(), 2)

	require.True(t, s.ApplyDamage(a, 999))
	s.Sync()
	assert.Len(t, s.ActiveCombatants(), 1)
}

func TestTickLoopThroughSession(t *testing.T) {
	cfg := config.Default()
	cfg.TickInterval = time.Millisecond
	s := New(cfg, nil)

	require.True(t, s.Register(ident.New(), Params{
		Kind: "warrior", Static: flags.Melee | flags.Ally,
		X: 100, Y: 100, HasPos: true, MaxHP: 100, Attack: 15, Defense: 5,
	}))
	require.True(t, s.Register(ident.New(), Params{
		Kind: "goblin", Static: flags.Melee | flags.Monster,
		X: 110, Y: 100, HasPos: true, MaxHP: 500, Attack: 8, Defense: 3,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.StartTickLoop(ctx)
	assert.True(t, s.TickRunning())

	assert.Eventually(t, func() bool {
		return len(s.PollEvents()) > 0
	}, time.Second, 5*time.Millisecond)

	s.StopTickLoop()
	assert.False(t, s.TickRunning())
}

func TestSnapshotCopiesRecords(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.RegisterKind("goblin", 2, goblinArch))
	_, err := s.Spawn("goblin", 5, 5)
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	snap[0].HP = -1

	hp, _, _ := s.GetHP(snap[0].ID)
	assert.Equal(t, float64(50), hp)
}
