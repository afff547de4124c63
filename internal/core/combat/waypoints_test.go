package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirmish/skirmish/internal/core/config"
	"github.com/skirmish/skirmish/internal/core/flags"
	"github.com/skirmish/skirmish/internal/core/ident"
	"github.com/skirmish/skirmish/internal/core/state"
)

func TestWaypointPursuesNearestHostile(t *testing.T) {
	eng, store, _ := newTestEngine(t)

	warrior := spawn(t, store, flags.Melee|flags.Ally, 100, 100, 100, 15, 5)
	spawn(t, store, flags.Melee|flags.Monster, 300, 100, 50, 8, 3)
	spawn(t, store, flags.Melee|flags.Monster, 420, 100, 50, 8, 3)

	x, y, ok := eng.Waypoint(warrior)
	require.True(t, ok)
	assert.Equal(t, float64(300), x)
	assert.Equal(t, float64(100), y)
}

func TestWaypointHoldsWithNoHostileInAggroRange(t *testing.T) {
	eng, store, _ := newTestEngine(t)

	warrior := spawn(t, store, flags.Melee|flags.Ally, 100, 100, 100, 15, 5)
	spawn(t, store, flags.Melee|flags.Monster, 1500, 1000, 50, 8, 3)

	_, _, ok := eng.Waypoint(warrior)
	assert.False(t, ok)
}

func TestWaypointHoldsWhileAttackingOrDamagedOrDead(t *testing.T) {
	eng, store, _ := newTestEngine(t)

	warrior := spawn(t, store, flags.Melee|flags.Ally, 100, 100, 100, 15, 5)
	spawn(t, store, flags.Melee|flags.Monster, 300, 100, 50, 8, 3)

	for _, b := range []flags.Behavior{flags.Attacking, flags.Damaged, flags.Dead} {
		store.Mutate(warrior, func(r *state.Record) { r.Behavior = flags.Idle.Add(b) })
		store.Sync()
		_, _, ok := eng.Waypoint(warrior)
		assert.False(t, ok, "behavior %s should hold position", b)
	}
}

func TestWaypointHoldsWhenTargetAlreadyInReach(t *testing.T) {
	eng, store, _ := newTestEngine(t)

	warrior := spawn(t, store, flags.Melee|flags.Ally, 100, 100, 100, 15, 5)
	spawn(t, store, flags.Melee|flags.Monster, 120, 100, 50, 8, 3)

	_, _, ok := eng.Waypoint(warrior)
	assert.False(t, ok)
}

func TestWaypointRetreatMovesAwayClamped(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	eng.SetWorldBounds(config.Bounds{MinX: 0, MaxX: 200, MinY: 0, MaxY: 200})

	runner := spawn(t, store, flags.Melee|flags.Ally, 100, 100, 100, 15, 5)
	store.Mutate(runner, func(r *state.Record) {
		r.Behavior = r.Behavior.Add(flags.Retreating)
	})
	store.Sync()
	spawn(t, store, flags.Melee|flags.Monster, 150, 100, 50, 8, 3)

	x, y, ok := eng.Waypoint(runner)
	require.True(t, ok)
	// Away from the enemy along -X, clamped at the world edge.
	assert.Equal(t, float64(0), x)
	assert.Equal(t, float64(100), y)
}

func TestWaypointClampsPursuitToBounds(t *testing.T) {
	store := state.NewStore()
	cfg := config.Default()
	cfg.WorldBounds = config.Bounds{MinX: 0, MaxX: 150, MinY: 0, MaxY: 150}
	eng := NewEngine(store, nil, cfg, nil)

	warrior := spawn(t, store, flags.Melee|flags.Ally, 10, 10, 100, 15, 5)
	spawn(t, store, flags.Melee|flags.Monster, 180, 180, 50, 8, 3)

	x, y, ok := eng.Waypoint(warrior)
	require.True(t, ok)
	assert.Equal(t, float64(150), x)
	assert.Equal(t, float64(150), y)
}

func TestWaypointUnknownEntity(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	_, _, ok := eng.Waypoint(ident.New())
	assert.False(t, ok)
}
