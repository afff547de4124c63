package pool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skirmish/skirmish/internal/core/observability/log"
)

type fakePayload struct {
	resets int
	dirty  bool
}

func (f *fakePayload) Reset() {
	f.resets++
	f.dirty = false
}

func newManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(log.Nop())
}

func TestRegisterAndAcquire(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.Register("warrior", 2, func() Payload { return &fakePayload{} }))

	require.Equal(t, 2, m.Capacity("warrior"))
	require.Equal(t, 2, m.Free("warrior"))

	s, err := m.Acquire("warrior")
	require.NoError(t, err)
	require.Equal(t, "warrior", s.Kind())
	require.Equal(t, 1, m.Active("warrior"))
	require.Equal(t, 1, m.Free("warrior"))
}

func TestRegisterValidation(t *testing.T) {
	m := newManager(t)
	require.Error(t, m.Register("bad", 0, func() Payload { return &fakePayload{} }))
	require.Error(t, m.Register("bad", 2, nil))

	require.NoError(t, m.Register("goblin", 1, func() Payload { return &fakePayload{} }))
	err := m.Register("goblin", 1, func() Payload { return &fakePayload{} })
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestAcquireUnknownKind(t *testing.T) {
	m := newManager(t)
	_, err := m.Acquire("ghost")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestAcquireResetsPreviousOccupantState(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.Register("warrior", 1, func() Payload { return &fakePayload{} }))

	s, err := m.Acquire("warrior")
	require.NoError(t, err)
	s.Payload().(*fakePayload).dirty = true
	m.Release(s)

	s2, err := m.Acquire("warrior")
	require.NoError(t, err)
	require.False(t, s2.Payload().(*fakePayload).dirty, "recycled slot must come back clean")
}

func TestExhaustionExpandsOnceThenRecovers(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.Register("goblin", 2, func() Payload { return &fakePayload{} }))

	s1, err := m.Acquire("goblin")
	require.NoError(t, err)
	s2, err := m.Acquire("goblin")
	require.NoError(t, err)

	// Third acquire triggers the emergency expansion.
	s3, err := m.Acquire("goblin")
	require.NoError(t, err)
	require.Equal(t, 3, m.Capacity("goblin"))
	require.Equal(t, 3, m.Active("goblin"))

	// After releasing everything, all slots are reusable.
	m.Release(s1)
	m.Release(s2)
	m.Release(s3)
	require.Equal(t, 0, m.Active("goblin"))
	require.Equal(t, 3, m.Free("goblin"))

	for i := 0; i < 3; i++ {
		_, err := m.Acquire("goblin")
		require.NoError(t, err)
	}
}

func TestExpansionFailureIsExhausted(t *testing.T) {
	m := newManager(t)
	calls := 0
	require.NoError(t, m.Register("golem", 1, func() Payload {
		calls++
		if calls > 1 {
			return nil // expansion fails
		}
		return &fakePayload{}
	}))

	_, err := m.Acquire("golem")
	require.NoError(t, err)

	_, err = m.Acquire("golem")
	require.ErrorIs(t, err, ErrExhausted)
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.Register("warrior", 1, func() Payload { return &fakePayload{} }))

	s, err := m.Acquire("warrior")
	require.NoError(t, err)

	m.Release(s)
	m.Release(s)
	m.Release(nil)
	require.Equal(t, 1, m.Free("warrior"))
	require.Equal(t, 0, m.Active("warrior"))
}
