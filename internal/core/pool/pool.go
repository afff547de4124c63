// Package pool manages fixed-capacity, per-kind pools of reusable entity
// slots. Slots cycle Free -> Active -> Free; capacity is fixed at
// registration with one emergency expansion allowed per exhaustion event.
package pool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/skirmish/skirmish/internal/core/observability/log"
)

var (
	// ErrExhausted reports that a pool is empty even after its emergency
	// expansion. Callers surface it as a spawn failure.
	ErrExhausted = errors.New("pool: exhausted")

	// ErrUnknownKind reports an acquire against an unregistered kind.
	ErrUnknownKind = errors.New("pool: unknown kind")

	// ErrAlreadyRegistered reports a duplicate pool registration.
	ErrAlreadyRegistered = errors.New("pool: kind already registered")
)

// Payload is the host object carried by a slot. Reset must return it to a
// neutral state; it runs on every acquire so a reused slot never leaks its
// previous occupant's state.
type Payload interface {
	Reset()
}

// Factory creates a fresh payload for a slot.
type Factory func() Payload

// Slot is one reusable container, bound to a single kind for life.
type Slot struct {
	kind    string
	payload Payload
	active  bool
}

// Kind returns the entity kind this slot belongs to.
func (s *Slot) Kind() string { return s.kind }

// Payload returns the host object held by the slot.
func (s *Slot) Payload() Payload { return s.payload }

type kindPool struct {
	kind     string
	capacity int
	free     []*Slot
	active   int
}

// Manager owns every registered pool. Pools are partitioned by kind; a
// slot never migrates between kinds.
type Manager struct {
	mx         sync.Mutex
	pools      map[string]*kindPool
	factoryMap map[string]Factory
	logger     log.Log
}

// NewManager creates an empty pool manager.
func NewManager(logger log.Log) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		pools:      make(map[string]*kindPool),
		factoryMap: make(map[string]Factory),
		logger:     logger,
	}
}

// Register creates a pool of capacity slots for kind, pre-building every
// payload up front so acquire never pays construction cost.
func (m *Manager) Register(kind string, capacity int, factory Factory) error {
	if capacity <= 0 {
		return fmt.Errorf("pool: capacity must be positive, got %d", capacity)
	}
	if factory == nil {
		return errors.New("pool: nil factory")
	}

	m.mx.Lock()
	defer m.mx.Unlock()

	if _, exists := m.pools[kind]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, kind)
	}

	p := &kindPool{kind: kind, capacity: capacity}
	for i := 0; i < capacity; i++ {
		p.free = append(p.free, &Slot{kind: kind, payload: factory()})
	}
	m.pools[kind] = p
	m.factoryMap[kind] = factory

	m.logger.Info("pool registered",
		log.String("kind", kind),
		log.Int("capacity", capacity),
	)
	return nil
}

// Acquire hands out a free slot for kind with its payload freshly reset.
// On exhaustion the pool warns and grows by exactly one slot; only when
// that also fails does the caller see ErrExhausted.
func (m *Manager) Acquire(kind string) (*Slot, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	p, ok := m.pools[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	if len(p.free) == 0 {
		m.logger.Warn("pool exhausted, attempting emergency expansion",
			log.String("kind", kind),
			log.Int("capacity", p.capacity),
		)
		factory := m.factoryMap[kind]
		payload := factory()
		if payload == nil {
			return nil, fmt.Errorf("%w: %s (expansion failed)", ErrExhausted, kind)
		}
		p.free = append(p.free, &Slot{kind: kind, payload: payload})
		p.capacity++
	}

	s := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	s.active = true
	s.payload.Reset()
	p.active++
	return s, nil
}

// Release returns a slot to its pool's free list. Releasing an already
// free or nil slot is a no-op.
func (m *Manager) Release(s *Slot) {
	if s == nil {
		return
	}
	m.mx.Lock()
	defer m.mx.Unlock()

	if !s.active {
		return
	}
	p, ok := m.pools[s.kind]
	if !ok {
		return
	}
	s.active = false
	p.free = append(p.free, s)
	p.active--
}

// Active returns the number of slots currently handed out for kind.
func (m *Manager) Active(kind string) int {
	m.mx.Lock()
	defer m.mx.Unlock()
	if p, ok := m.pools[kind]; ok {
		return p.active
	}
	return 0
}

// Free returns the number of available slots for kind.
func (m *Manager) Free(kind string) int {
	m.mx.Lock()
	defer m.mx.Unlock()
	if p, ok := m.pools[kind]; ok {
		return len(p.free)
	}
	return 0
}

// Capacity returns the current capacity for kind, including any emergency
// expansions.
func (m *Manager) Capacity(kind string) int {
	m.mx.Lock()
	defer m.mx.Unlock()
	if p, ok := m.pools[kind]; ok {
		return p.capacity
	}
	return 0
}
