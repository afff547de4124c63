// Package events carries combat outcomes from the tick engine to the host.
package events

import (
	"encoding/json"

	"github.com/skirmish/skirmish/internal/core/ident"
)

// Type tags an event variant.
type Type string

const (
	TypeAttack Type = "attack"
	TypeDamage Type = "damage"
	TypeDeath  Type = "death"
	TypeHeal   Type = "heal"
)

// Event is one combat outcome. Immutable once emitted; the host consumes
// each event at most once via DrainAll.
type Event struct {
	Type     Type
	Attacker ident.ID
	Target   ident.ID

	// Amount is the damage dealt or HP restored. Zero for attack events.
	Amount float64

	// Target position at emission time, for projectiles and effects.
	TargetX float64
	TargetY float64

	// Animation hints for the presentation layer.
	AttackerAnim string
	TargetAnim   string
}

// wire is the JSON shape with hex identities, used by hosts that
// serialize events (for example the demo server's websocket feed).
type wire struct {
	Type         Type    `json:"event_type"`
	Attacker     string  `json:"attacker_id"`
	Target       string  `json:"target_id"`
	Amount       float64 `json:"amount"`
	TargetX      float64 `json:"target_x"`
	TargetY      float64 `json:"target_y"`
	AttackerAnim string  `json:"attacker_animation,omitempty"`
	TargetAnim   string  `json:"target_animation,omitempty"`
}

// MarshalJSON renders identities in their hex string form.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{
		Type:         e.Type,
		Attacker:     e.Attacker.String(),
		Target:       e.Target.String(),
		Amount:       e.Amount,
		TargetX:      e.TargetX,
		TargetY:      e.TargetY,
		AttackerAnim: e.AttackerAnim,
		TargetAnim:   e.TargetAnim,
	})
}
