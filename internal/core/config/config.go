// Package config holds the tunable parameters of the simulation core.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Bounds is the host-supplied world rectangle waypoints are clamped to.
type Bounds struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

// PoolConfig sizes one entity-kind pool.
type PoolConfig struct {
	Kind     string `json:"kind" yaml:"kind"`
	Capacity int    `json:"capacity" yaml:"capacity"`
}

// Config is the full engine configuration. The range and cooldown values
// are gameplay tunables, not physical constants.
type Config struct {
	// TickInterval is the fixed combat tick period.
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`

	// AttackCooldownMS is the minimum gap between an attacker's
	// successive attacks, in wall-clock milliseconds.
	AttackCooldownMS int64 `json:"attack_cooldown_ms" yaml:"attack_cooldown_ms"`

	// Attack ranges by combat category, in world units.
	MeleeRange  float64 `json:"melee_range" yaml:"melee_range"`
	RangedRange float64 `json:"ranged_range" yaml:"ranged_range"`
	MagicRange  float64 `json:"magic_range" yaml:"magic_range"`

	// AggroRange is how far an entity looks for hostiles to pursue.
	AggroRange float64 `json:"aggro_range" yaml:"aggro_range"`

	// EventQueueCapacity bounds the engine->host event queue; the
	// oldest events are dropped past it.
	EventQueueCapacity int `json:"event_queue_capacity" yaml:"event_queue_capacity"`

	// WorldBounds clamps every waypoint the engine hands out.
	WorldBounds Bounds `json:"world_bounds" yaml:"world_bounds"`

	// Pools pre-sizes the per-kind entity pools.
	Pools []PoolConfig `json:"pools,omitempty" yaml:"pools,omitempty"`
}

// Default returns the tuned defaults: a 60 Hz tick, 1s cooldown, and the
// melee/magic/ranged reaches the combat balance was built around.
func Default() Config {
	return Config{
		TickInterval:       time.Second / 60,
		AttackCooldownMS:   1000,
		MeleeRange:         50,
		RangedRange:        200,
		MagicRange:         150,
		AggroRange:         400,
		EventQueueCapacity: 4096,
		WorldBounds:        Bounds{MinX: 0, MaxX: 1920, MinY: 0, MaxY: 1080},
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.AttackCooldownMS < 0 {
		return fmt.Errorf("config: attack_cooldown_ms must not be negative, got %d", c.AttackCooldownMS)
	}
	if c.MeleeRange <= 0 || c.RangedRange <= 0 || c.MagicRange <= 0 {
		return fmt.Errorf("config: attack ranges must be positive")
	}
	if c.EventQueueCapacity <= 0 {
		return fmt.Errorf("config: event_queue_capacity must be positive, got %d", c.EventQueueCapacity)
	}
	if c.WorldBounds.MinX > c.WorldBounds.MaxX || c.WorldBounds.MinY > c.WorldBounds.MaxY {
		return fmt.Errorf("config: world bounds are inverted")
	}
	for _, p := range c.Pools {
		if p.Kind == "" {
			return fmt.Errorf("config: pool with empty kind")
		}
		if p.Capacity <= 0 {
			return fmt.Errorf("config: pool %q capacity must be positive, got %d", p.Kind, p.Capacity)
		}
	}
	return nil
}

// UnmarshalYAML decodes a config document on top of the receiver, so
// omitted fields keep whatever values were already set. tick_interval is
// a Go duration string ("16ms", "1s"); yaml.v3 has no native duration
// support.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type raw struct {
		TickInterval       string       `yaml:"tick_interval"`
		AttackCooldownMS   *int64       `yaml:"attack_cooldown_ms"`
		MeleeRange         *float64     `yaml:"melee_range"`
		RangedRange        *float64     `yaml:"ranged_range"`
		MagicRange         *float64     `yaml:"magic_range"`
		AggroRange         *float64     `yaml:"aggro_range"`
		EventQueueCapacity *int         `yaml:"event_queue_capacity"`
		WorldBounds        *Bounds      `yaml:"world_bounds"`
		Pools              []PoolConfig `yaml:"pools"`
	}
	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}
	if r.TickInterval != "" {
		d, err := time.ParseDuration(r.TickInterval)
		if err != nil {
			return fmt.Errorf("config: tick_interval: %w", err)
		}
		c.TickInterval = d
	}
	if r.AttackCooldownMS != nil {
		c.AttackCooldownMS = *r.AttackCooldownMS
	}
	if r.MeleeRange != nil {
		c.MeleeRange = *r.MeleeRange
	}
	if r.RangedRange != nil {
		c.RangedRange = *r.RangedRange
	}
	if r.MagicRange != nil {
		c.MagicRange = *r.MagicRange
	}
	if r.AggroRange != nil {
		c.AggroRange = *r.AggroRange
	}
	if r.EventQueueCapacity != nil {
		c.EventQueueCapacity = *r.EventQueueCapacity
	}
	if r.WorldBounds != nil {
		c.WorldBounds = *r.WorldBounds
	}
	if r.Pools != nil {
		c.Pools = r.Pools
	}
	return nil
}

// Load parses a YAML document into a Config, starting from the defaults
// so omitted fields keep their tuned values.
func Load(data []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFile reads and parses a YAML config file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Load(data)
}
