// Package config loads scene files and turns them into scenes and engine
// options. It is the primary validator: anything it accepts is a valid scene.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt            = 0.005
	DefaultDuration      = 10.0
	DefaultIntegrator    = "euler"
	DefaultMaxIterations = 64
	DefaultMaxSpeed      = 1e3
	DefaultAccommodation = 1.0
	DefaultRestitution   = 1.0
)

var (
	ErrInvalidValue = errors.New("config: invalid value")
	ErrInvalidClass = errors.New("config: unknown class")
	ErrUnknownKind  = errors.New("config: unknown kind")
)

// Vec2 is an [x, y] pair in YAML flow style.
type Vec2 [2]float64

type Config struct {
	Name          string  `yaml:"name"`
	Duration      float64 `yaml:"duration"`
	Dt            float64 `yaml:"dt"`
	Seed          int64   `yaml:"seed"`
	Integrator    string  `yaml:"integrator"`
	Gravity       Vec2    `yaml:"gravity,flow"`
	MaxIterations int     `yaml:"max_iterations"`
	MaxSpeed      float64 `yaml:"max_speed"`

	ParticleClasses []ParticleClass `yaml:"particle_classes"`
	WallClasses     []WallClass     `yaml:"wall_classes"`

	Particles     []ParticleSpec `yaml:"particles,omitempty"`
	ParticleGrids []GridSpec     `yaml:"particle_grids,omitempty"`
	Walls         []WallSpec     `yaml:"walls,omitempty"`
	Boxes         []BoxSpec      `yaml:"boxes,omitempty"`
	Polygons      []PolygonSpec  `yaml:"polygons,omitempty"`
}

type ParticleClass struct {
	ID     int     `yaml:"id"`
	Name   string  `yaml:"name"`
	Mass   float64 `yaml:"mass"`
	Radius float64 `yaml:"radius"`
	Color  string  `yaml:"color,omitempty"`
}

// WallClass without a temperature is elastic, scaled by Restitution.
type WallClass struct {
	ID            int      `yaml:"id"`
	Name          string   `yaml:"name"`
	Temperature   *float64 `yaml:"temperature,omitempty"`
	Accommodation *float64 `yaml:"accommodation,omitempty"`
	Restitution   *float64 `yaml:"restitution,omitempty"`
	Color         string   `yaml:"color,omitempty"`
}

type ParticleSpec struct {
	Class int  `yaml:"class"`
	Pos   Vec2 `yaml:"pos,flow"`
	Vel   Vec2 `yaml:"vel,flow"`
}

// GridSpec spawns (count[0]+1)×(count[1]+1) particles on a lattice of the
// given size centred at Center and rotated by Angle degrees.
type GridSpec struct {
	Class    int          `yaml:"class"`
	Center   Vec2         `yaml:"center,flow"`
	Angle    float64      `yaml:"angle"`
	Size     Vec2         `yaml:"size,flow"`
	Count    [2]int       `yaml:"count,flow"`
	Velocity VelocitySpec `yaml:"velocity"`
}

// VelocitySpec picks initial velocities. Kind is constant (Value), random
// (uniform direction, magnitude Speed) or noise (direction from a Perlin
// field sampled at position/Scale, magnitude Speed).
type VelocitySpec struct {
	Kind  string  `yaml:"kind"`
	Value Vec2    `yaml:"value,flow,omitempty"`
	Speed float64 `yaml:"speed,omitempty"`
	Scale float64 `yaml:"scale,omitempty"`
}

type WallSpec struct {
	Class int  `yaml:"class"`
	From  Vec2 `yaml:"from,flow"`
	To    Vec2 `yaml:"to,flow"`
}

type BoxSpec struct {
	Class int  `yaml:"class"`
	Min   Vec2 `yaml:"min,flow"`
	Max   Vec2 `yaml:"max,flow"`
}

type PolygonSpec struct {
	Class  int    `yaml:"class"`
	Points []Vec2 `yaml:"points,flow"`
	Closed bool   `yaml:"closed"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:          "unnamed",
		Duration:      DefaultDuration,
		Dt:            DefaultDt,
		Integrator:    DefaultIntegrator,
		MaxIterations: DefaultMaxIterations,
		MaxSpeed:      DefaultMaxSpeed,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a scene file over DefaultConfig.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Steps is the number of steps needed to cover Duration.
func (c *Config) Steps() int {
	return int(math.Round(c.Duration / c.Dt))
}

func (c *Config) particleClass(id int) (ParticleClass, bool) {
	for _, pc := range c.ParticleClasses {
		if pc.ID == id {
			return pc, true
		}
	}
	return ParticleClass{}, false
}

func (c *Config) wallClass(id int) (WallClass, bool) {
	for _, wc := range c.WallClasses {
		if wc.ID == id {
			return wc, true
		}
	}
	return WallClass{}, false
}

func (v Vec2) finite() bool {
	return !math.IsNaN(v[0]) && !math.IsInf(v[0], 0) && !math.IsNaN(v[1]) && !math.IsInf(v[1], 0)
}

// Float returns a pointer to f, for optional class fields.
func Float(f float64) *float64 { return &f }
