package config

import (
	"fmt"
	"slices"
	"sort"
)

// Clone returns a deep copy, so changes to class coefficients or specs do
// not reach the original.
func (c *Config) Clone() *Config {
	out := *c
	out.ParticleClasses = slices.Clone(c.ParticleClasses)
	out.WallClasses = slices.Clone(c.WallClasses)
	for i := range out.WallClasses {
		wc := &out.WallClasses[i]
		wc.Temperature = clonePtr(wc.Temperature)
		wc.Accommodation = clonePtr(wc.Accommodation)
		wc.Restitution = clonePtr(wc.Restitution)
	}
	out.Particles = slices.Clone(c.Particles)
	out.ParticleGrids = slices.Clone(c.ParticleGrids)
	out.Walls = slices.Clone(c.Walls)
	out.Boxes = slices.Clone(c.Boxes)
	out.Polygons = slices.Clone(c.Polygons)
	for i := range out.Polygons {
		out.Polygons[i].Points = slices.Clone(out.Polygons[i].Points)
	}
	return &out
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return Float(*p)
}

// params are the numeric knobs Set understands. Class-wide knobs apply to
// every class they make sense for.
var params = map[string]func(c *Config, v float64){
	"dt":         func(c *Config, v float64) { c.Dt = v },
	"duration":   func(c *Config, v float64) { c.Duration = v },
	"max_speed":  func(c *Config, v float64) { c.MaxSpeed = v },
	"gravity_x":  func(c *Config, v float64) { c.Gravity[0] = v },
	"gravity_y":  func(c *Config, v float64) { c.Gravity[1] = v },
	"grid_speed": setGridSpeed,
	"accommodation": func(c *Config, v float64) {
		for i := range c.WallClasses {
			if c.WallClasses[i].Temperature != nil {
				c.WallClasses[i].Accommodation = Float(v)
			}
		}
	},
	"restitution": func(c *Config, v float64) {
		for i := range c.WallClasses {
			if c.WallClasses[i].Temperature == nil {
				c.WallClasses[i].Restitution = Float(v)
			}
		}
	},
	"temperature_scale": func(c *Config, v float64) {
		for i := range c.WallClasses {
			if t := c.WallClasses[i].Temperature; t != nil {
				c.WallClasses[i].Temperature = Float(*t * v)
			}
		}
	},
}

func setGridSpeed(c *Config, v float64) {
	for i := range c.ParticleGrids {
		c.ParticleGrids[i].Velocity.Speed = v
	}
}

// Set changes the named parameter in place. Values are checked later by
// Validate, like any other field.
func (c *Config) Set(name string, v float64) error {
	fn, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: parameter %q (known: %v)", ErrUnknownKind, name, ParamNames())
	}
	fn(c, v)
	return nil
}

// ParamNames lists the parameters Set accepts.
func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
