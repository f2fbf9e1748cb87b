package config

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
	"github.com/charmbracelet/log"
	"github.com/san-kum/gasbox/internal/integrators"
	"github.com/san-kum/gasbox/internal/scene"
	"github.com/san-kum/gasbox/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	perlinAlpha = 2
	perlinBeta  = 2
	perlinN     = 3
)

func vec(v Vec2) r2.Vec { return r2.Vec{X: v[0], Y: v[1]} }

// Build validates c and constructs the scene it describes.
func Build(c *Config) (*scene.Scene, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	sc := &scene.Scene{
		Gravity: vec(c.Gravity),
		Species: make(map[int]scene.Species, len(c.ParticleClasses)),
	}
	for _, pc := range c.ParticleClasses {
		sc.Species[pc.ID] = scene.Species{Name: pc.Name, Color: pc.Color}
	}

	for _, p := range c.Particles {
		pc, _ := c.particleClass(p.Class)
		sc.Particles = append(sc.Particles, scene.Particle{
			ID:       len(sc.Particles),
			Position: vec(p.Pos),
			Velocity: vec(p.Vel),
			Mass:     pc.Mass,
			Radius:   pc.Radius,
			Species:  pc.ID,
		})
	}
	for i, g := range c.ParticleGrids {
		pc, _ := c.particleClass(g.Class)
		proto := scene.Particle{Mass: pc.Mass, Radius: pc.Radius, Species: pc.ID}
		a := g.Angle * math.Pi / 180
		dir := r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
		sec := r2.Vec{X: -dir.Y, Y: dir.X}
		origin := vec(g.Center).Sub(dir.Scale(g.Size[0] / 2)).Sub(sec.Scale(g.Size[1] / 2))
		field := velocityField(g.Velocity, c.Seed+int64(i))
		sc.Particles = append(sc.Particles,
			scene.Grid(origin, dir, g.Size[0], g.Size[1], g.Count[0], g.Count[1], proto, len(sc.Particles), field)...)
	}

	for _, w := range c.Walls {
		proto := c.wallProto(w.Class)
		sc.Walls = append(sc.Walls, scene.Polygon([]r2.Vec{vec(w.From), vec(w.To)}, false, proto)...)
	}
	for _, b := range c.Boxes {
		sc.Walls = append(sc.Walls, scene.Box(vec(b.Min), vec(b.Max), c.wallProto(b.Class))...)
	}
	for _, p := range c.Polygons {
		pts := make([]r2.Vec, len(p.Points))
		for i, pt := range p.Points {
			pts[i] = vec(pt)
		}
		sc.Walls = append(sc.Walls, scene.Polygon(pts, p.Closed, c.wallProto(p.Class))...)
	}

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return sc, nil
}

func (c *Config) wallProto(id int) scene.Wall {
	wc, _ := c.wallClass(id)
	w := scene.Wall{Class: id, Restitution: DefaultRestitution}
	if wc.Restitution != nil {
		w.Restitution = *wc.Restitution
	}
	if wc.Temperature != nil {
		w.Thermal = true
		w.Temperature = *wc.Temperature
		w.Accommodation = DefaultAccommodation
		if wc.Accommodation != nil {
			w.Accommodation = *wc.Accommodation
		}
	}
	return w
}

func velocityField(v VelocitySpec, seed int64) func(r2.Vec) r2.Vec {
	switch v.Kind {
	case "random":
		rng := rand.New(rand.NewSource(seed))
		return func(r2.Vec) r2.Vec {
			a := rng.Float64() * 2 * math.Pi
			return r2.Vec{X: v.Speed * math.Cos(a), Y: v.Speed * math.Sin(a)}
		}
	case "noise":
		p := perlin.NewPerlin(perlinAlpha, perlinBeta, perlinN, seed)
		scale := v.Scale
		if scale <= 0 {
			scale = 1
		}
		return func(pos r2.Vec) r2.Vec {
			a := p.Noise2D(pos.X/scale, pos.Y/scale) * 2 * math.Pi
			return r2.Vec{X: v.Speed * math.Cos(a), Y: v.Speed * math.Sin(a)}
		}
	default:
		return scene.ConstantVelocity(vec(v.Value))
	}
}

// EngineOptions maps the run settings onto engine options.
func (c *Config) EngineOptions(logger *log.Logger) (sim.Options, error) {
	integ, err := integrators.Get(c.Integrator)
	if err != nil {
		return sim.Options{}, err
	}
	return sim.Options{
		Dt:            c.Dt,
		Integrator:    integ,
		MaxIterations: c.MaxIterations,
		MaxSpeed:      c.MaxSpeed,
		Seed:          c.Seed,
		Logger:        logger,
	}, nil
}
