package config

import (
	"fmt"
	"sort"
)

var gas = ParticleClass{ID: 0, Name: "gas", Mass: 1, Radius: 0.04, Color: "#7dcfff"}

var Presets = map[string]*Config{
	"box": {
		Name: "box", Duration: 20, Dt: 0.005, Seed: 1, Integrator: "euler",
		MaxIterations: DefaultMaxIterations, MaxSpeed: DefaultMaxSpeed,
		ParticleClasses: []ParticleClass{gas},
		WallClasses:     []WallClass{{ID: 0, Name: "elastic", Color: "#c0caf5"}},
		ParticleGrids: []GridSpec{{
			Class: 0, Center: Vec2{2, 2}, Size: Vec2{3, 3}, Count: [2]int{9, 9},
			Velocity: VelocitySpec{Kind: "random", Speed: 1},
		}},
		Boxes: []BoxSpec{{Class: 0, Min: Vec2{0, 0}, Max: Vec2{4, 4}}},
	},
	"thermal": {
		Name: "thermal", Duration: 40, Dt: 0.005, Seed: 2, Integrator: "euler",
		MaxIterations: DefaultMaxIterations, MaxSpeed: DefaultMaxSpeed,
		ParticleClasses: []ParticleClass{gas},
		WallClasses: []WallClass{
			{ID: 0, Name: "elastic", Color: "#c0caf5"},
			{ID: 1, Name: "hot", Temperature: Float(3), Accommodation: Float(1), Color: "#f7768e"},
			{ID: 2, Name: "cold", Temperature: Float(0.3), Accommodation: Float(1), Color: "#7aa2f7"},
		},
		ParticleGrids: []GridSpec{{
			Class: 0, Center: Vec2{2, 2}, Size: Vec2{3, 3}, Count: [2]int{7, 7},
			Velocity: VelocitySpec{Kind: "random", Speed: 1},
		}},
		Walls: []WallSpec{
			{Class: 0, From: Vec2{0, 0}, To: Vec2{4, 0}},
			{Class: 2, From: Vec2{4, 0}, To: Vec2{4, 4}},
			{Class: 0, From: Vec2{4, 4}, To: Vec2{0, 4}},
			{Class: 1, From: Vec2{0, 4}, To: Vec2{0, 0}},
		},
	},
	"diffusion": {
		Name: "diffusion", Duration: 60, Dt: 0.005, Seed: 3, Integrator: "euler",
		MaxIterations: DefaultMaxIterations, MaxSpeed: DefaultMaxSpeed,
		ParticleClasses: []ParticleClass{
			{ID: 0, Name: "light", Mass: 1, Radius: 0.04, Color: "#9ece6a"},
			{ID: 1, Name: "heavy", Mass: 4, Radius: 0.06, Color: "#e0af68"},
		},
		WallClasses: []WallClass{{ID: 0, Name: "elastic", Color: "#c0caf5"}},
		ParticleGrids: []GridSpec{
			{Class: 0, Center: Vec2{1.5, 1.5}, Size: Vec2{2.4, 2.4}, Count: [2]int{6, 6},
				Velocity: VelocitySpec{Kind: "noise", Speed: 1, Scale: 0.7}},
			{Class: 1, Center: Vec2{4.5, 1.5}, Size: Vec2{2.4, 2.4}, Count: [2]int{6, 6},
				Velocity: VelocitySpec{Kind: "noise", Speed: 0.5, Scale: 0.7}},
		},
		Boxes: []BoxSpec{{Class: 0, Min: Vec2{0, 0}, Max: Vec2{6, 3}}},
	},
	"atmosphere": {
		Name: "atmosphere", Duration: 60, Dt: 0.005, Seed: 4, Integrator: "verlet",
		Gravity:       Vec2{0, -0.5},
		MaxIterations: DefaultMaxIterations, MaxSpeed: DefaultMaxSpeed,
		ParticleClasses: []ParticleClass{gas},
		WallClasses: []WallClass{
			{ID: 0, Name: "elastic", Color: "#c0caf5"},
			{ID: 1, Name: "floor", Temperature: Float(1), Accommodation: Float(0.5), Color: "#ff9e64"},
		},
		ParticleGrids: []GridSpec{{
			Class: 0, Center: Vec2{2, 3}, Size: Vec2{3, 3}, Count: [2]int{7, 7},
			Velocity: VelocitySpec{Kind: "random", Speed: 0.5},
		}},
		Walls: []WallSpec{
			{Class: 1, From: Vec2{0, 0}, To: Vec2{4, 0}},
			{Class: 0, From: Vec2{4, 0}, To: Vec2{4, 8}},
			{Class: 0, From: Vec2{4, 8}, To: Vec2{0, 8}},
			{Class: 0, From: Vec2{0, 8}, To: Vec2{0, 0}},
		},
	},
	"funnel": {
		Name: "funnel", Duration: 30, Dt: 0.005, Seed: 5, Integrator: "euler",
		Gravity:       Vec2{0, -1},
		MaxIterations: DefaultMaxIterations, MaxSpeed: DefaultMaxSpeed,
		ParticleClasses: []ParticleClass{gas},
		WallClasses:     []WallClass{{ID: 0, Name: "elastic", Restitution: Float(0.95), Color: "#c0caf5"}},
		ParticleGrids: []GridSpec{{
			Class: 0, Center: Vec2{2, 5.5}, Size: Vec2{3, 2}, Count: [2]int{8, 4},
			Velocity: VelocitySpec{Kind: "random", Speed: 0.3},
		}},
		// hourglass: two chambers joined by a narrow neck at y=3
		Polygons: []PolygonSpec{{
			Class:  0,
			Closed: true,
			Points: []Vec2{
				{0, 0}, {4, 0}, {4, 2}, {2.2, 3}, {4, 4},
				{4, 7}, {0, 7}, {0, 4}, {1.8, 3}, {0, 2},
			},
		}},
	},
}

// GetPreset returns a deep copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve loads path if it names a readable file and otherwise looks it up
// as a preset.
func Resolve(nameOrPath string) (*Config, error) {
	if p := GetPreset(nameOrPath); p != nil {
		return p, nil
	}
	cfg, err := Load(nameOrPath)
	if err != nil {
		return nil, fmt.Errorf("config: %q is neither a preset nor a readable scene file: %w", nameOrPath, err)
	}
	return cfg, nil
}
