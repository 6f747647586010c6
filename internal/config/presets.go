package config

import "sort"

func body(name, mesh string, edit func(*BodyConfig)) BodyConfig {
	b := DefaultBody()
	b.Name = name
	b.Mesh = mesh
	if edit != nil {
		edit(&b)
	}
	return b
}

func preset(name string, edit func(*Config), bodies ...BodyConfig) *Config {
	c := DefaultConfig()
	c.Name = name
	c.Bodies = bodies
	if edit != nil {
		edit(c)
	}
	return c
}

var Presets = map[string]*Config{
	// a box released above the ground quad
	"drop": preset("drop", nil,
		body("box", MeshBox, func(b *BodyConfig) {
			b.Translate = []float64{-0.25, 2, -0.25}
		}),
	),
	// a single tet thrown upward onto the analytic floor, no ground mesh
	"bounce": preset("bounce", func(c *Config) {
		c.Ground.Enabled = false
		c.FloorPenalty = 40000
	},
		body("tet", MeshTet, func(b *BodyConfig) {
			b.Translate = []float64{0, 2, 0}
			b.InitialVelocity = []float64{0, 3, 0}
		}),
	),
	// a box landing on a resting box that acts as a collider
	"stack": preset("stack", func(c *Config) { c.Duration = 8 },
		body("base", MeshBox, func(b *BodyConfig) {
			b.Box = BoxConfig{NX: 3, NY: 1, NZ: 3, Size: 0.25}
			b.Translate = []float64{-0.375, 0, -0.375}
			b.Collider = true
			b.Simulated = false
		}),
		body("top", MeshBox, func(b *BodyConfig) {
			b.Translate = []float64{-0.25, 1.5, -0.25}
		}),
	),
	// a soft, heavily damped box
	"jelly": preset("jelly", nil,
		body("jelly", MeshBox, func(b *BodyConfig) {
			b.Box = BoxConfig{NX: 3, NY: 3, NZ: 3, Size: 0.2}
			b.Translate = []float64{-0.3, 1, -0.3}
			b.Rigidity = 4000
			b.Incompressibility = 8000
			b.Viscosity1 = 400
			b.Viscosity2 = 400
			b.Density = 1000
		}),
	),
}

// PresetInfo is a one-line description of each preset.
var PresetInfo = map[string]string{
	"drop":   "box released above the ground",
	"bounce": "tet thrown up onto the analytic floor",
	"stack":  "box landing on a resting box",
	"jelly":  "soft, heavily damped box",
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
