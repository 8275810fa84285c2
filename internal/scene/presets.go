package scene

import (
	"fmt"
	"sort"

	"github.com/san-kum/orrery/internal/belt"
)

func f(v float64) *float64 { return &v }

func off() *bool { b := false; return &b }

var Presets = map[string]*Scene{
	"solar": {
		Name:        "solar",
		Description: "Sun, four inner planets, the Moon and an asteroid belt",
		Bodies: []BodyDef{
			{Name: "Sun", Mass: 1000, Fixed: true, SpinRate: f(0.001), Radius: 10},
			{Name: "Mercury", Mass: 0.055, Distance: 30, SpinRate: f(0.03), Radius: 1},
			{Name: "Venus", Mass: 0.815, Distance: 70, SpinRate: f(0.2), Radius: 2},
			{Name: "Earth", Mass: 1, Distance: 100, SpinRate: f(0.01), Radius: 2},
			{Name: "Moon", Mass: 0.0123, Distance: 110, Parent: "Earth", SpinRate: f(-0.0001), Radius: 0.5},
			{Name: "Mars", Mass: 0.107, Distance: 150, SpinRate: f(0.007), Radius: 1.5},
		},
		Belts: []BeltDef{
			{Parent: "Sun", Config: belt.DefaultConfig()},
		},
	},
	"sun-earth": {
		Name:        "sun-earth",
		Description: "a single planet on a circular orbit",
		Bodies: []BodyDef{
			{Name: "Sun", Mass: 1000, Fixed: true, SpinRate: f(0.001), Radius: 10},
			{Name: "Earth", Mass: 1, Distance: 100, Radius: 2},
		},
	},
	"earth-moon": {
		Name:        "earth-moon",
		Description: "a free planet carrying a kinematic moon",
		Bodies: []BodyDef{
			{Name: "Earth", Mass: 1, Radius: 2},
			{Name: "Moon", Mass: 0.0123, Parent: "Earth", OrbitRadius: 10, OrbitAngle: f(0), SpinRate: f(-0.0001), Radius: 0.5},
		},
	},
	"binary": {
		Name:        "binary",
		Description: "two equal stars on a mutual circular orbit",
		Bodies: []BodyDef{
			{Name: "Alpha", Mass: 500, Position: &Vec3{-50, 0, 0}, Velocity: &Vec3{0, 0, -0.05}, Radius: 6},
			{Name: "Beta", Mass: 500, Position: &Vec3{50, 0, 0}, Velocity: &Vec3{0, 0, 0.05}, Radius: 6},
		},
		CircularInit: off(),
	},
}

// Get returns a copy of a preset scene.
func Get(name string) (*Scene, error) {
	p, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	s := *p
	s.Bodies = append([]BodyDef(nil), p.Bodies...)
	s.Belts = append([]BeltDef(nil), p.Belts...)
	return &s, nil
}

func List() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
