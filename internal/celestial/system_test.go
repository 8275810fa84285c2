package celestial

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestAddBody_Validation(t *testing.T) {
	sys := New()
	if _, err := sys.AddBody(Spec{Name: "Sun", Mass: 1000, Fixed: true}); err != nil {
		t.Fatalf("add sun: %v", err)
	}

	tests := []struct {
		name string
		spec Spec
		want error
	}{
		{"duplicate", Spec{Name: "Sun", Mass: 1}, ErrDuplicateName},
		{"zero mass", Spec{Name: "A", Mass: 0}, ErrInvalidMass},
		{"negative mass", Spec{Name: "B", Mass: -1}, ErrInvalidMass},
		{"NaN mass", Spec{Name: "C", Mass: math.NaN()}, ErrInvalidMass},
		{"Inf mass", Spec{Name: "D", Mass: math.Inf(1)}, ErrInvalidMass},
		{"unknown parent", Spec{Name: "E", Mass: 1, Parent: "Nowhere"}, ErrUnknownParent},
		{"self parent", Spec{Name: "F", Mass: 1, Parent: "F"}, ErrUnknownParent},
		{"fixed and parented", Spec{Name: "G", Mass: 1, Fixed: true, Parent: "Sun"}, ErrConflictingMode},
		{"NaN position", Spec{Name: "H", Mass: 1, Position: r3.Vec{Y: math.NaN()}}, ErrInvalidState},
		{"Inf velocity", Spec{Name: "I", Mass: 1, Velocity: r3.Vec{Z: math.Inf(-1)}}, ErrInvalidState},
		{"NaN orbiter position", Spec{Name: "J", Mass: 1, Parent: "Sun", Position: r3.Vec{X: math.NaN()}}, ErrInvalidState},
		{"negative orbit radius", Spec{Name: "K", Mass: 1, Parent: "Sun", OrbitRadius: -10}, ErrInvalidOrbit},
		{"Inf orbit radius", Spec{Name: "L", Mass: 1, Parent: "Sun", OrbitRadius: math.Inf(1)}, ErrInvalidOrbit},
		{"NaN orbit angle", Spec{Name: "M", Mass: 1, Parent: "Sun", OrbitRadius: 10, OrbitAngle: math.NaN()}, ErrInvalidOrbit},
		{"NaN orbit speed", Spec{Name: "N", Mass: 1, Parent: "Sun", OrbitRadius: 10, OrbitSpeed: math.NaN()}, ErrInvalidOrbit},
		{"Inf vertical offset", Spec{Name: "O", Mass: 1, Parent: "Sun", OrbitRadius: 10, VerticalOffset: math.Inf(1)}, ErrInvalidOrbit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sys.AddBody(tt.spec)
			if !errors.Is(err, tt.want) {
				t.Errorf("AddBody() error = %v, want %v", err, tt.want)
			}
		})
	}

	if sys.Len() != 1 {
		t.Errorf("rejected specs must not be registered, got %d bodies", sys.Len())
	}
}

func TestAddBody_OrbitRadiusMatchesPlacement(t *testing.T) {
	sys := New()
	sys.AddBody(Spec{Name: "Earth", Mass: 1, Position: r3.Vec{X: 100}})
	moon, err := sys.AddBody(Spec{Name: "Moon", Mass: 0.0123, Parent: "Earth", OrbitRadius: 10, OrbitAngle: 1, OrbitSpeed: 0.01, VerticalOffset: 2})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		o, _ := sys.Body(moon).Orbit()
		rel := r3.Sub(sys.Position(moon), sys.Position(0))
		planar := math.Hypot(rel.X, rel.Z)
		if math.Abs(planar-o.Radius()) > 1e-9 || math.Abs(rel.Y-2) > 1e-9 {
			t.Fatalf("step %d: offset %v from parent, radius %v", i, rel, o.Radius())
		}
		if err := sys.Step(1); err != nil {
			t.Fatal(err)
		}
	}
	if !sys.Valid() {
		t.Error("orbiting moon produced a non-finite state")
	}
}

func TestAddBody_Modes(t *testing.T) {
	sys := New()
	sun, _ := sys.AddBody(Spec{Name: "Sun", Mass: 1000, Fixed: true})
	earth, _ := sys.AddBody(Spec{Name: "Earth", Mass: 1, Position: r3.Vec{X: 100}, Velocity: r3.Vec{Z: 0.5}})
	moon, err := sys.AddBody(Spec{Name: "Moon", Mass: 0.0123, Position: r3.Vec{X: 110}, Parent: "Earth", OrbitSpeed: 0.01})
	if err != nil {
		t.Fatalf("add moon: %v", err)
	}

	if m := sys.Body(sun).Mode(); m != ModeFixed {
		t.Errorf("sun mode = %v, want fixed", m)
	}
	if m := sys.Body(earth).Mode(); m != ModeFree {
		t.Errorf("earth mode = %v, want free", m)
	}
	if v := sys.Body(earth).Velocity(); v != (r3.Vec{Z: 0.5}) {
		t.Errorf("earth velocity = %v, want construction velocity", v)
	}

	b := sys.Body(moon)
	if b.Mode() != ModeOrbit {
		t.Fatalf("moon mode = %v, want orbit", b.Mode())
	}
	o, _ := b.Orbit()
	if math.Abs(o.Radius()-10) > 1e-12 {
		t.Errorf("derived radius = %v, want 10", o.Radius())
	}
	if p, ok := b.Parent(); !ok || p != earth {
		t.Errorf("moon parent = %v, %v", p, ok)
	}
	if b.Velocity() != (r3.Vec{}) || b.Acceleration() != (r3.Vec{}) {
		t.Error("orbiting body must report zero velocity and acceleration")
	}
}

func TestAddBody_PlacesOrbitImmediately(t *testing.T) {
	sys := New()
	sys.AddBody(Spec{Name: "Sun", Mass: 1000, Position: r3.Vec{X: 5, Y: 1, Z: -3}, Fixed: true})
	id, _ := sys.AddBody(Spec{
		Name: "Rock", Mass: 0.001, Parent: "Sun",
		OrbitRadius: 200, OrbitAngle: math.Pi / 3, VerticalOffset: 1.5,
	})

	got := sys.Position(id)
	want := r3.Vec{
		X: 5 + 200*math.Cos(math.Pi/3),
		Y: 1 + 1.5,
		Z: -3 + 200*math.Sin(math.Pi/3),
	}
	if got != want {
		t.Errorf("position = %v, want %v", got, want)
	}
}

func TestBody_CopyIsIndependent(t *testing.T) {
	sys := New()
	id, _ := sys.AddBody(Spec{Name: "A", Mass: 1, Velocity: r3.Vec{X: 1}})

	b := sys.Body(id)
	b.Position = r3.Vec{X: 99}
	if f, ok := b.Motion().(*Free); ok {
		f.Velocity = r3.Vec{X: 42}
	}

	live := sys.Body(id)
	if live.Position != (r3.Vec{}) || live.Velocity() != (r3.Vec{X: 1}) {
		t.Errorf("registry state leaked through copy: %+v", live)
	}
}

func TestLookupAndNames(t *testing.T) {
	sys := New()
	sys.AddBody(Spec{Name: "A", Mass: 1})
	sys.AddBody(Spec{Name: "B", Mass: 1, Position: r3.Vec{X: 1}})

	if id, ok := sys.Lookup("B"); !ok || id != 1 {
		t.Errorf("Lookup(B) = %d, %v", id, ok)
	}
	if _, ok := sys.Lookup("C"); ok {
		t.Error("Lookup(C) should fail")
	}
	names := sys.Names()
	if len(names) != 2 || names[0] != "A" || names[1] != "B" {
		t.Errorf("Names() = %v", names)
	}
}

func TestParseScheme(t *testing.T) {
	tests := []struct {
		in   string
		want Scheme
		err  bool
	}{
		{"", SchemeKDK, false},
		{"kdk", SchemeKDK, false},
		{"verlet", SchemeVerlet, false},
		{"euler", SchemeEuler, false},
		{"rk4", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseScheme(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseScheme(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("ParseScheme(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if SchemeVerlet.String() != "verlet" {
		t.Errorf("SchemeVerlet.String() = %q", SchemeVerlet.String())
	}
}

func TestValid(t *testing.T) {
	sys := New()
	sys.AddBody(Spec{Name: "A", Mass: 1, Velocity: r3.Vec{X: 1}})
	if !sys.Valid() {
		t.Fatal("finite state reported invalid")
	}

	sys.bodies[0].Position.Y = math.NaN()
	if sys.Valid() {
		t.Error("NaN position reported valid")
	}
}
