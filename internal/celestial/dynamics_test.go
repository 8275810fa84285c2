package celestial

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func near(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func solarSystem(t *testing.T, opts ...Option) *System {
	t.Helper()
	sys := New(opts...)
	specs := []Spec{
		{Name: "Sun", Mass: 1000, Fixed: true, SpinRate: 0.001},
		{Name: "Mercury", Mass: 0.055, Position: r3.Vec{X: 30}, SpinRate: 0.03},
		{Name: "Venus", Mass: 0.815, Position: r3.Vec{X: 70}, SpinRate: 0.2},
		{Name: "Earth", Mass: 1, Position: r3.Vec{X: 100}, SpinRate: 0.01},
		{Name: "Moon", Mass: 0.0123, Position: r3.Vec{X: 110}, Parent: "Earth", OrbitAngle: 1.2, OrbitSpeed: 0.01, SpinRate: -0.0001},
		{Name: "Mars", Mass: 0.107, Position: r3.Vec{X: 150}, SpinRate: 0.007},
	}
	for _, spec := range specs {
		if _, err := sys.AddBody(spec); err != nil {
			t.Fatalf("add %s: %v", spec.Name, err)
		}
	}
	return sys
}

func TestComputeGravity_PointMass(t *testing.T) {
	sys := New()
	sys.AddBody(Spec{Name: "Sun", Mass: 1000, Fixed: true})
	earth, _ := sys.AddBody(Spec{Name: "Earth", Mass: 1, Position: r3.Vec{X: 100}})

	sys.ComputeGravity()

	want := r3.Vec{X: -1e-4}
	if got := sys.Body(earth).Acceleration(); !near(got, want, 1e-15) {
		t.Errorf("acceleration = %v, want %v", got, want)
	}
}

func TestComputeGravity_SourcesOnly(t *testing.T) {
	sys := solarSystem(t)
	sys.ComputeGravity()

	for _, name := range []string{"Sun", "Moon"} {
		id, _ := sys.Lookup(name)
		if a := sys.Body(id).Acceleration(); a != (r3.Vec{}) {
			t.Errorf("%s acceleration = %v, want zero", name, a)
		}
	}

	// Earth is pulled toward the Moon as well as the Sun.
	without := New()
	without.AddBody(Spec{Name: "Sun", Mass: 1000, Fixed: true})
	without.AddBody(Spec{Name: "Mercury", Mass: 0.055, Position: r3.Vec{X: 30}})
	without.AddBody(Spec{Name: "Venus", Mass: 0.815, Position: r3.Vec{X: 70}})
	e, _ := without.AddBody(Spec{Name: "Earth", Mass: 1, Position: r3.Vec{X: 100}})
	without.AddBody(Spec{Name: "Mars", Mass: 0.107, Position: r3.Vec{X: 150}})
	without.ComputeGravity()

	earth, _ := sys.Lookup("Earth")
	if sys.Body(earth).Acceleration() == without.Body(e).Acceleration() {
		t.Error("orbiting moon should contribute to Earth's acceleration")
	}
}

func TestComputeGravity_CoincidentAndClamped(t *testing.T) {
	sys := New(WithMinSeparation(1))
	a, _ := sys.AddBody(Spec{Name: "A", Mass: 1})
	sys.AddBody(Spec{Name: "B", Mass: 5})
	c, _ := sys.AddBody(Spec{Name: "C", Mass: 1, Position: r3.Vec{X: 0.5}})

	sys.ComputeGravity()

	// A and B coincide; only C (clamped to r = 1) pulls on A.
	want := r3.Vec{X: DefaultG * 1}
	if got := sys.Body(a).Acceleration(); !near(got, want, 1e-18) {
		t.Errorf("A acceleration = %v, want %v", got, want)
	}
	if !sys.Valid() {
		t.Error("coincident bodies produced non-finite state")
	}
	if got := sys.Body(c).Acceleration(); got.X >= 0 {
		t.Errorf("C should be pulled toward -x, got %v", got)
	}
}

func TestComputeGravity_WorkersMatchSerial(t *testing.T) {
	build := func(workers int) *System {
		rng := rand.New(rand.NewSource(7))
		sys := New(WithWorkers(workers))
		sys.AddBody(Spec{Name: "Sun", Mass: 1000, Fixed: true})
		for i := 0; i < 300; i++ {
			sys.AddBody(Spec{
				Name: string(rune('a'+i%26)) + string(rune('0'+i/26)),
				Mass: 0.001 + rng.Float64(),
				Position: r3.Vec{
					X: rng.Float64()*400 - 200,
					Y: rng.Float64()*10 - 5,
					Z: rng.Float64()*400 - 200,
				},
			})
		}
		return sys
	}

	serial, parallel := build(1), build(4)
	serial.InitCircularOrbits()
	parallel.InitCircularOrbits()
	for i := 0; i < 5; i++ {
		serial.Step(0.1)
		parallel.Step(0.1)
	}

	for i := range serial.bodies {
		s, p := serial.Body(ID(i)), parallel.Body(ID(i))
		if s.Position != p.Position || s.Velocity() != p.Velocity() || s.Acceleration() != p.Acceleration() {
			t.Fatalf("body %d diverged between 1 and 4 workers", i)
		}
	}
}

func TestInitCircularOrbits_SpeedAndTangent(t *testing.T) {
	sys := solarSystem(t)
	if err := sys.InitCircularOrbits(); err != nil {
		t.Fatal(err)
	}

	sun, _ := sys.Lookup("Sun")
	for _, name := range []string{"Mercury", "Venus", "Earth", "Mars"} {
		id, _ := sys.Lookup(name)
		c, ok := sys.Center(id)
		if !ok || c != sun {
			t.Errorf("%s center = %v, want Sun", name, c)
			continue
		}

		b := sys.Body(id)
		rv := r3.Sub(b.Position, sys.Position(sun))
		v := b.Velocity()

		want := math.Sqrt(DefaultG * 1000 / r3.Norm(rv))
		if math.Abs(r3.Norm(v)-want) > 1e-12 {
			t.Errorf("%s speed = %v, want %v", name, r3.Norm(v), want)
		}
		if math.Abs(r3.Dot(v, rv)) > 1e-9 {
			t.Errorf("%s velocity not tangential: v·r = %v", name, r3.Dot(v, rv))
		}
		if math.Abs(v.Y) > 1e-12 {
			t.Errorf("%s velocity leaves the ecliptic: %v", name, v)
		}
	}

	if got := sys.Body(sun).Velocity(); got != (r3.Vec{}) {
		t.Errorf("fixed sun velocity = %v", got)
	}
}

func TestInitCircularOrbits_LighterCloserWins(t *testing.T) {
	sys := New()
	sys.AddBody(Spec{Name: "Sun", Mass: 1000, Fixed: true})
	earth, _ := sys.AddBody(Spec{Name: "Earth", Mass: 1, Position: r3.Vec{X: 100}})
	moon, _ := sys.AddBody(Spec{Name: "Moon", Mass: 0.01, Position: r3.Vec{X: 101}})

	sys.InitCircularOrbits()

	if c, _ := sys.Center(moon); c != earth {
		t.Errorf("moon center = %v, want Earth", c)
	}
	// Relative to Earth: G·1/1 = 0.001, speed ≈ 0.0316.
	want := math.Sqrt(DefaultG)
	if got := r3.Norm(sys.Body(moon).Velocity()); math.Abs(got-want) > 1e-12 {
		t.Errorf("moon speed = %v, want %v", got, want)
	}
}

func TestInitCircularOrbits_TieKeepsEarliest(t *testing.T) {
	sys := New()
	first, _ := sys.AddBody(Spec{Name: "East", Mass: 10, Position: r3.Vec{X: 10}, Fixed: true})
	sys.AddBody(Spec{Name: "West", Mass: 10, Position: r3.Vec{X: -10}, Fixed: true})
	probe, _ := sys.AddBody(Spec{Name: "Probe", Mass: 1})

	sys.InitCircularOrbits()

	if c, _ := sys.Center(probe); c != first {
		t.Errorf("tie resolved to %v, want %v", c, first)
	}
	// r = (-10,0,0), r × ŷ = (0,0,-10).
	want := r3.Vec{Z: -math.Sqrt(DefaultG * 10 / 10)}
	if got := sys.Body(probe).Velocity(); !near(got, want, 1e-15) {
		t.Errorf("velocity = %v, want %v", got, want)
	}
}

func TestInitCircularOrbits_PolarFallback(t *testing.T) {
	sys := New()
	sys.AddBody(Spec{Name: "Sun", Mass: 1000, Fixed: true})
	id, _ := sys.AddBody(Spec{Name: "Polar", Mass: 1, Position: r3.Vec{Y: 10}})

	sys.InitCircularOrbits()

	// r = (0,10,0) ∥ ŷ, so the initializer uses r × x̂ = (0,0,-10).
	want := r3.Vec{Z: -math.Sqrt(DefaultG * 1000 / 10)}
	if got := sys.Body(id).Velocity(); !near(got, want, 1e-12) {
		t.Errorf("velocity = %v, want %v", got, want)
	}
}

func TestInitCircularOrbits_Uncentered(t *testing.T) {
	sys := New()
	lone, _ := sys.AddBody(Spec{Name: "Lone", Mass: 1, Velocity: r3.Vec{X: 3}})

	if err := sys.InitCircularOrbits(); err != nil {
		t.Fatal(err)
	}
	if got := sys.Body(lone).Velocity(); got != (r3.Vec{X: 3}) {
		t.Errorf("velocity changed to %v", got)
	}
	if u := sys.Uncentered(); len(u) != 1 || u[0] != lone {
		t.Errorf("Uncentered() = %v", u)
	}

	coincident := New()
	coincident.AddBody(Spec{Name: "Sun", Mass: 1000, Fixed: true})
	stuck, _ := coincident.AddBody(Spec{Name: "Stuck", Mass: 1})
	coincident.InitCircularOrbits()
	if u := coincident.Uncentered(); len(u) != 1 || u[0] != stuck {
		t.Errorf("coincident Uncentered() = %v", u)
	}
	if !coincident.Valid() {
		t.Error("coincident body produced non-finite state")
	}
}

func TestInitCircularOrbits_Once(t *testing.T) {
	sys := solarSystem(t)
	if err := sys.InitCircularOrbits(); err != nil {
		t.Fatal(err)
	}
	if !sys.Initialized() {
		t.Error("Initialized() = false after init")
	}
	if err := sys.InitCircularOrbits(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second init error = %v", err)
	}
}

func TestStep_InvalidDt(t *testing.T) {
	sys := solarSystem(t)
	for _, dt := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		if err := sys.Step(dt); !errors.Is(err, ErrInvalidStep) {
			t.Errorf("Step(%v) error = %v", dt, err)
		}
	}
	if sys.Steps() != 0 || sys.Time() != 0 {
		t.Error("rejected step advanced the clock")
	}
}

func TestStep_ZeroDtOnlySpins(t *testing.T) {
	sys := solarSystem(t)
	sys.InitCircularOrbits()
	before := sys.Bodies()

	if err := sys.Step(0); err != nil {
		t.Fatal(err)
	}

	for i, b := range sys.Bodies() {
		if b.Position != before[i].Position {
			t.Errorf("%s moved on dt=0", b.Name)
		}
		if b.Spin != before[i].Spin+b.SpinRate {
			t.Errorf("%s spin = %v, want %v", b.Name, b.Spin, before[i].Spin+b.SpinRate)
		}
	}
}

func TestStep_FixedBodiesStayPut(t *testing.T) {
	for _, scheme := range []Scheme{SchemeKDK, SchemeVerlet, SchemeEuler} {
		t.Run(scheme.String(), func(t *testing.T) {
			sys := solarSystem(t, WithScheme(scheme))
			sys.InitCircularOrbits()
			sun, _ := sys.Lookup("Sun")
			start := sys.Position(sun)

			for i := 0; i < 200; i++ {
				sys.Step(0.1)
			}

			if got := sys.Position(sun); got != start {
				t.Errorf("sun moved to %v", got)
			}
			if got := sys.Body(sun).Velocity(); got != (r3.Vec{}) {
				t.Errorf("sun velocity = %v", got)
			}
		})
	}
}

func TestStep_OrbitStaysOnCircle(t *testing.T) {
	sys := solarSystem(t)
	sys.InitCircularOrbits()
	earth, _ := sys.Lookup("Earth")
	moon, _ := sys.Lookup("Moon")

	for _, dt := range []float64{0.1, 1, 0.01, 5} {
		for i := 0; i < 50; i++ {
			sys.Step(dt)
			d := r3.Norm(r3.Sub(sys.Position(moon), sys.Position(earth)))
			if math.Abs(d-10) > 1e-9 {
				t.Fatalf("dt=%v step %d: moon-earth distance %v, want 10", dt, i, d)
			}
		}
	}

	o, _ := sys.Body(moon).Orbit()
	if sys.Position(moon).Y != sys.Position(earth).Y+o.VerticalOffset {
		t.Error("moon left its vertical offset plane")
	}
}

func TestStep_CircularOrbitHolds(t *testing.T) {
	for _, scheme := range []Scheme{SchemeKDK, SchemeVerlet} {
		t.Run(scheme.String(), func(t *testing.T) {
			sys := New(WithScheme(scheme))
			sys.AddBody(Spec{Name: "Sun", Mass: 1000, Fixed: true})
			earth, _ := sys.AddBody(Spec{Name: "Earth", Mass: 1, Position: r3.Vec{X: 100}})
			sys.InitCircularOrbits()

			e0 := sys.Energy()
			// Period 2πr/v ≈ 6283 time units.
			for i := 0; i < 62832; i++ {
				sys.Step(0.1)
			}

			r := r3.Norm(sys.Position(earth))
			if math.Abs(r-100) > 1 {
				t.Errorf("radius after one period = %v, want ~100", r)
			}
			if drift := math.Abs((sys.Energy() - e0) / e0); drift > 5e-3 {
				t.Errorf("energy drift = %v", drift)
			}
		})
	}
}

func TestStep_SpinIsPerCall(t *testing.T) {
	sys := solarSystem(t)
	venus, _ := sys.Lookup("Venus")

	for i := 0; i < 10; i++ {
		sys.Step(float64(i + 1))
	}

	if got := sys.Body(venus).Spin; math.Abs(got-2.0) > 1e-12 {
		t.Errorf("venus spin = %v, want 2.0", got)
	}
}

func TestMomentum(t *testing.T) {
	sys := New()
	sys.AddBody(Spec{Name: "A", Mass: 2, Velocity: r3.Vec{X: 1}})
	sys.AddBody(Spec{Name: "B", Mass: 1, Position: r3.Vec{X: 10}, Velocity: r3.Vec{X: -2, Z: 1}})

	if got := sys.Momentum(); got != (r3.Vec{Z: 1}) {
		t.Errorf("Momentum() = %v", got)
	}
	// B: 1·((10,0,0) × (-2,0,1)) = (0,-10,0)
	if got := sys.AngularMomentum(); got != (r3.Vec{Y: -10}) {
		t.Errorf("AngularMomentum() = %v", got)
	}
}

func TestStep_TwoBodyConservesMomentum(t *testing.T) {
	sys := New(WithScheme(SchemeVerlet))
	sys.AddBody(Spec{Name: "A", Mass: 10, Position: r3.Vec{X: -5}, Velocity: r3.Vec{Z: -0.01}})
	sys.AddBody(Spec{Name: "B", Mass: 10, Position: r3.Vec{X: 5}, Velocity: r3.Vec{Z: 0.01}})
	sys.ComputeGravity()

	p0 := sys.Momentum()
	for i := 0; i < 1000; i++ {
		sys.Step(0.1)
	}
	if !near(sys.Momentum(), p0, 1e-12) {
		t.Errorf("momentum drifted from %v to %v", p0, sys.Momentum())
	}
}
