package celestial_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/celestial"
)

func beClose(want r3.Vec) OmegaMatcher {
	return WithTransform(func(v r3.Vec) float64 {
		return r3.Norm(r3.Sub(v, want))
	}, BeNumerically("<", 1e-12))
}

var _ = Describe("Sun and Earth", func() {
	var (
		sys   *celestial.System
		sun   celestial.ID
		earth celestial.ID
	)

	BeforeEach(func() {
		var err error
		sys = celestial.New(celestial.WithG(0.001))
		sun, err = sys.AddBody(celestial.Spec{Name: "Sun", Mass: 1000, Fixed: true})
		Expect(err).NotTo(HaveOccurred())
		earth, err = sys.AddBody(celestial.Spec{Name: "Earth", Mass: 1, Position: r3.Vec{X: 100}})
		Expect(err).NotTo(HaveOccurred())
		Expect(sys.InitCircularOrbits()).To(Succeed())
	})

	It("starts Earth on a circular orbit", func() {
		b := sys.Body(earth)
		Expect(b.Velocity()).To(beClose(r3.Vec{Z: 0.1}))
		Expect(b.Acceleration()).To(beClose(r3.Vec{X: -1e-4}))
	})

	It("kicks, drifts and kicks with the stored acceleration", func() {
		Expect(sys.Step(0.1)).To(Succeed())

		b := sys.Body(earth)
		Expect(b.Position).To(beClose(r3.Vec{X: 100 - 5e-7, Z: 0.01}))
		Expect(b.Velocity()).To(beClose(r3.Vec{X: -1e-5, Z: 0.1}))
		Expect(sys.Time()).To(BeNumerically("~", 0.1, 1e-15))
	})

	It("never moves the Sun", func() {
		for i := 0; i < 100; i++ {
			Expect(sys.Step(0.1)).To(Succeed())
		}
		Expect(sys.Position(sun)).To(Equal(r3.Vec{}))
		Expect(sys.Body(sun).Acceleration()).To(Equal(r3.Vec{}))
	})

	It("refreshes the acceleration after each step", func() {
		Expect(sys.Step(0.1)).To(Succeed())

		pos := sys.Position(earth)
		r := r3.Norm(pos)
		want := r3.Scale(-0.001*1000/(r*r*r), pos)
		Expect(sys.Body(earth).Acceleration()).To(beClose(want))
	})
})

var _ = Describe("Earth and a kinematic Moon", func() {
	var (
		sys   *celestial.System
		earth celestial.ID
		moon  celestial.ID
	)

	BeforeEach(func() {
		sys = celestial.New()
		earth, _ = sys.AddBody(celestial.Spec{Name: "Earth", Mass: 1})
		var err error
		moon, err = sys.AddBody(celestial.Spec{
			Name:        "Moon",
			Mass:        0.0123,
			Parent:      "Earth",
			OrbitRadius: 10,
			OrbitSpeed:  0.01,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("follows the moving Earth at a fixed radius", func() {
		for i := 0; i < 10; i++ {
			Expect(sys.Step(1)).To(Succeed())
		}

		o, ok := sys.Body(moon).Orbit()
		Expect(ok).To(BeTrue())
		Expect(o.Angle).To(BeNumerically("~", 0.1, 1e-12))

		e := sys.Position(earth)
		want := r3.Add(e, r3.Vec{X: 10 * math.Cos(o.Angle), Z: 10 * math.Sin(o.Angle)})
		Expect(sys.Position(moon)).To(Equal(want))
	})

	It("pulls Earth without feeling a pull itself", func() {
		for i := 0; i < 10; i++ {
			Expect(sys.Step(1)).To(Succeed())
		}

		Expect(sys.Position(earth)).NotTo(Equal(r3.Vec{}))
		Expect(sys.Body(moon).Acceleration()).To(Equal(r3.Vec{}))
		Expect(sys.Body(moon).Velocity()).To(Equal(r3.Vec{}))
	})

	It("is reported as the Moon's center", func() {
		c, ok := sys.Center(moon)
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(earth))
	})
})

var _ = Describe("AddBody", func() {
	It("rejects a parent registered later", func() {
		sys := celestial.New()
		_, err := sys.AddBody(celestial.Spec{Name: "Moon", Mass: 1, Parent: "Earth"})
		Expect(err).To(MatchError(celestial.ErrUnknownParent))

		_, err = sys.AddBody(celestial.Spec{Name: "Earth", Mass: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(sys.Len()).To(Equal(1))
	})
})
