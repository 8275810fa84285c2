// Package celestial advances the physical state of a set of celestial bodies.
//
// The package defines the body record and the ordered registry that drives it:
//
//   - [Body]: name, mass, position and a dynamics [Motion]
//   - [Motion]: one of [Fixed], [*Orbit] (kinematic satellite) or [*Free]
//   - [System]: ordered registry, circular-orbit initializer, gravity
//     accumulator and stepper
//
// # Example
//
//	sys := celestial.New(celestial.WithG(0.001))
//	sys.AddBody(celestial.Spec{Name: "Sun", Mass: 1000, Fixed: true})
//	sys.AddBody(celestial.Spec{Name: "Earth", Mass: 1, Position: r3.Vec{X: 100}})
//	sys.InitCircularOrbits()
//	for i := 0; i < 1000; i++ {
//	    sys.Step(0.1)
//	}
//
// # Ordering
//
// Registry order is significant. It decides which body wins a tie in the
// dominant-influence search and fixes the floating-point summation order of
// the accumulator, so two systems built from the same specs in the same
// order evolve bit-for-bit identically.
//
// # Thread Safety
//
// System instances are NOT thread-safe. A single host loop owns a System;
// the optional accumulator workers join before ComputeGravity returns.
package celestial
