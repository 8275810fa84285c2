package celestial

import "errors"

// Domain errors for registry and stepping operations.
var (
	// ErrDuplicateName indicates a body name already present in the registry.
	ErrDuplicateName = errors.New("celestial: duplicate body name")

	// ErrUnknownParent indicates a parent that is not registered yet.
	ErrUnknownParent = errors.New("celestial: unknown parent")

	// ErrInvalidMass indicates a mass that is not a positive finite number.
	ErrInvalidMass = errors.New("celestial: mass must be positive and finite")

	// ErrConflictingMode indicates a spec that is both fixed and parented.
	ErrConflictingMode = errors.New("celestial: body cannot be both fixed and parented")

	// ErrInvalidState indicates a non-finite position or velocity.
	ErrInvalidState = errors.New("celestial: position and velocity must be finite")

	// ErrInvalidOrbit indicates a negative or non-finite orbit radius, or a
	// non-finite orbit angle, speed or vertical offset.
	ErrInvalidOrbit = errors.New("celestial: invalid orbit parameters")

	// ErrInvalidStep indicates a negative or non-finite time delta.
	ErrInvalidStep = errors.New("celestial: dt must be finite and non-negative")

	// ErrAlreadyInitialized indicates a second circular-orbit initialization.
	ErrAlreadyInitialized = errors.New("celestial: circular orbits already initialized")

	// ErrDiverged indicates a non-finite position, velocity or acceleration.
	ErrDiverged = errors.New("celestial: state diverged (NaN or Inf detected)")
)
