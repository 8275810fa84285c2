// Package analysis provides post-run tools for orbital trajectories.
//
// The package works on sampled series and on freshly built registries:
//
//   - [PowerSpectrum], [DominantPeriod]: spectral estimate of orbital periods
//   - [LyapunovExponent]: finite-time divergence of two nearby scenes
//   - [DriftSweep]: energy drift against step size
//   - [GeneratePhasePortrait]: 2D trace of a body in any coordinate pair
//   - [GeneratePoincareSection]: section of a trace at a coordinate threshold
//
// # Orbital Period
//
// The x coordinate of a body on a circular orbit is a sinusoid, so its
// spectrum peaks at the orbital period:
//
//	xs, _ := traj.Series(earth, "x")
//	period, ok := analysis.DominantPeriod(xs, traj.Times[1]-traj.Times[0])
package analysis
