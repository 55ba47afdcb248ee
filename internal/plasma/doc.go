// Package plasma provides the core primitives for charged-particle simulation.
//
// The package defines the shared vocabulary used by the pushers, field sources
// and the particle tracker:
//
//   - [Vec3]: a Cartesian 3-vector (positions, velocities, fields)
//   - [Species]: charge and mass of a particle species
//   - [FieldSource]: electromagnetic fields B(x, t) and E(x, t)
//   - [Pusher]: numerical particle integrator advancing x and v in place
//   - [Solution]: recorded time series of a tracker run
//
// # Example
//
//	src := fields.NewUniform(plasma.Vec3{0, 0, 1}, plasma.Vec3{})
//	push, _ := pushers.Lookup("boris")
//	tr, _ := tracker.New(src, plasma.Proton, x0, v0, push)
//	sol, _ := tr.Run(ctx, plasma.DefaultConfig())
//
// # Units
//
// All quantities are SI: metres, metres per second, tesla, volts per metre,
// coulombs and kilograms. Unit conversion happens at the edges (config, grids).
//
// # Thread Safety
//
// Pushers are stateless and safe to share. A [Solution] must not be mutated
// while being read from another goroutine.
package plasma
