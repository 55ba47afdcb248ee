// Package pushers implements particle integrators for charged particles in
// electromagnetic fields.
//
//   - [Boris]: explicit Boris leapfrog, the standard energy-conserving pusher
//   - [ImplicitBoris]: implicit (Crank-Nicolson) rotation solved in closed form
//   - [ImplicitMagnetic]: implicit rotation that ignores the electric field
//   - [Zenitani]: Zenitani-Umeda relativistic pusher with exact gyration angle
//
// Every pusher follows the same three phases: half the electric impulse, a
// rotation of the velocity about B, then the second half of the impulse. Each
// advances velocities first and then positions by x += v dt.
//
// References:
//
//	C. K. Birdsall, A. B. Langdon, "Plasma Physics via Computer Simulation", 2004, p. 58-63
//	S. Zenitani, T. Umeda, "On the Boris solver in particle-in-cell simulation",
//	Physics of Plasmas 25, 112110 (2018)
package pushers
