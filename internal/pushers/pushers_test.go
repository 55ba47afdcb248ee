package pushers_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/plasmakit/internal/plasma"
	"github.com/san-kum/plasmakit/internal/pushers"
)

func run(p plasma.Pusher, sp plasma.Species, x, v []plasma.Vec3, b, e plasma.Vec3, dt float64, steps int) {
	bs := make([]plasma.Vec3, len(x))
	es := make([]plasma.Vec3, len(x))
	for i := range bs {
		bs[i] = b
		es[i] = e
	}
	for i := 0; i < steps; i++ {
		p.Push(x, v, bs, es, sp.Charge, sp.Mass, dt)
	}
}

var _ = Describe("Pushers", func() {
	bz := plasma.Vec3{0, 0, 1}

	for _, name := range pushers.Names() {
		name := name

		Context(name, func() {
			var p plasma.Pusher

			BeforeEach(func() {
				var err error
				p, err = pushers.Lookup(name)
				Expect(err).NotTo(HaveOccurred())
			})

			It("conserves speed in a pure magnetic field", func() {
				x := []plasma.Vec3{{}}
				v := []plasma.Vec3{{1e5, 0, 2e4}}
				speed := v[0].Norm()

				run(p, plasma.Proton, x, v, plasma.Vec3{0.3, -0.2, 1}, plasma.Vec3{}, 1e-10, 2000)

				Expect(math.Abs(v[0].Norm()-speed) / speed).To(BeNumerically("<", 1e-9))
			})

			It("gyrates a proton clockwise about +z", func() {
				x := []plasma.Vec3{{}}
				v := []plasma.Vec3{{1e5, 0, 0}}

				run(p, plasma.Proton, x, v, bz, plasma.Vec3{}, 1e-10, 1)

				Expect(v[0][1]).To(BeNumerically("<", 0))
			})

			It("gyrates an electron the other way", func() {
				x := []plasma.Vec3{{}}
				v := []plasma.Vec3{{1e5, 0, 0}}

				run(p, plasma.Electron, x, v, bz, plasma.Vec3{}, 1e-13, 1)

				Expect(v[0][1]).To(BeNumerically(">", 0))
			})

			It("moves positions with the updated velocity", func() {
				x := []plasma.Vec3{{1, 2, 3}}
				v := []plasma.Vec3{{0, 0, 10}}

				run(p, plasma.Proton, x, v, plasma.Vec3{}, plasma.Vec3{}, 0.1, 1)

				Expect(x[0][2]).To(BeNumerically("~", 4, 1e-12))
				Expect(x[0][0]).To(Equal(1.0))
			})
		})
	}

	It("keeps the E x B drift velocity fixed for the Boris family", func() {
		e := plasma.Vec3{0, 1e3, 0}
		drift := plasma.Vec3{1e3, 0, 0}

		for _, p := range []plasma.Pusher{pushers.NewBoris(), pushers.NewImplicitBoris()} {
			x := []plasma.Vec3{{}}
			v := []plasma.Vec3{drift}

			run(p, plasma.Proton, x, v, bz, e, 1e-10, 500)

			Expect(v[0].Sub(drift).Norm()).To(BeNumerically("<", 1e-6), p.Name())
			Expect(x[0][0]).To(BeNumerically("~", 1e3*500*1e-10, 1e-12))
		}
	})

	It("tracks the E x B drift with the Zenitani pusher", func() {
		x := []plasma.Vec3{{}}
		drift := plasma.Vec3{1e3, 0, 0}
		v := []plasma.Vec3{drift}

		run(pushers.NewZenitani(), plasma.Proton, x, v, bz, plasma.Vec3{0, 1e3, 0}, 1e-10, 500)

		Expect(v[0].Sub(drift).Norm()).To(BeNumerically("<", 1))
	})

	It("matches explicit and implicit Boris in general fields", func() {
		b := plasma.Vec3{0.4, -1.1, 0.7}
		e := plasma.Vec3{300, -120, 50}

		x1 := []plasma.Vec3{{0.1, 0, 0}}
		v1 := []plasma.Vec3{{2e4, -3e4, 1e4}}
		x2 := plasma.CloneVecs(x1)
		v2 := plasma.CloneVecs(v1)

		run(pushers.NewBoris(), plasma.Proton, x1, v1, b, e, 5e-10, 300)
		run(pushers.NewImplicitBoris(), plasma.Proton, x2, v2, b, e, 5e-10, 300)

		Expect(v1[0].Sub(v2[0]).Norm() / v1[0].Norm()).To(BeNumerically("<", 1e-9))
		Expect(x1[0].Sub(x2[0]).Norm()).To(BeNumerically("<", 1e-12))
	})

	It("ignores the electric field in the magnetic-only implicit pusher", func() {
		x := []plasma.Vec3{{}}
		v := []plasma.Vec3{{10, 20, 30}}

		run(pushers.NewImplicitMagnetic(), plasma.Proton, x, v, plasma.Vec3{}, plasma.Vec3{1e6, 0, 0}, 1e-9, 10)

		Expect(v[0]).To(Equal(plasma.Vec3{10, 20, 30}))
	})

	It("agrees with the full implicit pusher when E is zero", func() {
		b := plasma.Vec3{1, 2, 3}
		v1 := []plasma.Vec3{{1e4, 2e4, -5e3}}
		v2 := plasma.CloneVecs(v1)

		run(pushers.NewImplicitBoris(), plasma.Proton, []plasma.Vec3{{}}, v1, b, plasma.Vec3{}, 1e-9, 100)
		run(pushers.NewImplicitMagnetic(), plasma.Proton, []plasma.Vec3{{}}, v2, b, plasma.Vec3{}, 1e-9, 100)

		Expect(v1[0].Sub(v2[0]).Norm()).To(BeNumerically("<", 1e-6))
	})

	It("keeps a relativistic electron below light speed", func() {
		x := []plasma.Vec3{{}}
		v := []plasma.Vec3{{0.9 * plasma.SpeedOfLight, 0, 0}}

		run(pushers.NewZenitani(), plasma.Electron, x, v, plasma.Vec3{0, 0, 0.1}, plasma.Vec3{0, 1e5, 0}, 1e-12, 1000)

		Expect(v[0].Norm()).To(BeNumerically("<", plasma.SpeedOfLight))
		Expect(v[0].IsValid()).To(BeTrue())
	})

	It("gyrates at the relativistic frequency", func() {
		speed := 0.6 * plasma.SpeedOfLight
		gamma := 1 / math.Sqrt(1-0.36)
		omega := math.Abs(plasma.Electron.Charge) * 0.01 / (gamma * plasma.Electron.Mass)
		dt := 1e-12
		steps := 200

		x := []plasma.Vec3{{}}
		v := []plasma.Vec3{{speed, 0, 0}}
		run(pushers.NewZenitani(), plasma.Electron, x, v, plasma.Vec3{0, 0, 0.01}, plasma.Vec3{}, dt, steps)

		phase := math.Atan2(v[0][1], v[0][0])
		Expect(phase).To(BeNumerically("~", omega*dt*float64(steps), 1e-6))
	})

	It("rejects unknown names", func() {
		_, err := pushers.Lookup("leapfrog")
		Expect(errors.Is(err, plasma.ErrUnknownPusher)).To(BeTrue())
	})

	It("pushes many particles across workers", func() {
		n := 1000
		x := make([]plasma.Vec3, n)
		v := make([]plasma.Vec3, n)
		for i := range v {
			v[i] = plasma.Vec3{float64(i), 0, 0}
		}

		run(&pushers.Boris{Workers: 4}, plasma.Proton, x, v, plasma.Vec3{}, plasma.Vec3{}, 1, 1)

		for i := range x {
			Expect(x[i][0]).To(Equal(float64(i)))
		}
	})

	It("sets workers on every registered pusher", func() {
		for _, name := range pushers.Names() {
			p, err := pushers.LookupWorkers(name, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name()).NotTo(BeEmpty())

			var workers int
			switch p := p.(type) {
			case *pushers.Boris:
				workers = p.Workers
			case *pushers.ImplicitBoris:
				workers = p.Workers
			case *pushers.ImplicitMagnetic:
				workers = p.Workers
			case *pushers.Zenitani:
				workers = p.Workers
			}
			Expect(workers).To(Equal(3), name)
		}

		_, err := pushers.LookupWorkers("rk4", 2)
		Expect(errors.Is(err, plasma.ErrUnknownPusher)).To(BeTrue())
	})
})
