package analysis_test

import (
	"errors"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/plasmakit/internal/analysis"
	"github.com/san-kum/plasmakit/internal/plasma"
	"github.com/san-kum/plasmakit/internal/pushers"
)

func sine(freq, dt float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2*math.Pi*freq*float64(i)*dt) + 0.3
	}
	return out
}

var _ = Describe("Spectral analysis", func() {
	It("puts a constant signal in the DC bin", func() {
		ps := analysis.PowerSpectrum([]float64{1, 1, 1, 1, 1, 1, 1, 1})
		Expect(ps).To(HaveLen(5))
		Expect(ps[0]).To(BeNumerically("~", 8, 1e-12))
		for _, p := range ps[1:] {
			Expect(p).To(BeNumerically("~", 0, 1e-12))
		}
	})

	It("finds the dominant frequency of a sine", func() {
		f, err := analysis.DominantFrequency(sine(50, 1e-3, 1000), 1e-3)
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(BeNumerically("~", 50, 1e-3))

		f, err = analysis.DominantFrequency(sine(37.3, 1e-3, 1000), 1e-3)
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(BeNumerically("~", 37.3, 0.5))
	})

	It("rejects short or badly sampled series", func() {
		_, err := analysis.DominantFrequency([]float64{1, 2}, 1)
		Expect(errors.Is(err, analysis.ErrInvalidData)).To(BeTrue())
		_, err = analysis.DominantFrequency(make([]float64, 10), 0)
		Expect(errors.Is(err, analysis.ErrInvalidData)).To(BeTrue())
	})

	It("recovers the proton gyrofrequency from a Boris orbit", func() {
		b := 0.5
		want := analysis.GyroFrequency(plasma.Proton, b)
		Expect(want).To(BeNumerically("~", 7.62e6, 1e4))

		period := 1 / want
		dt := period / 100
		n := 2000

		x := []plasma.Vec3{{}}
		v := []plasma.Vec3{{1e5, 0, 0}}
		bs := []plasma.Vec3{{0, 0, b}}
		es := []plasma.Vec3{{}}
		vx := make([]float64, n)
		push := pushers.NewBoris()
		for i := range vx {
			vx[i] = v[0][0]
			push.Push(x, v, bs, es, plasma.Proton.Charge, plasma.Proton.Mass, dt)
		}

		got, err := analysis.DominantFrequency(vx, dt)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeNumerically("~", want, 0.01*want))
	})
})

func circleSolution(n int) *plasma.Solution {
	sol := plasma.NewSolution(plasma.Proton, "boris", n)
	for i := 0; i < n; i++ {
		phi := 2 * math.Pi * float64(i) / float64(n)
		x := []plasma.Vec3{{math.Cos(phi), math.Sin(phi), math.Sin(3 * phi)}}
		sol.Record(float64(i), x, x, x, x)
	}
	return sol
}

var _ = Describe("Orbit projections", func() {
	It("projects a particle onto two axes", func() {
		proj, err := analysis.ProjectOrbit(circleSolution(64), 0, 0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(proj.Points).To(HaveLen(64))
		Expect(proj.Points[0]).To(Equal(analysis.Point{X: 1, Y: 0}))

		minX, maxX, minY, maxY := proj.Bounds()
		Expect(minX).To(BeNumerically("~", -1, 1e-9))
		Expect(maxX).To(Equal(1.0))
		Expect(minY).To(BeNumerically("~", -1, 1e-2))
		Expect(maxY).To(BeNumerically("~", 1, 1e-2))
	})

	It("renders the projection as text", func() {
		proj, _ := analysis.ProjectOrbit(circleSolution(64), 0, 0, 1)
		art := analysis.ProjectionToASCII(proj, 40, 20)

		lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
		Expect(lines).To(HaveLen(20))
		Expect(art).To(ContainSubstring("•"))
		Expect(art).To(ContainSubstring("o"))
		Expect(analysis.ProjectionToASCII(nil, 40, 20)).To(BeEmpty())
	})

	It("skips positions that are not finite", func() {
		proj := &analysis.OrbitProjection{Points: []analysis.Point{
			{X: math.NaN(), Y: 0}, {X: 0, Y: 0}, {X: 1, Y: math.Inf(1)}, {X: 1, Y: 1},
		}}
		minX, maxX, _, maxY := proj.Bounds()
		Expect(minX).To(Equal(0.0))
		Expect(maxX).To(Equal(1.0))
		Expect(maxY).To(Equal(1.0))

		art := analysis.ProjectionToASCII(proj, 20, 10)
		Expect(art).To(ContainSubstring("o"))
		Expect(strings.Count(art, "•")).To(Equal(1))

		none := &analysis.OrbitProjection{Points: []analysis.Point{{X: math.NaN(), Y: math.NaN()}}}
		Expect(analysis.ProjectionToASCII(none, 20, 10)).To(BeEmpty())
		minX, _, _, _ = none.Bounds()
		Expect(math.IsNaN(minX)).To(BeTrue())
	})

	It("rejects bad axes and particles", func() {
		_, err := analysis.ProjectOrbit(circleSolution(4), 0, 0, 3)
		Expect(errors.Is(err, plasma.ErrDimensionMismatch)).To(BeTrue())
		_, err = analysis.ProjectOrbit(circleSolution(4), 2, 0, 1)
		Expect(errors.Is(err, plasma.ErrDimensionMismatch)).To(BeTrue())
	})

	It("samples upward crossings of a plane", func() {
		pts, err := analysis.Crossings(circleSolution(120), 0, 2, 0.5, 0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(pts).To(HaveLen(3))
	})
})
