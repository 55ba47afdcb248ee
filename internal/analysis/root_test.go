package analysis_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/plasmakit/internal/analysis"
)

var _ = Describe("Root solvers", func() {
	It("converges with Newton on a smooth function", func() {
		res, err := analysis.FindRoot(
			func(x float64) float64 { return x*x - 2 },
			func(x float64) float64 { return 2 * x },
			1, analysis.RootOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Method).To(Equal(analysis.MethodNewton))
		Expect(res.Root).To(BeNumerically("~", math.Sqrt2, 1e-12))
	})

	It("damps Newton where the plain iteration diverges", func() {
		res, err := analysis.FindRoot(math.Atan, func(x float64) float64 { return 1 / (1 + x*x) }, 3, analysis.RootOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Root).To(BeNumerically("~", 0, 1e-10))
	})

	It("falls back to Brent without a derivative", func() {
		res, err := analysis.FindRoot(math.Cos, nil, 1, analysis.RootOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Method).To(Equal(analysis.MethodBrent))
		Expect(res.Root).To(BeNumerically("~", math.Pi/2, 1e-10))
	})

	It("gives up when no sign change exists", func() {
		_, err := analysis.FindRoot(
			func(x float64) float64 { return x*x + 1 },
			func(x float64) float64 { return 2 * x },
			0.5, analysis.RootOptions{})
		Expect(errors.Is(err, analysis.ErrNoBracket)).To(BeTrue())
	})

	It("solves a cubic with Brent", func() {
		res, err := analysis.Brent(func(x float64) float64 { return x*x*x - x - 2 }, 1, 2, 1e-14, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Root).To(BeNumerically("~", 1.5213797068045676, 1e-12))
		Expect(res.Iterations).To(BeNumerically("<", 20))
	})

	It("requires Brent's interval to bracket a root", func() {
		_, err := analysis.Brent(func(x float64) float64 { return x*x*x - x - 2 }, 2, 3, 1e-12, 100)
		Expect(errors.Is(err, analysis.ErrNoBracket)).To(BeTrue())
	})

	It("returns an endpoint that is already a root", func() {
		res, err := analysis.Brent(func(x float64) float64 { return x - 1 }, 1, 5, 1e-12, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Root).To(Equal(1.0))
	})
})
