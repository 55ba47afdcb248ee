package analysis_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/plasmakit/internal/analysis"
)

func series(lo, step float64, n int, f func(x float64) float64) (xs, ys []float64) {
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := range xs {
		xs[i] = lo + step*float64(i)
		ys[i] = f(xs[i])
	}
	return xs, ys
}

// alternating +-0.1 noise keeps the tests deterministic
func noisy(f func(x float64) float64) func(x float64) float64 {
	i := 0
	return func(x float64) float64 {
		i++
		return f(x) + 0.1*math.Pow(-1, float64(i))
	}
}

var _ = Describe("CurveFit", func() {
	It("recovers exact linear data", func() {
		x, y := series(0, 1, 10, func(x float64) float64 { return 2*x + 1 })

		fit, err := analysis.CurveFit(analysis.Linear{}, x, y, analysis.FitOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(fit.Converged).To(BeTrue())
		Expect(fit.Params[0]).To(BeNumerically("~", 2, 1e-8))
		Expect(fit.Params[1]).To(BeNumerically("~", 1, 1e-8))
		Expect(fit.RSquared).To(BeNumerically("~", 1, 1e-12))
		Expect(fit.DOF).To(Equal(8))
	})

	It("matches ordinary least squares and its standard errors", func() {
		x, y := series(0, 0.5, 12, noisy(func(x float64) float64 { return -1.5*x + 4 }))

		fit, err := analysis.CurveFit(analysis.Linear{}, x, y, analysis.FitOptions{})
		Expect(err).NotTo(HaveOccurred())

		intercept, slope := stat.LinearRegression(x, y, nil, false)
		Expect(fit.Params[0]).To(BeNumerically("~", slope, 1e-6))
		Expect(fit.Params[1]).To(BeNumerically("~", intercept, 1e-6))

		var ssRes, sxx float64
		mx := stat.Mean(x, nil)
		for i := range x {
			r := y[i] - (slope*x[i] + intercept)
			ssRes += r * r
			sxx += (x[i] - mx) * (x[i] - mx)
		}
		s2 := ssRes / float64(len(x)-2)
		Expect(fit.ChiSq).To(BeNumerically("~", ssRes, 1e-9))
		Expect(fit.ParamErrors[0]).To(BeNumerically("~", math.Sqrt(s2/sxx), 1e-6))
		Expect(fit.ParamErrors[1]).To(BeNumerically("~", math.Sqrt(s2*(1/float64(len(x))+mx*mx/sxx)), 1e-6))

		m, dm, err := fit.Param("m")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(fit.Params[0]))
		Expect(dm).To(Equal(fit.ParamErrors[0]))

		_, _, err = fit.Param("q")
		Expect(errors.Is(err, analysis.ErrUnknownParam)).To(BeTrue())
	})

	It("fits a decaying exponential", func() {
		x, y := series(0, 0.1, 11, func(x float64) float64 { return 3 * math.Exp(-2*x) })

		fit, err := analysis.CurveFit(analysis.Exponential{}, x, y, analysis.FitOptions{InitialParams: []float64{1, -1}})
		Expect(err).NotTo(HaveOccurred())
		Expect(fit.Params[0]).To(BeNumerically("~", 3, 1e-6))
		Expect(fit.Params[1]).To(BeNumerically("~", -2, 1e-6))
		Expect(fit.Eval(0.5)).To(BeNumerically("~", 3*math.Exp(-1), 1e-6))
	})

	It("fits an exponential plus offset and finds its root", func() {
		x, y := series(0, 0.25, 21, func(x float64) float64 { return 2*math.Exp(0.5*x) - 8 })

		fit, err := analysis.CurveFit(analysis.ExponentialPlusOffset{}, x, y,
			analysis.FitOptions{InitialParams: []float64{1.5, 0.4, -7}})
		Expect(err).NotTo(HaveOccurred())
		Expect(fit.Params).To(HaveLen(3))
		Expect(fit.Params[0]).To(BeNumerically("~", 2, 1e-5))
		Expect(fit.Params[1]).To(BeNumerically("~", 0.5, 1e-5))
		Expect(fit.Params[2]).To(BeNumerically("~", -8, 1e-5))

		root, _, err := fit.Root(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(root).To(BeNumerically("~", 2*math.Log(4), 1e-5))
	})

	It("finds the root of an exponential plus linear fit numerically", func() {
		truth := func(x float64) float64 { return 0.5*math.Exp(0.8*x) + 2*x - 3 }
		x, y := series(0, 0.2, 21, truth)

		fit, err := analysis.CurveFit(analysis.ExponentialPlusLinear{}, x, y,
			analysis.FitOptions{InitialParams: []float64{0.4, 0.7, 1.5, -2}})
		Expect(err).NotTo(HaveOccurred())

		want, err := analysis.Brent(truth, 0, 2, 1e-14, 200)
		Expect(err).NotTo(HaveOccurred())

		root, rootErr, err := fit.Root(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(root).To(BeNumerically("~", want.Root, 1e-5))
		Expect(rootErr).To(BeNumerically(">", 0))
	})

	It("propagates parameter errors through a numeric root", func() {
		// e^x + x - 1 vanishes at 0 where the slope is 2
		fit := &analysis.Fit{
			Function:    analysis.ExponentialPlusLinear{},
			Params:      []float64{1, 1, 1, -1},
			ParamErrors: []float64{0.1, 0.2, 0.3, 0.4},
		}
		root, rootErr, err := fit.Root(0.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(root).To(BeNumerically("~", 0, 1e-10))
		// gradient at the root is (1, 0, 0, 1)
		Expect(rootErr).To(BeNumerically("~", math.Sqrt(0.1*0.1+0.4*0.4)/2, 1e-9))
	})

	It("scales the covariance by the reduced chi-square unless sigma is absolute", func() {
		x, y := series(0, 1, 8, noisy(func(x float64) float64 { return x }))
		sigma := func(s float64) []float64 {
			out := make([]float64, len(x))
			for i := range out {
				out[i] = s
			}
			return out
		}

		relSmall, err := analysis.CurveFit(analysis.Linear{}, x, y, analysis.FitOptions{Sigma: sigma(0.1)})
		Expect(err).NotTo(HaveOccurred())
		relLarge, err := analysis.CurveFit(analysis.Linear{}, x, y, analysis.FitOptions{Sigma: sigma(1)})
		Expect(err).NotTo(HaveOccurred())
		Expect(relSmall.ParamErrors[0]).To(BeNumerically("~", relLarge.ParamErrors[0], 1e-9))

		absSmall, err := analysis.CurveFit(analysis.Linear{}, x, y, analysis.FitOptions{Sigma: sigma(0.1), AbsoluteSigma: true})
		Expect(err).NotTo(HaveOccurred())
		absLarge, err := analysis.CurveFit(analysis.Linear{}, x, y, analysis.FitOptions{Sigma: sigma(1), AbsoluteSigma: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(absLarge.ParamErrors[0] / absSmall.ParamErrors[0]).To(BeNumerically("~", 10, 1e-6))
	})

	It("reports infinite covariance with zero degrees of freedom", func() {
		fit, err := analysis.CurveFit(analysis.Linear{}, []float64{0, 1}, []float64{1, 3}, analysis.FitOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(fit.DOF).To(BeZero())
		Expect(math.IsInf(fit.ParamErrors[0], 1)).To(BeTrue())
		Expect(math.IsInf(fit.Covariance.At(0, 1), 1)).To(BeTrue())
	})

	It("flags parameters the data cannot determine", func() {
		_, err := analysis.CurveFit(analysis.Linear{}, []float64{2, 2, 2}, []float64{1, 2, 3}, analysis.FitOptions{})
		Expect(errors.Is(err, analysis.ErrSingularMatrix)).To(BeTrue())
	})

	DescribeTable("rejects invalid data",
		func(x, y []float64, opts analysis.FitOptions) {
			_, err := analysis.CurveFit(analysis.Linear{}, x, y, opts)
			Expect(errors.Is(err, analysis.ErrInvalidData)).To(BeTrue())
		},
		Entry("empty", []float64{}, []float64{}, analysis.FitOptions{}),
		Entry("length mismatch", []float64{1, 2, 3}, []float64{1, 2}, analysis.FitOptions{}),
		Entry("too few points", []float64{1}, []float64{1}, analysis.FitOptions{}),
		Entry("NaN", []float64{1, 2, math.NaN()}, []float64{1, 2, 3}, analysis.FitOptions{}),
		Entry("zero sigma", []float64{1, 2, 3}, []float64{1, 2, 3}, analysis.FitOptions{Sigma: []float64{1, 0, 1}}),
		Entry("wrong initial params", []float64{1, 2, 3}, []float64{1, 2, 3}, analysis.FitOptions{InitialParams: []float64{1}}),
	)

	It("returns the partial fit when iterations run out", func() {
		x, y := series(0, 0.1, 11, func(x float64) float64 { return 3 * math.Exp(-2*x) })
		fit, err := analysis.CurveFit(analysis.Exponential{}, x, y, analysis.FitOptions{MaxIterations: 1})
		Expect(errors.Is(err, analysis.ErrNotConverged)).To(BeTrue())
		Expect(fit).NotTo(BeNil())
		Expect(fit.Iterations).To(Equal(1))
	})

	It("does not report a stalled fit as converged", func() {
		// the damping runs out while the amplitude collapses towards zero
		x, y := series(0, 10.0/49, 50, func(x float64) float64 { return 5 * math.Exp(-0.7*x) })
		for i := range y {
			y[i] += 0.01 * math.Pow(-1, float64(i))
		}
		fit, err := analysis.CurveFit(analysis.Exponential{}, x, y, analysis.FitOptions{InitialParams: []float64{1, 5}})
		Expect(errors.Is(err, analysis.ErrNotConverged)).To(BeTrue())
		Expect(fit).NotTo(BeNil())
		Expect(fit.Converged).To(BeFalse())
		Expect(fit.RSquared).To(BeNumerically("<", 0))
		Expect(fit.Iterations).To(BeNumerically("<", 600))
	})

	It("reports both a singular covariance and a missed convergence", func() {
		_, err := analysis.CurveFit(analysis.Linear{}, []float64{2, 2, 2}, []float64{1, 2, 3},
			analysis.FitOptions{MaxIterations: 1})
		Expect(errors.Is(err, analysis.ErrNotConverged)).To(BeTrue())
		Expect(errors.Is(err, analysis.ErrSingularMatrix)).To(BeTrue())
	})

	It("scans for starting parameters", func() {
		x, y := series(0, 0.1, 11, func(x float64) float64 { return 3 * math.Exp(-2*x) })
		p0, err := analysis.ScanInitialParams(context.Background(), analysis.Exponential{}, x, y,
			[][]float64{{1, 2, 3, 4}, {-3, -2, -1, 0, 1}})
		Expect(err).NotTo(HaveOccurred())
		Expect(p0).To(Equal([]float64{3, -2}))
	})
})

var _ = Describe("Uncertainty propagation", func() {
	It("adds in quadrature", func() {
		Expect(analysis.Quadrature(3, 4)).To(BeNumerically("~", 5, 1e-12))
		Expect(analysis.Quadrature()).To(BeZero())
		Expect(analysis.PropagateIndependent([]float64{1, 2}, []float64{3, 4})).To(BeNumerically("~", math.Sqrt(73), 1e-12))
	})

	It("uses the correlated covariance", func() {
		cov := mat.NewSymDense(2, []float64{0.01, 0.005, 0.005, 0.04})
		Expect(analysis.PropagateCovariance([]float64{3, 1}, cov)).To(BeNumerically("~", 0.4, 1e-12))
	})

	It("reduces to the closed form for a linear fit", func() {
		fit := &analysis.Fit{
			Function:    analysis.Linear{},
			Params:      []float64{2, 1},
			ParamErrors: []float64{0.1, 0.2},
			Covariance:  mat.NewSymDense(2, []float64{0.01, 0, 0, 0.04}),
		}
		y, yErr := fit.EvalErr(3, 0.5)
		Expect(y).To(Equal(7.0))
		Expect(yErr).To(BeNumerically("~", math.Sqrt(math.Pow(3*0.1, 2)+math.Pow(0.2, 2)+math.Pow(2*0.5, 2)), 1e-12))

		_, covErr := fit.EvalErrCov(3, 0.5)
		Expect(covErr).To(BeNumerically("~", yErr, 1e-12))
	})

	It("reduces to the closed form for an exponential fit", func() {
		fit := &analysis.Fit{
			Function:    analysis.Exponential{},
			Params:      []float64{3, -2},
			ParamErrors: []float64{0.3, 0.1},
		}
		y, yErr := fit.EvalErr(0.5, 0.05)
		Expect(y).To(BeNumerically("~", 3*math.Exp(-1), 1e-12))
		want := math.Abs(y) * math.Sqrt(math.Pow(0.3/3, 2)+math.Pow(0.5*0.1, 2)+math.Pow(-2*0.05, 2))
		Expect(yErr).To(BeNumerically("~", want, 1e-12))

		// no covariance: falls back to independent errors
		_, covErr := fit.EvalErrCov(0.5, 0.05)
		Expect(covErr).To(Equal(yErr))
	})
})
