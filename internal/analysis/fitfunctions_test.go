package analysis_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/plasmakit/internal/analysis"
)

var samples = map[string][]float64{
	"linear":                  {1.5, -0.5},
	"exponential":             {2, -0.7},
	"exponential_plus_linear": {0.5, 0.8, 2, -3},
	"exponential_plus_offset": {2, 0.5, -8},
}

var _ = Describe("Fit functions", func() {
	for _, name := range analysis.FitFunctionNames() {
		name := name

		Context(name, func() {
			var fn analysis.FitFunction

			BeforeEach(func() {
				var err error
				fn, err = analysis.LookupFitFunction(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(fn.Name()).To(Equal(name))
				Expect(fn.ParamNames()).To(HaveLen(fn.NumParams()))
			})

			It("has a gradient matching finite differences", func() {
				p := samples[name]
				x := 0.7
				grad := make([]float64, fn.NumParams())
				fn.Gradient(x, p, grad)

				for i := range p {
					h := 1e-6 * math.Max(1, math.Abs(p[i]))
					up := append([]float64(nil), p...)
					dn := append([]float64(nil), p...)
					up[i] += h
					dn[i] -= h
					numeric := (fn.Eval(x, up) - fn.Eval(x, dn)) / (2 * h)
					Expect(grad[i]).To(BeNumerically("~", numeric, 1e-6), fn.ParamNames()[i])
				}
			})

			It("has an x derivative matching finite differences", func() {
				p := samples[name]
				h := 1e-6
				numeric := (fn.Eval(1.2+h, p) - fn.Eval(1.2-h, p)) / (2 * h)
				Expect(fn.DerivX(1.2, p)).To(BeNumerically("~", numeric, 1e-6))
			})

			It("formats its formula", func() {
				Expect(fn.String()).To(HavePrefix("f(x) = "))
				Expect(fn.Format(samples[name])).To(HavePrefix("f(x) = "))
				Expect(fn.Latex()).NotTo(BeEmpty())
			})
		})
	}

	It("evaluates a linear function", func() {
		fn := analysis.Linear{}
		Expect(fn.Eval(2, []float64{3, 1})).To(Equal(7.0))
		Expect(fn.Format([]float64{3, -1})).To(Equal("f(x) = 3 x - 1"))
		Expect(fn.Format([]float64{3, 1})).To(Equal("f(x) = 3 x + 1"))
	})

	It("looks up names case-insensitively and rejects unknown ones", func() {
		fn, err := analysis.LookupFitFunction(" Linear ")
		Expect(err).NotTo(HaveOccurred())
		Expect(fn).To(Equal(analysis.Linear{}))

		_, err = analysis.LookupFitFunction("quadratic")
		Expect(errors.Is(err, analysis.ErrUnknownFitFunction)).To(BeTrue())
	})

	Describe("analytic roots", func() {
		It("solves the linear root and its error", func() {
			fit := &analysis.Fit{
				Function:    analysis.Linear{},
				Params:      []float64{2, -4},
				ParamErrors: []float64{0.1, 0.2},
			}
			root, rootErr, err := fit.Root(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(root).To(Equal(2.0))
			Expect(rootErr).To(BeNumerically("~", math.Sqrt(0.02), 1e-12))
		})

		It("keeps the linear root error finite at b = 0", func() {
			fit := &analysis.Fit{Function: analysis.Linear{}, Params: []float64{2, 0}, ParamErrors: []float64{0.1, 0.2}}
			root, rootErr, err := fit.Root(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(root).To(BeZero())
			Expect(rootErr).To(BeNumerically("~", 0.1, 1e-12))
		})

		It("reports no root for a flat line", func() {
			fit := &analysis.Fit{Function: analysis.Linear{}, Params: []float64{0, 1}, ParamErrors: []float64{0, 0}}
			_, _, err := fit.Root(0)
			Expect(errors.Is(err, analysis.ErrNoRoot)).To(BeTrue())
		})

		It("never finds a root of a pure exponential", func() {
			fit := &analysis.Fit{Function: analysis.Exponential{}, Params: []float64{1, 1}, ParamErrors: []float64{0, 0}}
			_, _, err := fit.Root(0)
			Expect(errors.Is(err, analysis.ErrNoRoot)).To(BeTrue())
		})

		It("solves the exponential plus offset root", func() {
			fit := &analysis.Fit{
				Function:    analysis.ExponentialPlusOffset{},
				Params:      []float64{2, 0.5, -8},
				ParamErrors: []float64{0.1, 0.01, 0.2},
			}
			root, rootErr, err := fit.Root(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(root).To(BeNumerically("~", math.Log(4)/0.5, 1e-12))

			want := math.Sqrt(math.Pow(0.1/(2*0.5), 2) + math.Pow(0.01*root/0.5, 2) + math.Pow(0.2/(0.5*-8), 2))
			Expect(rootErr).To(BeNumerically("~", want, 1e-12))

			fit.Params[2] = 8
			_, _, err = fit.Root(0)
			Expect(errors.Is(err, analysis.ErrNoRoot)).To(BeTrue())
		})
	})
})
