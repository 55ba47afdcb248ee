package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Quadrature is the root-sum-square of the terms.
func Quadrature(terms ...float64) float64 {
	if len(terms) == 0 {
		return 0
	}
	return floats.Norm(terms, 2)
}

// PropagateIndependent is first-order error propagation for independent
// inputs: sqrt(sum (grad_i errs_i)^2). It panics if the lengths differ.
func PropagateIndependent(grad, errs []float64) float64 {
	terms := make([]float64, len(grad))
	floats.MulTo(terms, grad, errs)
	return Quadrature(terms...)
}

// PropagateCovariance is first-order error propagation with correlated
// inputs: sqrt(g^T C g).
func PropagateCovariance(grad []float64, cov mat.Symmetric) float64 {
	g := mat.NewVecDense(len(grad), grad)
	v := mat.Inner(g, cov, g)
	if v < 0 {
		// rounding on a near-singular covariance
		v = 0
	}
	return math.Sqrt(v)
}
