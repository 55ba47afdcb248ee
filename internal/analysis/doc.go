// Package analysis fits, solves and inspects tracker output.
//
// The package includes:
//
//   - [FitFunction] models ([Linear], [Exponential], [ExponentialPlusLinear],
//     [ExponentialPlusOffset]) with analytic parameter gradients
//   - [CurveFit]: weighted Levenberg-Marquardt least squares with parameter
//     covariance
//   - [Quadrature], [PropagateIndependent], [PropagateCovariance]: first-order
//     uncertainty propagation
//   - [FindRoot] and [Brent]: scalar root solvers, used by [Fit.Root]
//   - [PowerSpectrum] and [DominantFrequency]: spectral content of a series
//   - [ProjectOrbit] and [Crossings]: trajectory projections
//
// # Fitting
//
// Fit the magnetic moment decay of a run and find where it crosses zero:
//
//	fit, err := analysis.CurveFit(analysis.Linear{}, t, mu, analysis.FitOptions{})
//	root, rootErr, err := fit.Root(0)
//
// Covariances are scaled by the reduced chi-square unless
// [FitOptions].AbsoluteSigma is set.
package analysis
