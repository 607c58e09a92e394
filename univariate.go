package regrid

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// A UnivariateEstimator approximates a function of one variable by a
// polynomial of bounded degree fit by least squares, the single
// variable counterpart of BivariateEstimator.
type UnivariateEstimator struct {
	coeffs []float64
}

// NewUnivariateEstimator fits a polynomial of the given degree to the
// function values f at points x.
func NewUnivariateEstimator(x, f []float64, degree int) (*UnivariateEstimator, error) {
	if len(f) != len(x) {
		return nil, fmt.Errorf("regrid: mismatched sample lengths %d, %d", len(x), len(f))
	}
	terms := degree + 1
	m := len(x)
	if m < terms {
		return nil, fmt.Errorf("%w: %d points for %d terms", ErrInsufficientData, m, terms)
	}

	a := mat.NewDense(m, terms, nil)
	for k := range m {
		pow := 1.0
		for i := range terms {
			a.Set(k, i, pow)
			pow *= x[k]
		}
	}
	b := mat.NewVecDense(m, nil)
	for k := range m {
		b.SetVec(k, f[k])
	}

	coeffs, err := solveLeastSquares(a, b)
	if err != nil {
		return nil, err
	}
	return &UnivariateEstimator{coeffs: coeffs}, nil
}

// NewUnivariateEstimatorFromCoefficients reconstructs an estimator from
// a coefficient vector as returned by Coefficients.
func NewUnivariateEstimatorFromCoefficients(coeffs []float64) (*UnivariateEstimator, error) {
	if len(coeffs) == 0 {
		return nil, fmt.Errorf("regrid: empty coefficient vector")
	}
	est := &UnivariateEstimator{coeffs: make([]float64, len(coeffs))}
	copy(est.coeffs, coeffs)
	return est, nil
}

// Evaluate returns the polynomial value at vars[0].
func (est *UnivariateEstimator) Evaluate(vars []float64) float64 {
	x := vars[0]
	value := 0.0
	for i := len(est.coeffs) - 1; i >= 0; i-- {
		value = value*x + est.coeffs[i]
	}
	return value
}

// Coefficients returns the coefficient vector, constant term first.
func (est *UnivariateEstimator) Coefficients() []float64 {
	coeffs := make([]float64, len(est.coeffs))
	copy(coeffs, est.coeffs)
	return coeffs
}
