package regrid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// A BivariateEstimator approximates a function of two variables by a
// polynomial of bounded degree fit to a set of known function values by
// least squares. For degree d there are (d+1)^2 coefficients; the
// approximation is
//
//	f(x, y) = sum over i,j of coeffs[i*(d+1)+j] * x^i * y^j
//
// Fits with exactly (d+1)^2 points are solved exactly; overdetermined
// fits use an SVD minimum-norm solution.
type BivariateEstimator struct {
	terms  int
	coeffs []float64
}

// NewBivariateEstimator fits a bivariate polynomial of the given degree
// to the function values f at the points (x[k], y[k]). It returns
// ErrSingularSystem if the system cannot be solved and
// ErrInsufficientData if there are fewer points than coefficients.
func NewBivariateEstimator(x, y, f []float64, degree int) (*BivariateEstimator, error) {
	if len(y) != len(x) || len(f) != len(x) {
		return nil, fmt.Errorf("regrid: mismatched sample lengths %d, %d, %d", len(x), len(y), len(f))
	}
	terms := degree + 1
	m := len(x)
	n := terms * terms
	if m < n {
		return nil, fmt.Errorf("%w: %d points for %d terms", ErrInsufficientData, m, n)
	}

	a := mat.NewDense(m, n, nil)
	for k := range m {
		xPow := 1.0
		for i := range terms {
			yPow := 1.0
			for j := range terms {
				a.Set(k, i*terms+j, xPow*yPow)
				yPow *= y[k]
			}
			xPow *= x[k]
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
	return &BivariateEstimator{terms: terms, coeffs: coeffs}, nil
}

// NewBivariateEstimatorFromCoefficients reconstructs an estimator from
// a row-major coefficient vector as returned by Coefficients. The term
// count is inferred from the vector length.
func NewBivariateEstimatorFromCoefficients(coeffs []float64) (*BivariateEstimator, error) {
	terms := int(math.Round(math.Sqrt(float64(len(coeffs)))))
	if terms < 1 || terms*terms != len(coeffs) {
		return nil, fmt.Errorf("regrid: coefficient count %d is not a square", len(coeffs))
	}
	est := &BivariateEstimator{terms: terms, coeffs: make([]float64, len(coeffs))}
	copy(est.coeffs, coeffs)
	return est, nil
}

// Evaluate returns the polynomial value at vars = (x, y).
func (est *BivariateEstimator) Evaluate(vars []float64) float64 {
	if est.terms == 3 {
		return est.evaluateQuadratic(vars[0], vars[1])
	}

	// General degree: explicit power series and a bilinear form.
	terms := est.terms
	xPows := make([]float64, terms)
	yPows := make([]float64, terms)
	xPows[0], yPows[0] = 1, 1
	for i := 1; i < terms; i++ {
		xPows[i] = vars[0] * xPows[i-1]
		yPows[i] = vars[1] * yPows[i-1]
	}
	value := 0.0
	for i := range terms {
		rowSum := 0.0
		for j := range terms {
			rowSum += est.coeffs[i*terms+j] * yPows[j]
		}
		value += xPows[i] * rowSum
	}
	return value
}

// evaluateQuadratic is the closed-form path for the common degree-2
// case with 9 coefficients.
func (est *BivariateEstimator) evaluateQuadratic(x, y float64) float64 {
	a := est.coeffs
	x2 := x * x
	y2 := y * y
	return (a[0] + a[1]*y + a[2]*y2) +
		x*(a[3]+a[4]*y+a[5]*y2) +
		x2*(a[6]+a[7]*y+a[8]*y2)
}

// Coefficients returns the row-major coefficient vector.
func (est *BivariateEstimator) Coefficients() []float64 {
	coeffs := make([]float64, len(est.coeffs))
	copy(coeffs, est.coeffs)
	return coeffs
}
