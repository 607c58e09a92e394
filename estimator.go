package regrid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingularSystem is returned when a polynomial fit's least-squares
// system is singular or rank deficient and no solution exists. Callers
// catch it locally and mark the affected region invalid rather than
// aborting.
var ErrSingularSystem = errors.New("regrid: singular least-squares system")

// ErrInsufficientData is returned when a polynomial fit is requested
// with fewer data points than polynomial terms.
var ErrInsufficientData = errors.New("regrid: insufficient data points for fit")

const machEps = 2.220446049250313e-16

// solveLeastSquares solves a*x = b for x. A square system is solved
// exactly; an overdetermined system is solved by singular value
// decomposition, using only singular directions up to the numerical
// rank to obtain the minimum-norm least-squares solution.
func solveLeastSquares(a *mat.Dense, b *mat.VecDense) ([]float64, error) {
	m, n := a.Dims()

	if m == n {
		var x mat.Dense
		err := x.Solve(a, b)
		if err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
				return nil, fmt.Errorf("%w: %v", ErrSingularSystem, err)
			}
		}
		solution := make([]float64, n)
		for i := range n {
			solution[i] = x.At(i, 0)
		}
		return solution, nil
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, ErrSingularSystem
	}
	values := svd.Values(nil)

	tol := float64(max(m, n)) * machEps * values[0]
	rank := 0
	for _, v := range values {
		if v > tol {
			rank++
		}
	}
	if rank == 0 {
		return nil, ErrSingularSystem
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// x = V * S^-1 * U^T * b over the first rank singular directions.
	var c mat.VecDense
	c.MulVec(u.T(), b)
	y := mat.NewVecDense(n, nil)
	for i := range rank {
		y.SetVec(i, c.AtVec(i)/values[i])
	}
	var x mat.VecDense
	x.MulVec(&v, y)

	solution := make([]float64, n)
	for i := range n {
		solution[i] = x.AtVec(i)
	}
	return solution, nil
}
