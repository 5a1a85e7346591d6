package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// maxCondition bounds the condition number of X'X accepted by ols.
const maxCondition = 1e12

var (
	errTooFewObservations = errors.New("too few observations for regression")
	errSingularDesign     = errors.New("regression design matrix is singular")
)

type olsFit struct {
	coef  []float64
	resid []float64
	rss   float64
	dof   int
	chol  *mat.Cholesky
}

// ols solves the least-squares problem y = X b through the normal equations.
func ols(x *mat.Dense, y []float64) (*olsFit, error) {
	rows, cols := x.Dims()
	if rows <= cols || len(y) != rows {
		return nil, errTooFewObservations
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, errSingularDesign
	}
	if c := chol.Cond(); math.IsNaN(c) || c > maxCondition {
		return nil, errSingularDesign
	}

	yv := mat.NewVecDense(rows, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, fmt.Errorf("solve normal equations: %w", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	resid := make([]float64, rows)
	rss := 0.0
	for i := 0; i < rows; i++ {
		resid[i] = y[i] - fitted.AtVec(i)
		rss += resid[i] * resid[i]
	}

	return &olsFit{
		coef:  mat.Col(nil, 0, &beta),
		resid: resid,
		rss:   rss,
		dof:   rows - cols,
		chol:  &chol,
	}, nil
}

// stdError returns the standard error of the i-th coefficient.
func (f *olsFit) stdError(i int) (float64, error) {
	var inv mat.SymDense
	if err := f.chol.InverseTo(&inv); err != nil {
		return 0, fmt.Errorf("invert normal equations: %w", err)
	}
	s2 := f.rss / float64(f.dof)
	return math.Sqrt(s2 * inv.At(i, i)), nil
}

// fitAR regresses w_t on its first p lags without intercept.
func fitAR(w []float64, p int) (*olsFit, error) {
	n := len(w)
	rows := n - p
	if p < 1 || rows <= p {
		return nil, errTooFewObservations
	}

	x := mat.NewDense(rows, p, nil)
	y := make([]float64, rows)
	for r := 0; r < rows; r++ {
		t := r + p
		y[r] = w[t]
		for i := 0; i < p; i++ {
			x.Set(r, i, w[t-1-i])
		}
	}

	return ols(x, y)
}
