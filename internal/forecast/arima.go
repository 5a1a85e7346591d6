package forecast

import (
	"context"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	// minVariance floors the innovation variance so perfectly fitted series keep a finite likelihood.
	minVariance = 1e-10
	// rootTolerance is how close to the unit circle a companion eigenvalue may get.
	rootTolerance = 1e-3
	// penalty is returned by the CSS objective outside the stationary/invertible region.
	penalty = 1e100
)

// armaModel is a fitted zero-mean ARMA(p, q) on the (differenced, centred) series.
type armaModel struct {
	p, q      int
	ar        []float64
	ma        []float64
	residuals []float64
	css       float64
	nobs      int
	sigma2    float64
	loglik    float64
	stable    bool
}

// params counts the estimated parameters: coefficients plus the innovation variance.
func (m *armaModel) params(includeMean bool) int {
	k := m.p + m.q + 1
	if includeMean {
		k++
	}
	return k
}

func (m *armaModel) aic(includeMean bool) float64 {
	return -2*m.loglik + 2*float64(m.params(includeMean))
}

func (m *armaModel) bic(includeMean bool) float64 {
	return -2*m.loglik + float64(m.params(includeMean))*math.Log(float64(m.nobs))
}

// cssResiduals computes conditional residuals with pre-sample errors set to zero.
// Residuals before index p are left at zero.
func cssResiduals(w, ar, ma []float64) []float64 {
	n, p, q := len(w), len(ar), len(ma)
	e := make([]float64, n)
	for t := p; t < n; t++ {
		v := w[t]
		for i := 0; i < p; i++ {
			v -= ar[i] * w[t-1-i]
		}
		for j := 0; j < q && t-1-j >= 0; j++ {
			v -= ma[j] * e[t-1-j]
		}
		e[t] = v
	}
	return e
}

func sumSquaresFrom(e []float64, start int) float64 {
	s := 0.0
	for _, v := range e[start:] {
		s += v * v
	}
	return s
}

// fitSettings bounds the Nelder-Mead refinement.
type fitSettings struct {
	maxEvaluations int
}

// fitARMA estimates an ARMA(p, q) on the centred series w. Residual sums run from start,
// which is shared by every candidate of a grid so their criteria are comparable.
func fitARMA(ctx context.Context, w []float64, p, q, start int, includeMean bool, cfg fitSettings) (*armaModel, error) {
	n := len(w)
	nobs := n - start
	k := p + q + 1
	if includeMean {
		k++
	}
	if start < p || nobs <= k+1 {
		return nil, errTooFewObservations
	}

	var ar, ma []float64
	if p+q > 0 {
		var err error
		ar, ma, err = hannanRissanen(w, p, q)
		if err != nil {
			return nil, err
		}
		if cfg.maxEvaluations > 0 {
			ar, ma = refineCSS(ctx, w, ar, ma, start, cfg.maxEvaluations)
		}
	}

	e := cssResiduals(w, ar, ma)
	css := sumSquaresFrom(e, start)
	if math.IsNaN(css) || math.IsInf(css, 0) {
		return nil, errSingularDesign
	}

	sigma2 := math.Max(css/float64(nobs), minVariance)
	return &armaModel{
		p:         p,
		q:         q,
		ar:        ar,
		ma:        ma,
		residuals: e,
		css:       css,
		nobs:      nobs,
		sigma2:    sigma2,
		loglik:    -0.5 * float64(nobs) * (math.Log(2*math.Pi*sigma2) + 1),
		stable:    arStationary(ar) && maInvertible(ma),
	}, nil
}

// hannanRissanen gives starting values: a long autoregression estimates the
// innovations, which then enter a second regression as MA regressors.
func hannanRissanen(w []float64, p, q int) ([]float64, []float64, error) {
	if q == 0 {
		fit, err := fitAR(w, p)
		if err != nil {
			return nil, nil, err
		}
		return fit.coef, nil, nil
	}

	n := len(w)
	m := longAROrder(n, p, q)
	if m < p || m < 1 {
		return nil, nil, errTooFewObservations
	}
	long, err := fitAR(w, m)
	if err != nil {
		return nil, nil, err
	}

	innov := make([]float64, n)
	copy(innov[m:], long.resid)

	start := m + q
	rows := n - start
	cols := p + q
	if rows <= cols+1 {
		return nil, nil, errTooFewObservations
	}

	x := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)
	for r := 0; r < rows; r++ {
		t := r + start
		y[r] = w[t]
		for i := 0; i < p; i++ {
			x.Set(r, i, w[t-1-i])
		}
		for j := 0; j < q; j++ {
			x.Set(r, p+j, innov[t-1-j])
		}
	}

	fit, err := ols(x, y)
	if err != nil {
		return nil, nil, err
	}
	return fit.coef[:p], fit.coef[p:], nil
}

// longAROrder is ceil(10*log10(n)) but at least p+q, and never so long that the
// second-stage regression runs out of rows.
func longAROrder(n, p, q int) int {
	m := int(math.Ceil(10 * math.Log10(float64(n))))
	if m < p+q {
		m = p + q
	}
	if limit := (n - q) / 3; m > limit {
		m = limit
	}
	return m
}

// refineCSS minimises the conditional sum of squares with Nelder-Mead from the
// Hannan-Rissanen estimates. The starting point is kept if it cannot be improved.
func refineCSS(ctx context.Context, w, ar, ma []float64, start, maxEval int) ([]float64, []float64) {
	p := len(ar)
	objective := func(x []float64) float64 {
		if ctx.Err() != nil {
			return penalty
		}
		a, m := x[:p], x[p:]
		if !arStationary(a) || !maInvertible(m) {
			return penalty
		}
		s := sumSquaresFrom(cssResiduals(w, a, m), start)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return penalty
		}
		return s
	}

	init := make([]float64, 0, len(ar)+len(ma))
	init = append(init, ar...)
	init = append(init, ma...)
	f0 := objective(init)
	if f0 >= penalty {
		return ar, ma
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEval,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-9,
			Relative:   1e-9,
			Iterations: 50,
		},
	}
	result, err := optimize.Minimize(optimize.Problem{Func: objective}, append([]float64(nil), init...), settings, &optimize.NelderMead{})
	if result == nil || (err != nil && len(result.X) != len(init)) {
		return ar, ma
	}
	if result.F < f0 && len(result.X) == len(init) {
		x := append([]float64(nil), result.X...)
		return x[:p], x[p:]
	}
	return ar, ma
}

// arStationary reports whether 1 - a1 z - ... - ap z^p has every root outside the unit circle.
func arStationary(a []float64) bool {
	return rootsOutsideUnitCircle(a)
}

// maInvertible reports whether 1 + m1 z + ... + mq z^q has every root outside the unit circle.
func maInvertible(m []float64) bool {
	neg := make([]float64, len(m))
	for i, v := range m {
		neg[i] = -v
	}
	return rootsOutsideUnitCircle(neg)
}

// rootsOutsideUnitCircle checks the eigenvalues of the companion matrix of
// 1 - c1 z - ... - cm z^m, which are the reciprocals of its roots.
func rootsOutsideUnitCircle(c []float64) bool {
	m := len(c)
	if m == 0 {
		return true
	}
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	comp := mat.NewDense(m, m, nil)
	for j := 0; j < m; j++ {
		comp.Set(0, j, c[j])
	}
	for i := 1; i < m; i++ {
		comp.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(comp, mat.EigenNone); !ok {
		return false
	}
	for _, v := range eig.Values(nil) {
		if cmplx.Abs(v) > 1-rootTolerance {
			return false
		}
	}
	return true
}
