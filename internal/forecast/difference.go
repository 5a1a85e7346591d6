package forecast

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// StationarityTest reports whether a series is stationary enough for ARMA estimation.
// It returns the context error once ctx is done.
type StationarityTest func(ctx context.Context, x []float64) (bool, error)

// Differencer picks the smallest differencing order that makes a series stationary.
type Differencer struct {
	MaxD int
	Test StationarityTest
}

// Differenced is the outcome of order selection. Tails[k] holds the last value of the
// k-times differenced series and is what Integrate needs to undo the differencing.
type Differenced struct {
	D          int
	Series     []float64
	Tails      []float64
	Stationary bool
}

// Difference returns the first difference of x.
func Difference(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	out := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		out[i-1] = x[i] - x[i-1]
	}
	return out
}

// Select differences y until the test passes or MaxD is reached. When MaxD is
// reached without passing, the MaxD-differenced series is returned with Stationary false.
func (d Differencer) Select(ctx context.Context, y []float64) (Differenced, error) {
	test := d.Test
	if test == nil {
		test = ADFTest
	}

	cur := y
	tails := make([]float64, 0, d.MaxD)
	for k := 0; ; k++ {
		ok, err := test(ctx, cur)
		if err != nil {
			return Differenced{}, err
		}
		if ok {
			return Differenced{D: k, Series: cur, Tails: tails, Stationary: true}, nil
		}
		if k >= d.MaxD || len(cur) < 3 {
			return Differenced{D: k, Series: cur, Tails: tails, Stationary: false}, nil
		}
		tails = append(tails, cur[len(cur)-1])
		cur = Difference(cur)
	}
}

// Integrate turns forecasts of a differenced series back into levels, in place.
func Integrate(f []float64, tails []float64) []float64 {
	for k := len(tails) - 1; k >= 0; k-- {
		last := tails[k]
		for i := range f {
			last += f[i]
			f[i] = last
		}
	}
	return f
}

// minADFObservations is the shortest series the ADF regression is attempted on.
const minADFObservations = 8

// ADFTest runs an augmented Dickey-Fuller test with constant at the 5% level. The
// augmentation order is chosen by AIC up to the Schwert bound.
// Constant series are stationary; series the regression cannot handle are not.
// Every regression checks ctx first, so a deadline stops the lag search.
func ADFTest(ctx context.Context, x []float64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(x) < minADFObservations {
		return true, nil
	}
	if nearlyConstant(x) {
		return true, nil
	}
	// a straight line differences to a constant: deterministic trend, not stationary
	if nearlyConstant(Difference(x)) {
		return false, nil
	}

	for maxLags := schwertLags(len(x)); maxLags >= 0; maxLags-- {
		lags, err := selectADFLags(ctx, x, maxLags)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		stat, nobs, err := adfStatistic(x, lags)
		if err != nil {
			continue
		}
		return stat < adfCriticalValue(nobs), nil
	}
	return false, nil
}

func nearlyConstant(x []float64) bool {
	spread := floats.Max(x) - floats.Min(x)
	scale := math.Max(1, math.Abs(floats.Sum(x)/float64(len(x))))
	return spread <= 1e-9*scale
}

// schwertLags is the 12*(n/100)^(1/4) upper bound, capped so the regression keeps enough rows.
func schwertLags(n int) int {
	k := int(12 * math.Pow(float64(n)/100, 0.25))
	if limit := (n - 1) / 4; k > limit {
		k = limit
	}
	if k < 0 {
		k = 0
	}
	return k
}

// adfCriticalValue is MacKinnon's 5% response surface for the constant-only case.
func adfCriticalValue(nobs int) float64 {
	t := float64(nobs)
	return -2.8621 - 2.738/t - 8.36/(t*t)
}

// selectADFLags picks the augmentation order in [0, maxLags] with the lowest AIC,
// fitting every order on the same rows so the criteria are comparable.
func selectADFLags(ctx context.Context, x []float64, maxLags int) (int, error) {
	best, bestAIC := -1, math.Inf(1)
	for lags := 0; lags <= maxLags; lags++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		fit, err := adfRegression(x, lags, maxLags)
		if err != nil {
			continue
		}
		rows := float64(len(fit.resid))
		aic := rows*math.Log(fit.rss/rows) + 2*float64(2+lags)
		if aic < bestAIC {
			best, bestAIC = lags, aic
		}
	}
	if best < 0 {
		return 0, errSingularDesign
	}
	return best, nil
}

// adfRegression regresses dx_t on [1, x_{t-1}, dx_{t-1}..dx_{t-lags}], skipping the
// first skip differences so regressions with different lags share a sample.
func adfRegression(x []float64, lags, skip int) (*olsFit, error) {
	dx := Difference(x)
	rows := len(dx) - skip
	cols := 2 + lags
	if rows <= cols+1 {
		return nil, errTooFewObservations
	}

	design := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)
	for r := 0; r < rows; r++ {
		t := r + skip // index into dx
		y[r] = dx[t]
		design.Set(r, 0, 1)
		design.Set(r, 1, x[t])
		for j := 1; j <= lags; j++ {
			design.Set(r, 1+j, dx[t-j])
		}
	}

	fit, err := ols(design, y)
	if err != nil {
		return nil, err
	}
	if fit.rss <= 1e-18*(1+floats.Dot(y, y)) {
		return nil, errSingularDesign
	}
	return fit, nil
}

// adfStatistic returns the t-statistic of the x_{t-1} coefficient together with the
// number of rows used.
func adfStatistic(x []float64, lags int) (float64, int, error) {
	fit, err := adfRegression(x, lags, lags)
	if err != nil {
		return 0, 0, err
	}
	se, err := fit.stdError(1)
	if err != nil {
		return 0, 0, err
	}
	if se == 0 || math.IsNaN(se) {
		return 0, 0, errSingularDesign
	}

	return fit.coef[1] / se, len(fit.resid), nil
}
