package forecast

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
)

// armaForecast extends the centred series h steps with the ARMA recursion.
// Future innovations are zero; in-sample residuals feed the MA terms.
func armaForecast(w []float64, m *armaModel, h int) []float64 {
	n := len(w)
	ext := make([]float64, n+h)
	copy(ext, w)
	res := make([]float64, n+h)
	copy(res, m.residuals)

	for t := n; t < n+h; t++ {
		v := 0.0
		for i, phi := range m.ar {
			if t-1-i >= 0 {
				v += phi * ext[t-1-i]
			}
		}
		for j, theta := range m.ma {
			if t-1-j >= 0 {
				v += theta * res[t-1-j]
			}
		}
		ext[t] = v
	}

	return ext[n:]
}

// psiWeights returns the first h coefficients of the MA(infinity) form of an
// ARIMA(p, d, q), with the unit roots of the differencing folded into the AR side.
func psiWeights(ar, ma []float64, d, h int) []float64 {
	poly := make([]float64, len(ar)+1)
	poly[0] = 1
	for i, phi := range ar {
		poly[i+1] = -phi
	}
	for k := 0; k < d; k++ {
		next := make([]float64, len(poly)+1)
		for i, c := range poly {
			next[i] += c
			next[i+1] -= c
		}
		poly = next
	}
	phiStar := make([]float64, len(poly)-1)
	for i := range phiStar {
		phiStar[i] = -poly[i+1]
	}

	psi := make([]float64, h)
	if h == 0 {
		return psi
	}
	psi[0] = 1
	for j := 1; j < h; j++ {
		v := 0.0
		if j <= len(ma) {
			v = ma[j-1]
		}
		for i := 1; i <= len(phiStar) && i <= j; i++ {
			v += phiStar[i-1] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

// quantile returns the two-sided standard-normal critical value for a confidence level.
func quantile(confidence float64) float64 {
	return distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
}

// clampPoint enforces 0 <= lower <= value <= upper on a projected point.
func clampPoint(mean, lower, upper float64) (float64, float64, float64) {
	value := math.Max(mean, 0)
	lower = math.Min(math.Max(lower, 0), value)
	upper = math.Max(upper, value)
	return value, lower, upper
}

// buildPoints assembles dated, clamped forecast points. stdErr[i] is the forecast
// standard error at step i+1.
func buildPoints(start time.Time, means, stdErr []float64, confidence float64) []domain.ForecastPoint {
	z := quantile(confidence)
	points := make([]domain.ForecastPoint, len(means))
	for i, mean := range means {
		half := z * stdErr[i]
		value, lower, upper := clampPoint(mean, mean-half, mean+half)
		points[i] = domain.ForecastPoint{
			Date:  start.AddDate(0, 0, i),
			Value: value,
			Lower: lower,
			Upper: upper,
		}
	}
	return points
}

// projectARIMA produces h level forecasts with interval standard errors for a fitted model.
func projectARIMA(diff Differenced, wc []float64, mu float64, m *armaModel, h int) ([]float64, []float64) {
	means := armaForecast(wc, m, h)
	for i := range means {
		means[i] += mu
	}
	Integrate(means, diff.Tails)

	psi := psiWeights(m.ar, m.ma, diff.D, h)
	stdErr := make([]float64, h)
	acc := 0.0
	for i := 0; i < h; i++ {
		acc += psi[i] * psi[i]
		stdErr[i] = math.Sqrt(m.sigma2 * acc)
	}
	return means, stdErr
}
