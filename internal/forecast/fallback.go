package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// movingAverage is the degraded forecaster: a flat projection of the mean of the
// last window observations, with an interval from its one-step-ahead errors.
type movingAverage struct {
	level  float64
	sigma2 float64
}

func fitMovingAverage(y []float64, window int) movingAverage {
	if window < 1 {
		window = 1
	}
	if window > len(y) {
		window = len(y)
	}
	if len(y) == 0 {
		return movingAverage{sigma2: minVariance}
	}

	level := stat.Mean(y[len(y)-window:], nil)

	var errs []float64
	for t := window; t < len(y); t++ {
		errs = append(errs, y[t]-stat.Mean(y[t-window:t], nil))
	}

	var sigma2 float64
	switch {
	case len(errs) > 0:
		ss := 0.0
		for _, e := range errs {
			ss += e * e
		}
		sigma2 = ss / float64(len(errs))
	case len(y) > 1:
		sigma2 = stat.Variance(y, nil)
	}

	return movingAverage{level: level, sigma2: math.Max(sigma2, minVariance)}
}

// project returns h flat means and a constant standard error.
func (m movingAverage) project(h int) ([]float64, []float64) {
	means := make([]float64, h)
	stdErr := make([]float64, h)
	se := math.Sqrt(m.sigma2)
	for i := range means {
		means[i] = m.level
		stdErr[i] = se
	}
	return means, stdErr
}
