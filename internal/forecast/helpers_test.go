package forecast

import (
	"math/rand"
	"time"
)

// simulateARMA draws an ARMA(1,1) path with standard normal innovations, discarding a burn-in.
func simulateARMA(seed int64, n int, phi, theta, mean float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	const burn = 200
	out := make([]float64, 0, n)
	prevX, prevE := 0.0, 0.0
	for t := 0; t < n+burn; t++ {
		e := rng.NormFloat64()
		x := phi*prevX + e + theta*prevE
		prevX, prevE = x, e
		if t >= burn {
			out = append(out, x+mean)
		}
	}
	return out
}

func constantSeries(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func demandSeries(values []float64) DemandSeries {
	return DemandSeries{
		Start:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Values: values,
	}
}
