package domain

import (
	"encoding/json"
	"time"
)

const DateLayout = "2006-01-02"

// Forecast methods
const (
	MethodARIMA         = "arima"
	MethodMovingAverage = "moving_average"
)

// Warnings attached to a degraded but successful forecast
const (
	WarningNonStationary       = "low_confidence: series not stationary after maximum differencing"
	WarningNoStableModel       = "model_degraded: no stable ARIMA candidate, moving-average fallback used"
	WarningNoFeasibleCandidate = "model_degraded: history too short for any ARIMA candidate, moving-average fallback used"
)

// ARIMAParams is the (p, d, q) order of the fitted model
type ARIMAParams struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

// Criterion reports the information criterion the model was selected by
type Criterion struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ForecastPoint is one projected day with its two-sided confidence interval
type ForecastPoint struct {
	Date  time.Time
	Value float64
	Lower float64
	Upper float64
}

// ForecastSeries keeps forecast dates, values and intervals aligned by construction.
// It serialises to the parallel-array shape consumed by the dashboard.
type ForecastSeries struct {
	Points          []ForecastPoint
	Params          ARIMAParams
	Method          string
	ConfidenceLevel float64
	Criterion       Criterion
}

// Len returns the forecast horizon.
func (s ForecastSeries) Len() int {
	return len(s.Points)
}

// At returns the i-th projected point.
func (s ForecastSeries) At(i int) ForecastPoint {
	return s.Points[i]
}

// Dates returns the forecast dates formatted as YYYY-MM-DD.
func (s ForecastSeries) Dates() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date.Format(DateLayout)
	}
	return out
}

// Values returns the point forecasts.
func (s ForecastSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Intervals returns the (lower, upper) pairs.
func (s ForecastSeries) Intervals() [][2]float64 {
	out := make([][2]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = [2]float64{p.Lower, p.Upper}
	}
	return out
}

type forecastSeriesJSON struct {
	Dates               []string     `json:"dates"`
	Values              []float64    `json:"values"`
	ConfidenceIntervals [][2]float64 `json:"confidence_intervals"`
	ARIMAParams         ARIMAParams  `json:"arima_params"`
	Method              string       `json:"method"`
	ConfidenceLevel     float64      `json:"confidence_level"`
	Criterion           Criterion    `json:"criterion"`
}

func (s ForecastSeries) MarshalJSON() ([]byte, error) {
	return json.Marshal(forecastSeriesJSON{
		Dates:               s.Dates(),
		Values:              s.Values(),
		ConfidenceIntervals: s.Intervals(),
		ARIMAParams:         s.Params,
		Method:              s.Method,
		ConfidenceLevel:     s.ConfidenceLevel,
		Criterion:           s.Criterion,
	})
}

// ReplenishmentMetrics holds the inventory-control parameters derived from demand history
type ReplenishmentMetrics struct {
	AvgDailyDemand float64     `json:"avg_daily_demand"`
	DemandStd      float64     `json:"demand_std"`
	AnnualDemand   float64     `json:"annual_demand"`
	EOQ            float64     `json:"eoq"`
	SafetyStock    float64     `json:"safety_stock"`
	ReorderPoint   float64     `json:"reorder_point"`
	CurrentStock   int         `json:"current_stock"`
	StockStatus    StockStatus `json:"stock_status"`
}

// ProductSnapshot is the product summary embedded in a forecast response
type ProductSnapshot struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// ForecastResponse is the full payload returned for a forecast request
type ForecastResponse struct {
	Product       ProductSnapshot      `json:"product"`
	Forecast      ForecastSeries       `json:"forecast"`
	Metrics       ReplenishmentMetrics `json:"metrics"`
	ModelDegraded bool                 `json:"model_degraded"`
	Warnings      []string             `json:"warnings"`
}
