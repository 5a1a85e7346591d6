package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Forecast outcomes
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
)

// Recorder is what the services report to.
type Recorder interface {
	ObserveForecast(method string, seconds float64)
	RecordForecastOutcome(outcome string)
	RecordImportRows(imported, rejected int)
	ObserveHTTP(method, route string, status int, seconds float64)
}

// Prometheus implements Recorder using Prometheus collectors.
type Prometheus struct {
	forecastLatency *prometheus.HistogramVec
	forecastOutcome *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Prometheus{
		forecastLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_forecast_duration_seconds",
				Help:    "Duration of forecast requests in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
			[]string{"method"},
		),
		forecastOutcome: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_forecast_outcomes_total",
				Help: "Forecast requests by outcome (ok, degraded or error kind)",
			},
			[]string{"outcome"},
		),
		importRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_sales_import_rows_total",
				Help: "Sales rows processed by uploads",
			},
			[]string{"result"},
		),
		httpLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// ObserveForecast records the latency of a completed forecast.
func (r *Prometheus) ObserveForecast(method string, seconds float64) {
	r.forecastLatency.WithLabelValues(method).Observe(seconds)
}

// RecordForecastOutcome counts a forecast request by outcome.
func (r *Prometheus) RecordForecastOutcome(outcome string) {
	r.forecastOutcome.WithLabelValues(outcome).Inc()
}

// RecordImportRows counts imported and rejected sales rows.
func (r *Prometheus) RecordImportRows(imported, rejected int) {
	r.importRows.WithLabelValues("imported").Add(float64(imported))
	r.importRows.WithLabelValues("rejected").Add(float64(rejected))
}

// ObserveHTTP records request latency by route template.
func (r *Prometheus) ObserveHTTP(method, route string, status int, seconds float64) {
	r.httpLatency.WithLabelValues(method, route, statusClass(status)).Observe(seconds)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) ObserveForecast(string, float64)          {}
func (Nop) RecordForecastOutcome(string)             {}
func (Nop) RecordImportRows(int, int)                {}
func (Nop) ObserveHTTP(string, string, int, float64) {}
