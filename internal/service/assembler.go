package service

import (
	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/forecast"
)

// Snapshot returns the product fields embedded in responses.
func Snapshot(p domain.Product) domain.ProductSnapshot {
	return domain.ProductSnapshot{ID: p.ID, Code: p.Code, Name: p.Name, Unit: p.Unit}
}

// AssembleForecastResponse combines the product, model output and replenishment metrics.
// Values are passed through unrounded.
func AssembleForecastResponse(p domain.Product, res *forecast.Result, metrics domain.ReplenishmentMetrics) *domain.ForecastResponse {
	warnings := make([]string, 0, len(res.Warnings))
	warnings = append(warnings, res.Warnings...)

	return &domain.ForecastResponse{
		Product:       Snapshot(p),
		Forecast:      res.Series,
		Metrics:       metrics,
		ModelDegraded: res.Degraded,
		Warnings:      warnings,
	}
}
