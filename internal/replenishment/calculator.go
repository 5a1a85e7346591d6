// Package replenishment derives inventory-control parameters (EOQ, safety stock,
// reorder point) from daily demand statistics and product cost parameters.
package replenishment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
)

// Config holds the calculator parameters.
type Config struct {
	// ServiceLevel is the one-sided probability of not stocking out during lead time.
	ServiceLevel float64
	// Z overrides the multiplier derived from ServiceLevel when positive.
	Z float64
	// DaysPerYear converts average daily demand to annual demand.
	DaysPerYear float64
}

// DefaultConfig returns a 95% service level over a 365-day year.
func DefaultConfig() Config {
	return Config{ServiceLevel: 0.95, DaysPerYear: 365}
}

// Calculator is stateless and safe for concurrent use.
type Calculator struct {
	z           float64
	daysPerYear float64
}

// NewCalculator resolves the service-level multiplier once.
func NewCalculator(cfg Config) *Calculator {
	z := cfg.Z
	if z <= 0 {
		z = distuv.UnitNormal.Quantile(cfg.ServiceLevel)
	}
	days := cfg.DaysPerYear
	if days <= 0 {
		days = 365
	}
	return &Calculator{z: z, daysPerYear: days}
}

// Z returns the service-level multiplier in use.
func (c *Calculator) Z() float64 {
	return c.z
}

// DemandStats summarises a daily demand series.
type DemandStats struct {
	Mean float64
	Std  float64
	Days int
}

// Stats returns the mean and sample standard deviation (n-1 divisor) of daily demand.
// The deviation is zero for fewer than two days.
func Stats(values []float64) DemandStats {
	if len(values) == 0 {
		return DemandStats{}
	}
	s := DemandStats{Mean: stat.Mean(values, nil), Days: len(values)}
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	return s
}

// ValidateProduct checks the cost and lead-time inputs the formulas divide or take roots by.
func ValidateProduct(p domain.Product) error {
	for name, v := range map[string]float64{
		"unit_cost":               p.UnitCost,
		"ordering_cost":           p.OrderingCost,
		"holding_cost_percentage": p.HoldingCostPercentage,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", domain.ErrInvalidProductParameters, name)
		}
	}

	switch {
	case p.HoldingCostPercentage <= 0 || p.HoldingCostPercentage > 1:
		return fmt.Errorf("%w: holding_cost_percentage must be in (0, 1], got %g",
			domain.ErrInvalidProductParameters, p.HoldingCostPercentage)
	case p.UnitCost*p.HoldingCostPercentage <= 0:
		return fmt.Errorf("%w: unit_cost x holding_cost_percentage must be positive",
			domain.ErrInvalidProductParameters)
	case p.OrderingCost < 0:
		return fmt.Errorf("%w: ordering_cost must not be negative", domain.ErrInvalidProductParameters)
	case p.LeadTimeDays < 0:
		return fmt.Errorf("%w: lead_time_days must not be negative", domain.ErrInvalidProductParameters)
	}
	return nil
}

// Calculate derives the replenishment metrics for a product.
func (c *Calculator) Calculate(s DemandStats, p domain.Product) (domain.ReplenishmentMetrics, error) {
	if err := ValidateProduct(p); err != nil {
		return domain.ReplenishmentMetrics{}, err
	}

	annual := s.Mean * c.daysPerYear
	holding := p.UnitCost * p.HoldingCostPercentage

	eoq := 0.0
	if annual > 0 {
		eoq = math.Sqrt(2 * annual * p.OrderingCost / holding)
	}

	lead := float64(p.LeadTimeDays)
	safety := c.z * s.Std * math.Sqrt(lead)
	rop := s.Mean*lead + safety

	return domain.ReplenishmentMetrics{
		AvgDailyDemand: s.Mean,
		DemandStd:      s.Std,
		AnnualDemand:   annual,
		EOQ:            eoq,
		SafetyStock:    safety,
		ReorderPoint:   rop,
		CurrentStock:   p.CurrentStock,
		StockStatus:    Status(p.CurrentStock, rop),
	}, nil
}

// Status classifies stock strictly below the reorder point as needing a reorder;
// stock exactly at the reorder point is sufficient.
func Status(currentStock int, reorderPoint float64) domain.StockStatus {
	if float64(currentStock) < reorderPoint {
		return domain.StockNeedsReorder
	}
	return domain.StockSufficient
}
