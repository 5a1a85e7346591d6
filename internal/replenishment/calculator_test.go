package replenishment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
)

func whisky() domain.Product {
	return domain.Product{
		ID:                    1,
		Code:                  "WH001",
		Name:                  "Blended Whisky 700ml",
		UnitCost:              300,
		OrderingCost:          500,
		HoldingCostPercentage: 0.2,
		LeadTimeDays:          7,
		CurrentStock:          200,
	}
}

func flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCalculateConstantDemandExample(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	m, err := calc.Calculate(Stats(flat(20, 30)), whisky())

	require.NoError(t, err)
	assert.InDelta(t, 20.0, m.AvgDailyDemand, 1e-12)
	assert.InDelta(t, 0.0, m.DemandStd, 1e-12)
	assert.InDelta(t, 7300.0, m.AnnualDemand, 1e-9)
	assert.InDelta(t, math.Sqrt(2*7300*500/(300*0.2)), m.EOQ, 1e-9)
	assert.InDelta(t, 348.8, m.EOQ, 0.05)
	assert.InDelta(t, 0.0, m.SafetyStock, 1e-9)
	assert.InDelta(t, 140.0, m.ReorderPoint, 1e-9)
	assert.Equal(t, 200, m.CurrentStock)
	assert.Equal(t, domain.StockSufficient, m.StockStatus)
}

func TestStatusBoundary(t *testing.T) {
	assert.Equal(t, domain.StockSufficient, Status(140, 140))
	assert.Equal(t, domain.StockNeedsReorder, Status(139, 140))
	assert.Equal(t, domain.StockNeedsReorder, Status(140, 140.01))
	assert.Equal(t, domain.StockSufficient, Status(0, 0))

	p := whisky()
	p.CurrentStock = 140
	m, err := NewCalculator(DefaultConfig()).Calculate(Stats(flat(20, 30)), p)
	require.NoError(t, err)
	assert.Equal(t, domain.StockSufficient, m.StockStatus)
}

func TestSafetyStockUsesServiceLevel(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	assert.InDelta(t, 1.645, calc.Z(), 1e-3)

	s := DemandStats{Mean: 10, Std: 4, Days: 30}
	p := whisky()
	p.LeadTimeDays = 9

	m, err := calc.Calculate(s, p)
	require.NoError(t, err)
	assert.InDelta(t, calc.Z()*4*3, m.SafetyStock, 1e-9)
	assert.InDelta(t, 90+m.SafetyStock, m.ReorderPoint, 1e-9)

	custom := NewCalculator(Config{Z: 2.33})
	m, err = custom.Calculate(s, p)
	require.NoError(t, err)
	assert.InDelta(t, 2.33*4*3, m.SafetyStock, 1e-9)
}

func TestLeadTimeMonotonicity(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	s := DemandStats{Mean: 12.5, Std: 3.2, Days: 90}

	prevSafety, prevROP := -1.0, -1.0
	for lead := 0; lead <= 60; lead++ {
		p := whisky()
		p.LeadTimeDays = lead
		m, err := calc.Calculate(s, p)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, m.SafetyStock, prevSafety, "lead time %d", lead)
		assert.GreaterOrEqual(t, m.ReorderPoint, prevROP, "lead time %d", lead)
		assert.GreaterOrEqual(t, m.EOQ, 0.0)
		prevSafety, prevROP = m.SafetyStock, m.ReorderPoint
	}
}

func TestZeroDemandGivesZeroEOQ(t *testing.T) {
	m, err := NewCalculator(DefaultConfig()).Calculate(Stats(flat(0, 30)), whisky())

	require.NoError(t, err)
	assert.Zero(t, m.EOQ)
	assert.Zero(t, m.ReorderPoint)
	assert.Equal(t, domain.StockSufficient, m.StockStatus)
}

func TestStats(t *testing.T) {
	s := Stats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7), s.Std, 1e-12)
	assert.Equal(t, 8, s.Days)

	assert.Equal(t, DemandStats{Mean: 3, Days: 1}, Stats([]float64{3}))
	assert.Equal(t, DemandStats{}, Stats(nil))
}

func TestValidateProduct(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Product)
	}{
		{"zero unit cost", func(p *domain.Product) { p.UnitCost = 0 }},
		{"zero holding", func(p *domain.Product) { p.HoldingCostPercentage = 0 }},
		{"holding above one", func(p *domain.Product) { p.HoldingCostPercentage = 1.5 }},
		{"negative ordering cost", func(p *domain.Product) { p.OrderingCost = -1 }},
		{"negative lead time", func(p *domain.Product) { p.LeadTimeDays = -2 }},
		{"nan unit cost", func(p *domain.Product) { p.UnitCost = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := whisky()
			tt.mutate(&p)

			_, err := NewCalculator(DefaultConfig()).Calculate(Stats(flat(20, 30)), p)

			assert.ErrorIs(t, err, domain.ErrInvalidProductParameters)
		})
	}

	assert.NoError(t, ValidateProduct(whisky()))
}
