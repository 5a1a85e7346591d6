package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/repository"
	"github.com/andresuchdata/stockcast/backend-go/internal/repository/postgres"
)

// mockProduct is a catalogue entry plus the shape of its synthetic demand.
type mockProduct struct {
	domain.Product
	baseDemand  float64
	trend       float64 // units per day gained over a year
	seasonality float64 // amplitude of the yearly cycle as a share of base demand
}

func strPtr(s string) *string { return &s }

func mockCatalogue() []mockProduct {
	item := func(code, name, category, unit string, unitCost, ordering, holding float64, lead int, base, trend, season float64) mockProduct {
		return mockProduct{
			Product: domain.Product{
				Code:                  code,
				Name:                  name,
				Category:              strPtr(category),
				Unit:                  unit,
				UnitCost:              unitCost,
				OrderingCost:          ordering,
				HoldingCostPercentage: holding,
				LeadTimeDays:          lead,
			},
			baseDemand:  base,
			trend:       trend,
			seasonality: season,
		}
	}

	return []mockProduct{
		item("WHI001", "Johnnie Walker Black Label 750ml", "Whiskey", "ขวด", 1200, 800, 0.20, 14, 25, 2.0, 0.4),
		item("WHI002", "Chivas Regal 12 Years 700ml", "Whiskey", "ขวด", 1500, 800, 0.20, 14, 18, 1.0, 0.3),
		item("WHI003", "Jack Daniels 750ml", "Whiskey", "ขวด", 1100, 800, 0.20, 10, 30, 3.0, 0.35),
		item("VOD001", "Absolut Vodka 750ml", "Vodka", "ขวด", 800, 600, 0.18, 10, 35, 1.5, 0.25),
		item("VOD002", "Smirnoff Red 750ml", "Vodka", "ขวด", 600, 500, 0.18, 7, 45, 2.0, 0.2),
		item("RUM001", "Bacardi Superior 750ml", "Rum", "ขวด", 700, 600, 0.18, 10, 28, 1.0, 0.4),
		item("RUM002", "Captain Morgan Spiced 750ml", "Rum", "ขวด", 750, 600, 0.18, 12, 22, 0.5, 0.3),
		item("BEE001", "Heineken 330ml (ลัง 24 ขวด)", "Beer", "ลัง", 450, 400, 0.15, 5, 80, 5.0, 0.5),
		item("BEE002", "Singha 330ml (ลัง 24 ขวด)", "Beer", "ลัง", 400, 400, 0.15, 3, 100, 8.0, 0.45),
		item("BEE003", "Chang 320ml (ลัง 24 ขวด)", "Beer", "ลัง", 380, 400, 0.15, 3, 90, 6.0, 0.4),
		item("WIN001", "Yellow Tail Shiraz 750ml", "Wine", "ขวด", 350, 500, 0.20, 15, 15, 1.5, 0.35),
		item("WIN002", "Casillero del Diablo Cabernet 750ml", "Wine", "ขวด", 500, 500, 0.20, 15, 12, 0.8, 0.3),
		item("LIQ001", "Baileys Irish Cream 750ml", "Liqueur", "ขวด", 900, 600, 0.20, 12, 20, 1.0, 0.5),
		item("LIQ002", "Jägermeister 700ml", "Liqueur", "ขวด", 950, 600, 0.20, 12, 16, 0.5, 0.3),
		item("GIN001", "Bombay Sapphire 750ml", "Gin", "ขวด", 1000, 700, 0.20, 12, 18, 2.0, 0.25),
	}
}

// syntheticSales draws daily demand with a linear trend, a yearly cycle, a weekend
// uplift of 20% and Gaussian noise, rounded and clipped at zero.
func syntheticSales(rng *rand.Rand, p mockProduct, start time.Time, days int) []int {
	out := make([]int, days)
	for i := 0; i < days; i++ {
		t := float64(i)
		level := p.baseDemand + p.trend*t/365
		season := p.seasonality * p.baseDemand * math.Sin(2*math.Pi*t/365)

		weekly := 1.0
		if wd := start.AddDate(0, 0, i).Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekly = 1.2
		}

		v := (level+season)*weekly + rng.NormFloat64()*p.baseDemand*0.15
		out[i] = int(math.Max(0, math.Round(v)))
	}
	return out
}

func runMock(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}

	days := c.Int("days")
	if days < 1 {
		return fmt.Errorf("days must be positive, got %d", days)
	}
	rng := rand.New(rand.NewSource(c.Int64("seed")))
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -days)

	products := postgres.NewProductRepository(db)
	sales := postgres.NewSalesRepository(db)
	ctx := c.Context

	inserted := 0
	for _, mp := range mockCatalogue() {
		p := mp.Product
		p.CurrentStock = 50 + rng.Intn(151)

		id, err := ensureProduct(ctx, products, &p)
		if err != nil {
			return err
		}

		daily := syntheticSales(rng, mp, start, days)
		records := make([]domain.SalesRecord, 0, len(daily))
		for i, qty := range daily {
			if qty > 0 {
				records = append(records, domain.SalesRecord{ProductID: id, SaleDate: start.AddDate(0, 0, i), Quantity: qty})
			}
		}
		if err := sales.InsertSales(ctx, records); err != nil {
			return fmt.Errorf("insert sales for %s: %w", p.Code, err)
		}
		inserted += len(records)
		log.Printf("Seeded %s with %d sales days\n", p.Code, len(records))
	}

	log.Printf("Mock data completed: %d products, %d sales rows from %s\n",
		len(mockCatalogue()), inserted, start.Format(domain.DateLayout))
	return nil
}

// ensureProduct creates p or returns the id of the existing product with its code.
func ensureProduct(ctx context.Context, products repository.ProductRepository, p *domain.Product) (int64, error) {
	err := products.Create(ctx, p)
	if err == nil {
		return p.ID, nil
	}
	if !errors.Is(err, domain.ErrDuplicateCode) {
		return 0, fmt.Errorf("create product %s: %w", p.Code, err)
	}

	existing, err := products.GetByCodes(ctx, []string{p.Code})
	if err != nil {
		return 0, err
	}
	return existing[p.Code].ID, nil
}
