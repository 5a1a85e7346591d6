package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/forecast"
	"github.com/andresuchdata/stockcast/backend-go/internal/pipeline"
	"github.com/andresuchdata/stockcast/backend-go/internal/replenishment"
	"github.com/andresuchdata/stockcast/backend-go/internal/repository"
)

var reportHeader = []string{
	"code", "name", "current_stock", "avg_daily_demand", "demand_std",
	"eoq", "safety_stock", "reorder_point", "stock_status",
}

// ReorderReport computes replenishment metrics for the whole catalogue.
type ReorderReport struct {
	products repository.ProductRepository
	sales    repository.SalesRepository
	calc     *replenishment.Calculator
	workers  int
}

func NewReorderReport(products repository.ProductRepository, sales repository.SalesRepository, calc *replenishment.Calculator, workers int) *ReorderReport {
	return &ReorderReport{products: products, sales: sales, calc: calc, workers: workers}
}

// Build returns one row per product in catalogue order. Per-product failures are
// kept on the row so one bad product does not sink the report.
func (r *ReorderReport) Build(ctx context.Context) ([]domain.ReorderReportRow, error) {
	products, err := r.products.List(ctx, "")
	if err != nil {
		return nil, err
	}

	return pipeline.Process(ctx, products, r.workers, func(ctx context.Context, p domain.Product) domain.ReorderReportRow {
		row := domain.ReorderReportRow{Product: Snapshot(p)}

		obs, err := r.sales.DailySales(ctx, p.ID, time.Time{}, time.Time{})
		if err != nil {
			row.Err = err
			return row
		}
		series, _ := forecast.BuildDailySeries(obs, time.Time{}, time.Time{})

		row.Metrics, row.Err = r.calc.Calculate(replenishment.Stats(series.Values), p)
		return row
	})
}

// WriteCSV writes the rows that computed successfully and returns how many were skipped.
func WriteCSV(w io.Writer, rows []domain.ReorderReportRow) (int, error) {
	writer := csv.NewWriter(w)

	if err := writer.Write(reportHeader); err != nil {
		return 0, err
	}

	skipped := 0
	for _, row := range rows {
		if row.Err != nil {
			skipped++
			continue
		}
		m := row.Metrics
		record := []string{
			row.Product.Code,
			row.Product.Name,
			strconv.Itoa(m.CurrentStock),
			fmt.Sprintf("%.4f", m.AvgDailyDemand),
			fmt.Sprintf("%.4f", m.DemandStd),
			fmt.Sprintf("%.2f", m.EOQ),
			fmt.Sprintf("%.2f", m.SafetyStock),
			fmt.Sprintf("%.2f", m.ReorderPoint),
			string(m.StockStatus),
		}
		if err := writer.Write(record); err != nil {
			return skipped, err
		}
	}

	writer.Flush()
	return skipped, writer.Error()
}
