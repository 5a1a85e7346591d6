package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/forecast"
	"github.com/andresuchdata/stockcast/backend-go/internal/repository"
)

// DemandHistoryReader turns stored sales into a gap-filled daily demand series.
type DemandHistoryReader struct {
	sales   repository.SalesRepository
	minDays int
	maxSpan int
}

// NewDemandHistoryReader builds a reader. maxSpan caps the calendar days a window may
// cover; 0 leaves it unbounded.
func NewDemandHistoryReader(sales repository.SalesRepository, minDays, maxSpan int) *DemandHistoryReader {
	return &DemandHistoryReader{sales: sales, minDays: minDays, maxSpan: maxSpan}
}

// Read returns the daily series for a product over [from, to]; zero bounds default to
// the full available history. Fewer than minDays distinct sale days is an error.
func (r *DemandHistoryReader) Read(ctx context.Context, productID int64, from, to time.Time) (forecast.DemandSeries, error) {
	if !from.IsZero() && !to.IsZero() {
		if err := r.checkSpan(from, to); err != nil {
			return forecast.DemandSeries{}, err
		}
	}

	obs, err := r.sales.DailySales(ctx, productID, from, to)
	if err != nil {
		return forecast.DemandSeries{}, err
	}

	// an open bound resolves against the data
	if first, last, ok := forecast.SeriesWindow(obs, from, to); ok {
		if err := r.checkSpan(first, last); err != nil {
			return forecast.DemandSeries{}, err
		}
	}

	series, saleDays := forecast.BuildDailySeries(obs, from, to)
	if saleDays < r.minDays {
		return forecast.DemandSeries{}, fmt.Errorf("%w: product %d has %d days with sales, need %d",
			domain.ErrInsufficientHistory, productID, saleDays, r.minDays)
	}

	return series, nil
}

func (r *DemandHistoryReader) checkSpan(first, last time.Time) error {
	if r.maxSpan <= 0 || last.Before(first) {
		return nil
	}
	if span := forecast.DaySpan(first, last); span > r.maxSpan {
		return fmt.Errorf("%w: history window %s..%s spans %d days, at most %d allowed",
			domain.ErrInvalidArgument, first.Format(domain.DateLayout), last.Format(domain.DateLayout), span, r.maxSpan)
	}
	return nil
}
