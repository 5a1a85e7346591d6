package forecast

import (
	"time"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
)

const secondsPerDay = 24 * 60 * 60

// DemandSeries is a regular daily demand series. Dates are contiguous from Start,
// one value per calendar day, with days without sales holding zero.
type DemandSeries struct {
	Start  time.Time
	Values []float64
}

// Len returns the number of days covered.
func (s DemandSeries) Len() int {
	return len(s.Values)
}

// DateAt returns the calendar day of the i-th value.
func (s DemandSeries) DateAt(i int) time.Time {
	return s.Start.AddDate(0, 0, i)
}

// End returns the last day of the series. It is the zero time for an empty series.
func (s DemandSeries) End() time.Time {
	if len(s.Values) == 0 {
		return time.Time{}
	}
	return s.DateAt(len(s.Values) - 1)
}

// SeriesWindow resolves the calendar days a series over obs would cover. A zero from
// or to defaults to the first or last observed day. ok is false when the window is empty.
func SeriesWindow(obs []domain.DailySales, from, to time.Time) (first, last time.Time, ok bool) {
	for _, o := range obs {
		d := truncateDay(o.Date)
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if last.IsZero() || d.After(last) {
			last = d
		}
	}
	if !from.IsZero() {
		first = truncateDay(from)
	}
	if !to.IsZero() {
		last = truncateDay(to)
	}
	if first.IsZero() || last.IsZero() || last.Before(first) {
		return time.Time{}, time.Time{}, false
	}
	return first, last, true
}

// DaySpan counts the calendar days in [first, last], both ends included.
func DaySpan(first, last time.Time) int {
	return int(dayNumber(last)-dayNumber(first)) + 1
}

// BuildDailySeries sums observations per calendar day over [from, to] and fills the
// days without observations with zero demand. A zero from or to defaults to the first
// or last observed day. It also returns how many distinct days recorded a sale.
// Callers bound the window first; see SeriesWindow and DaySpan.
func BuildDailySeries(obs []domain.DailySales, from, to time.Time) (DemandSeries, int) {
	first, last, ok := SeriesWindow(obs, from, to)
	if !ok {
		return DemandSeries{}, 0
	}

	origin := dayNumber(first)
	values := make([]float64, DaySpan(first, last))
	for _, o := range obs {
		d := truncateDay(o.Date)
		if d.Before(first) || d.After(last) {
			continue
		}
		values[dayNumber(d)-origin] += o.Quantity
	}

	saleDays := 0
	for _, v := range values {
		if v > 0 {
			saleDays++
		}
	}

	return DemandSeries{Start: first, Values: values}, saleDays
}

// dayNumber is the civil day index since the Unix epoch. It works on Unix seconds, so
// it does not saturate the way time.Duration does beyond roughly 292 years.
func dayNumber(t time.Time) int64 {
	return truncateDay(t).Unix() / secondsPerDay
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
