package models

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by clients and stores when a ticker is unknown
var ErrNotFound = errors.New("not found")

// Quote is a normalized current price for a ticker
type Quote struct {
	Ticker    string          `json:"ticker"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	ChangePct float64         `json:"change_pct,omitempty"`
	Volume    int64           `json:"volume,omitempty"`
	Source    string          `json:"source,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// PricePoint is one close observation in a price series
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// PriceSeries is an ascending, timestamp-unique sequence of closes.
// Trading gaps are preserved: a window of n operates over n data points,
// never n calendar days.
type PriceSeries []PricePoint

// Merge combines two series, deduping timestamps with last write winning,
// and returns the result sorted ascending by date.
func (s PriceSeries) Merge(other PriceSeries) PriceSeries {
	byDate := make(map[time.Time]PricePoint, len(s)+len(other))
	for _, p := range s {
		byDate[p.Date] = p
	}
	for _, p := range other {
		byDate[p.Date] = p
	}

	merged := make(PriceSeries, 0, len(byDate))
	for _, p := range byDate {
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}

// Slice returns the points with from <= date <= to, preserving order
func (s PriceSeries) Slice(from, to time.Time) PriceSeries {
	out := make(PriceSeries, 0, len(s))
	for _, p := range s {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Closes returns the close values as floats for statistical computation
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close.InexactFloat64()
	}
	return out
}

// StoredSeries is the persisted price-history cache for one ticker
type StoredSeries struct {
	Ticker    string      `json:"ticker" badgerhold:"key"`
	Points    PriceSeries `json:"points"`
	UpdatedAt time.Time   `json:"updated_at"`
}
