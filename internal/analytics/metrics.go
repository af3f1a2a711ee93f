// Package analytics computes financial metrics from price series.
//
// Every function is side-effect-free and tolerates series with trading gaps:
// windows operate over present data points, never calendar days, and gaps are
// not interpolated. Metrics that cannot be computed return an error instead
// of a defaulted zero.
package analytics

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiemoko/brvmwatch/internal/models"
)

var (
	// ErrInsufficientData signals a metric requested over too few points
	ErrInsufficientData = errors.New("insufficient data")

	// ErrMissingFundamental signals a valuation ratio requested without the
	// earnings figure it needs; fundamentals are never estimated
	ErrMissingFundamental = errors.New("missing fundamental data")
)

// TradingDaysPerYear is the conventional annualization factor
const TradingDaysPerYear = 252

// SimpleReturn computes (p1 - p0) / p0 between the first and last points of
// the series inside [from, to]. Fewer than two points in range is
// ErrInsufficientData, as is a zero opening price.
func SimpleReturn(series models.PriceSeries, from, to time.Time) (float64, error) {
	window := series.Slice(from, to)
	if len(window) < 2 {
		return 0, ErrInsufficientData
	}

	p0 := window[0].Close.InexactFloat64()
	p1 := window[len(window)-1].Close.InexactFloat64()
	if p0 == 0 {
		return 0, ErrInsufficientData
	}
	return (p1 - p0) / p0, nil
}

// Returns converts a price series into period-over-period simple returns.
// Points following a zero close are skipped.
func Returns(series models.PriceSeries) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Close.InexactFloat64()
		curr := series[i].Close.InexactFloat64()
		if prev == 0 {
			continue
		}
		out = append(out, (curr-prev)/prev)
	}
	return out
}

// MovingAverage computes trailing arithmetic means of window size n.
// The output is shorter than the input by n-1 points; a series shorter than
// n yields an empty slice.
func MovingAverage(series models.PriceSeries, n int) []float64 {
	if n <= 0 || len(series) < n {
		return nil
	}

	out := make([]float64, 0, len(series)-n+1)
	sum := 0.0
	for i, p := range series {
		sum += p.Close.InexactFloat64()
		if i >= n {
			sum -= series[i-n].Close.InexactFloat64()
		}
		if i >= n-1 {
			out = append(out, sum/float64(n))
		}
	}
	return out
}

// Volatility computes the sample standard deviation (n-1 divisor) of a
// return sequence. Fewer than two observations is ErrInsufficientData.
func Volatility(returns []float64) (float64, error) {
	n := len(returns)
	if n < 2 {
		return 0, ErrInsufficientData
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(n - 1)

	return math.Sqrt(variance), nil
}

// AnnualizedVolatility computes the volatility of the series' period returns
// scaled to an annual percentage (sqrt(252) convention).
func AnnualizedVolatility(series models.PriceSeries) (float64, error) {
	vol, err := Volatility(Returns(series))
	if err != nil {
		return 0, err
	}
	return vol * math.Sqrt(TradingDaysPerYear) * 100, nil
}

// PERatio computes price / per-share earnings. A missing or non-positive
// earnings figure is ErrMissingFundamental; the engine never estimates it.
func PERatio(price, eps decimal.Decimal) (float64, error) {
	if eps.Sign() <= 0 {
		return 0, ErrMissingFundamental
	}
	return price.Div(eps).InexactFloat64(), nil
}
