package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiemoko/brvmwatch/internal/models"
)

// Trend labels the relationship between price and its moving averages
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// CrossoverSignal is a simple buy/sell hint from moving-average crossovers
type CrossoverSignal string

const (
	SignalBuy  CrossoverSignal = "BUY"
	SignalSell CrossoverSignal = "SELL"
	SignalNone CrossoverSignal = ""
)

// Analysis is the composed metrics snapshot for one ticker. Optional fields
// are pointers: nil means the underlying series was too short to compute
// them.
type Analysis struct {
	Ticker             string          `json:"ticker"`
	CurrentPrice       decimal.Decimal `json:"current_price"`
	Currency           string          `json:"currency"`
	DailyReturnPct     *float64        `json:"daily_return_pct,omitempty"`
	MonthlyReturnPct   *float64        `json:"monthly_return_pct,omitempty"`
	AnnualizedVolPct   *float64        `json:"volatility_annualized,omitempty"`
	MA20               *float64        `json:"ma_20,omitempty"`
	MA50               *float64        `json:"ma_50,omitempty"`
	PERatio            *float64        `json:"pe_ratio,omitempty"`
	Trend              Trend           `json:"growth_trend,omitempty"`
	Signal             CrossoverSignal `json:"signal,omitempty"`
	Summary            string          `json:"summary"`
	ComputedAt         time.Time       `json:"computed_at"`
}

// Analyze composes returns, volatility, moving averages, valuation, and a
// trend reading for a ticker. The series must be ascending; currentPrice is
// appended as the latest observation when positive. A zero eps means no
// earnings figure is available and leaves PERatio unset.
func Analyze(ticker string, currentPrice decimal.Decimal, series models.PriceSeries, eps decimal.Decimal) *Analysis {
	prices := series
	if currentPrice.IsPositive() {
		prices = append(append(models.PriceSeries{}, series...), models.PricePoint{
			Date:  time.Now().UTC(),
			Close: currentPrice,
		})
	}

	a := &Analysis{
		Ticker:       ticker,
		CurrentPrice: currentPrice,
		Currency:     "XOF",
		ComputedAt:   time.Now().UTC(),
	}

	a.DailyReturnPct = dailyReturnPct(prices)
	a.MonthlyReturnPct = monthlyReturnPct(prices)

	if vol, err := AnnualizedVolatility(prices); err == nil {
		a.AnnualizedVolPct = &vol
	}

	if ma := MovingAverage(prices, 20); len(ma) > 0 {
		last := ma[len(ma)-1]
		a.MA20 = &last
	}
	if ma := MovingAverage(prices, 50); len(ma) > 0 {
		last := ma[len(ma)-1]
		a.MA50 = &last
	}

	if pe, err := PERatio(currentPrice, eps); err == nil {
		a.PERatio = &pe
	}

	a.Trend = detectTrend(currentPrice, a.MA20, a.MA50)
	a.Signal = DetectSignal(currentPrice, a.MA20, a.MA50)
	a.Summary = buildSummary(a)

	return a
}

// dailyReturnPct is the last period-over-period return, in percent
func dailyReturnPct(prices models.PriceSeries) *float64 {
	if len(prices) < 2 {
		return nil
	}
	prev := prices[len(prices)-2].Close.InexactFloat64()
	curr := prices[len(prices)-1].Close.InexactFloat64()
	if prev == 0 {
		return nil
	}
	pct := (curr - prev) / prev * 100
	return &pct
}

// monthlyReturnPct approximates the one-month return by comparing the
// average of the newer half of the series against the older half.
func monthlyReturnPct(prices models.PriceSeries) *float64 {
	n := len(prices)
	if n < 2 {
		return nil
	}
	mid := n / 2
	if mid < 1 {
		mid = 1
	}

	oldAvg := 0.0
	for _, p := range prices[:mid] {
		oldAvg += p.Close.InexactFloat64()
	}
	oldAvg /= float64(mid)

	newAvg := 0.0
	for _, p := range prices[mid:] {
		newAvg += p.Close.InexactFloat64()
	}
	newAvg /= float64(n - mid)

	if oldAvg == 0 {
		return nil
	}
	pct := (newAvg - oldAvg) / oldAvg * 100
	return &pct
}

func detectTrend(price decimal.Decimal, ma20, ma50 *float64) Trend {
	if ma20 == nil || ma50 == nil || !price.IsPositive() {
		return ""
	}
	p := price.InexactFloat64()
	switch {
	case p > *ma20 && *ma20 > *ma50:
		return TrendBullish
	case p < *ma20 && *ma20 < *ma50:
		return TrendBearish
	default:
		return TrendNeutral
	}
}

// DetectSignal derives a buy/sell hint from moving-average crossovers:
// BUY when MA20 > MA50 and price sits above MA20, SELL for the mirror case.
func DetectSignal(price decimal.Decimal, ma20, ma50 *float64) CrossoverSignal {
	if ma20 == nil || ma50 == nil || !price.IsPositive() {
		return SignalNone
	}
	p := price.InexactFloat64()
	if *ma20 > *ma50 && p > *ma20 {
		return SignalBuy
	}
	if *ma20 < *ma50 && p < *ma20 {
		return SignalSell
	}
	return SignalNone
}

func buildSummary(a *Analysis) string {
	parts := []string{fmt.Sprintf("%s: %s %s", a.Ticker, a.CurrentPrice.StringFixed(0), a.Currency)}
	if a.DailyReturnPct != nil {
		parts = append(parts, fmt.Sprintf("1d: %+.2f%%", *a.DailyReturnPct))
	}
	if a.MonthlyReturnPct != nil {
		parts = append(parts, fmt.Sprintf("1m: %+.2f%%", *a.MonthlyReturnPct))
	}
	if a.AnnualizedVolPct != nil {
		parts = append(parts, fmt.Sprintf("Vol: %.1f%%", *a.AnnualizedVolPct))
	}
	if a.MA20 != nil {
		parts = append(parts, fmt.Sprintf("MA20: %.0f", *a.MA20))
	}
	if a.MA50 != nil {
		parts = append(parts, fmt.Sprintf("MA50: %.0f", *a.MA50))
	}
	if a.PERatio != nil {
		parts = append(parts, fmt.Sprintf("P/E: %.1f", *a.PERatio))
	}
	if a.Trend != "" {
		parts = append(parts, fmt.Sprintf("Trend: %s", a.Trend))
	}
	return strings.Join(parts, " | ")
}
