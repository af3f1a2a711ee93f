package analytics

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAnalyze_BullishTrend(t *testing.T) {
	// 60 steadily rising closes put price above MA20 above MA50.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	s := series(closes...)

	a := Analyze("SNTS", decimal.NewFromInt(230), s, decimal.Zero)

	if a.Trend != TrendBullish {
		t.Errorf("trend = %q, want bullish", a.Trend)
	}
	if a.Signal != SignalBuy {
		t.Errorf("signal = %q, want BUY", a.Signal)
	}
	if a.MA20 == nil || a.MA50 == nil {
		t.Fatal("expected MA20 and MA50 to be computed")
	}
	if *a.MA20 <= *a.MA50 {
		t.Errorf("MA20 (%v) should exceed MA50 (%v) on a rising series", *a.MA20, *a.MA50)
	}
	if a.PERatio != nil {
		t.Errorf("pe should be unset without an earnings figure, got %v", *a.PERatio)
	}
}

func TestAnalyze_ShortSeriesLeavesOptionalsUnset(t *testing.T) {
	a := Analyze("BICC", decimal.NewFromInt(4500), nil, decimal.Zero)

	if a.DailyReturnPct != nil || a.MA20 != nil || a.MA50 != nil || a.AnnualizedVolPct != nil {
		t.Errorf("optional metrics should be nil on an empty series: %+v", a)
	}
	if a.Trend != "" || a.Signal != SignalNone {
		t.Errorf("trend/signal should be unset without moving averages")
	}
	if !strings.HasPrefix(a.Summary, "BICC: 4500 XOF") {
		t.Errorf("summary = %q", a.Summary)
	}
}

func TestAnalyze_DailyReturn(t *testing.T) {
	s := series(100, 110)
	// currentPrice appended as latest observation: 110 -> 121 is +10%.
	a := Analyze("SNTS", decimal.NewFromInt(121), s, decimal.Zero)

	if a.DailyReturnPct == nil {
		t.Fatal("daily return not computed")
	}
	if got := *a.DailyReturnPct; got < 9.99 || got > 10.01 {
		t.Errorf("daily return = %v, want ~10", got)
	}
}

func TestDetectSignal_Sell(t *testing.T) {
	ma20 := 90.0
	ma50 := 100.0
	if got := DetectSignal(decimal.NewFromInt(80), &ma20, &ma50); got != SignalSell {
		t.Errorf("signal = %q, want SELL", got)
	}
}

func TestDetectSignal_NoneWithoutAverages(t *testing.T) {
	if got := DetectSignal(decimal.NewFromInt(80), nil, nil); got != SignalNone {
		t.Errorf("signal = %q, want none", got)
	}
}
