package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportLine is one held ticker in a portfolio report
type ReportLine struct {
	Ticker           string          `json:"ticker"`
	StockName        string          `json:"stock_name,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	AverageCost      decimal.Decimal `json:"average_cost"`
	CostBasis        decimal.Decimal `json:"cost_basis"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	MarketValue      decimal.Decimal `json:"market_value"`
	RealizedPnL      decimal.Decimal `json:"realized_pnl"`
	UnrealizedPnL    decimal.Decimal `json:"unrealized_pnl"`
	UnrealizedPnLPct float64         `json:"unrealized_pnl_pct,omitempty"`
	WeightPct        float64         `json:"weight_pct,omitempty"`
	PriceMissing     bool            `json:"price_missing,omitempty"`
	Trend            string          `json:"trend,omitempty"`
	Signal           string          `json:"signal,omitempty"`
	PERatio          float64         `json:"pe_ratio,omitempty"`
}

// Report is a plain snapshot of a user's portfolio, rebuilt fresh on each
// request. Lines are sorted by ticker so identical inputs marshal
// byte-identically.
type Report struct {
	UserID             string          `json:"user_id"`
	GeneratedAt        time.Time       `json:"generated_at"`
	Currency           string          `json:"currency"`
	Lines              []ReportLine    `json:"lines"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	TotalValue         decimal.Decimal `json:"total_value"`
	TotalRealizedPnL   decimal.Decimal `json:"total_realized_pnl"`
	TotalUnrealizedPnL decimal.Decimal `json:"total_unrealized_pnl"`
	TotalReturnPct     float64         `json:"total_return_pct"`
	Narrative          string          `json:"narrative,omitempty"`
}
