package models

import "github.com/shopspring/decimal"

// Position is the derived state of one ticker after ledger replay.
// It is never stored; it is recomputed from transactions on demand.
type Position struct {
	Ticker      string          `json:"ticker"`
	StockName   string          `json:"stock_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
}

// CostBasis returns the remaining cost of the open position
func (p *Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.AverageCost)
}

// UnrealizedPnL returns the open profit at the given price
func (p *Position) UnrealizedPnL(currentPrice decimal.Decimal) decimal.Decimal {
	return p.Quantity.Mul(currentPrice.Sub(p.AverageCost))
}

// UnrealizedPnLPct returns the open profit as a percentage of average cost.
// The second return is false when the position is empty or has no cost.
func (p *Position) UnrealizedPnLPct(currentPrice decimal.Decimal) (float64, bool) {
	if p.Quantity.IsZero() || p.AverageCost.IsZero() {
		return 0, false
	}
	pct := currentPrice.Sub(p.AverageCost).
		Div(p.AverageCost).
		Mul(decimal.NewFromInt(100))
	return pct.InexactFloat64(), true
}
