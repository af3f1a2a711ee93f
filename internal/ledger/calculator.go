// Package ledger derives portfolio positions from the transaction ledger.
//
// Positions are a pure function of the ledger: the same sequence of
// transactions always folds to the same positions, which keeps replay safe
// after recovery and the math testable.
package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tiemoko/brvmwatch/internal/models"
)

// InsufficientHoldingsError records a SELL that would drive a position
// negative. The ledger row is preserved for audit; its position effect is
// skipped.
type InsufficientHoldingsError struct {
	TransactionID string
	Ticker        string
	Have          decimal.Decimal
	Want          decimal.Decimal
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("insufficient holdings for %s: have %s, sell %s", e.Ticker, e.Have, e.Want)
}

// Compute replays transactions into per-ticker positions using average-cost
// basis. Input order does not matter: rows are sorted by (Timestamp, Seq)
// before replay, with the sort kept stable so equal keys preserve input
// order. Over-sells are reported in the returned issue slice and otherwise
// ignored; every returned position has Quantity >= 0. Zero-quantity
// positions are kept because their realized PnL still counts.
func Compute(txs []models.Transaction) (map[string]*models.Position, []error) {
	ordered := make([]models.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Timestamp.Equal(ordered[j].Timestamp) {
			return ordered[i].Timestamp.Before(ordered[j].Timestamp)
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	positions := make(map[string]*models.Position)
	var issues []error

	for _, tx := range ordered {
		pos, ok := positions[tx.Ticker]
		if !ok {
			pos = &models.Position{
				Ticker:      tx.Ticker,
				StockName:   tx.StockName,
				Quantity:    decimal.Zero,
				AverageCost: decimal.Zero,
				RealizedPnL: decimal.Zero,
			}
			positions[tx.Ticker] = pos
		}
		if pos.StockName == "" && tx.StockName != "" {
			pos.StockName = tx.StockName
		}

		switch tx.Side {
		case models.SideBuy:
			applyBuy(pos, tx)
		case models.SideSell:
			if err := applySell(pos, tx); err != nil {
				issues = append(issues, err)
			}
		}
	}

	return positions, issues
}

// applyBuy folds a purchase into the weighted average cost:
// avg' = (qty*avg + buyQty*price + fees) / (qty + buyQty)
func applyBuy(pos *models.Position, tx models.Transaction) {
	newQty := pos.Quantity.Add(tx.Quantity)
	totalCost := pos.Quantity.Mul(pos.AverageCost).
		Add(tx.Quantity.Mul(tx.UnitPrice)).
		Add(tx.Fees)
	pos.AverageCost = totalCost.Div(newQty)
	pos.Quantity = newQty
}

// applySell realizes PnL against the average cost, which stays unchanged:
// realized += sellQty*(price - avg) - fees
func applySell(pos *models.Position, tx models.Transaction) error {
	if tx.Quantity.GreaterThan(pos.Quantity) {
		return &InsufficientHoldingsError{
			TransactionID: tx.ID,
			Ticker:        tx.Ticker,
			Have:          pos.Quantity,
			Want:          tx.Quantity,
		}
	}

	pnl := tx.Quantity.Mul(tx.UnitPrice.Sub(pos.AverageCost)).Sub(tx.Fees)
	pos.RealizedPnL = pos.RealizedPnL.Add(pnl)
	pos.Quantity = pos.Quantity.Sub(tx.Quantity)
	return nil
}
