// Package models defines data structures for brvmwatch
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide identifies the direction of a ledger transaction
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// ParseTradeSide normalizes a side string to a TradeSide
func ParseTradeSide(s string) (TradeSide, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return "", fmt.Errorf("invalid trade side: %q", s)
	}
}

// Transaction is an immutable ledger record. Rows are only ever appended;
// positions are derived by replaying them in (Timestamp, Seq) order.
type Transaction struct {
	ID        string          `json:"id" badgerhold:"key"`
	UserID    string          `json:"user_id" badgerholdIndex:"UserID"`
	Ticker    string          `json:"ticker"`
	StockName string          `json:"stock_name,omitempty"`
	Side      TradeSide       `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Fees      decimal.Decimal `json:"fees"`
	Currency  string          `json:"currency"`
	Timestamp time.Time       `json:"timestamp"`
	Notes     string          `json:"notes,omitempty"`
	Seq       uint64          `json:"seq"` // store-assigned insertion counter, breaks timestamp ties
	CreatedAt time.Time       `json:"created_at"`
}

// Validate checks the invariants a ledger row must satisfy before append.
func (t *Transaction) Validate() error {
	if t.UserID == "" {
		return fmt.Errorf("transaction missing user id")
	}
	if t.Ticker == "" {
		return fmt.Errorf("transaction missing ticker")
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return fmt.Errorf("invalid trade side: %q", t.Side)
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("quantity must be positive, got %s", t.Quantity)
	}
	if t.UnitPrice.IsNegative() {
		return fmt.Errorf("unit price must not be negative, got %s", t.UnitPrice)
	}
	if t.Fees.IsNegative() {
		return fmt.Errorf("fees must not be negative, got %s", t.Fees)
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("transaction missing timestamp")
	}
	return nil
}

// NormalizeTicker uppercases and trims a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
