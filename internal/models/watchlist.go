package models

import "time"

// WatchlistEntry tracks a ticker for a user without implying ownership.
// Unique per (UserID, Ticker).
type WatchlistEntry struct {
	Key       string    `json:"-" badgerhold:"key"` // UserID + "/" + Ticker
	UserID    string    `json:"user_id" badgerholdIndex:"UserID"`
	Ticker    string    `json:"ticker"`
	StockName string    `json:"stock_name,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// WatchlistKey builds the storage key for a user/ticker pair
func WatchlistKey(userID, ticker string) string {
	return userID + "/" + ticker
}
