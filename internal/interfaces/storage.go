// Package interfaces defines service contracts for brvmwatch
package interfaces

import (
	"context"
	"time"

	"github.com/tiemoko/brvmwatch/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	LedgerStore() LedgerStore
	AlertRuleStore() AlertRuleStore
	WatchlistStore() WatchlistStore
	MarketStore() MarketStore

	// WriteRaw writes arbitrary binary data (e.g. chart PNGs) to a
	// subdirectory of the data path atomically
	WriteRaw(subdir, key string, data []byte) error

	Close() error
}

// LedgerStore persists the append-only transaction ledger.
// AppendTransaction assigns the insertion sequence; rows are never updated.
type LedgerStore interface {
	AppendTransaction(ctx context.Context, tx *models.Transaction) (string, error)
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	ListTransactionsByTicker(ctx context.Context, userID, ticker string) ([]models.Transaction, error)

	// ListUsers returns the distinct user IDs that own ledger rows, sorted
	ListUsers(ctx context.Context) ([]string, error)
}

// AlertRuleStore persists alert rules and their edge-trigger state.
// UpdateRuleState must apply the fired flag and failure counter atomically
// for a single rule.
type AlertRuleStore interface {
	SaveRule(ctx context.Context, rule *models.AlertRule) error
	GetRule(ctx context.Context, ruleID string) (*models.AlertRule, error)
	DeleteRule(ctx context.Context, ruleID string) error
	ListRules(ctx context.Context, userID string) ([]models.AlertRule, error)
	ListAllRules(ctx context.Context) ([]models.AlertRule, error)
	UpdateRuleState(ctx context.Context, ruleID string, fired bool, consecutiveFailures int) error
}

// WatchlistStore persists watchlist membership
type WatchlistStore interface {
	Upsert(ctx context.Context, entry *models.WatchlistEntry) error
	Delete(ctx context.Context, userID, ticker string) error
	List(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	ListAll(ctx context.Context) ([]models.WatchlistEntry, error)
}

// MarketStore caches quotes and price history fetched from the provider
type MarketStore interface {
	SaveQuote(ctx context.Context, quote *models.Quote) error
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)

	// MergeSeries folds new points into the stored series for a ticker,
	// deduping timestamps last-write-wins
	MergeSeries(ctx context.Context, ticker string, points models.PriceSeries) error
	GetSeries(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error)
}
