// Package interfaces defines service contracts for brvmwatch
package interfaces

import (
	"context"

	"github.com/tiemoko/brvmwatch/internal/models"
)

// PortfolioService manages the transaction ledger and derived positions
type PortfolioService interface {
	// RecordTransaction validates and appends a ledger row
	RecordTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)

	// ListTransactions returns a user's ledger in replay order
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)

	// Positions replays the user's ledger into current positions.
	// Replay issues (over-sells preserved for audit) are logged, not fatal.
	Positions(ctx context.Context, userID string) (map[string]*models.Position, error)

	// ImportCSV appends transactions parsed from CSV lines, returning the
	// number of rows recorded
	ImportCSV(ctx context.Context, userID string, lines []string) (int, error)
}

// ReportService builds portfolio report snapshots
type ReportService interface {
	// BuildReport composes positions, prices, and metrics into a report
	BuildReport(ctx context.Context, userID string, options ReportOptions) (*models.Report, error)
}

// ReportOptions configures report generation
type ReportOptions struct {
	IncludeNarrative bool // ask the summarizer for a narrative
	IncludeAnalysis  bool // include per-ticker trend/signal from price history
}

// AlertService manages alert rules and runs evaluation passes
type AlertService interface {
	// CreateRule validates and stores a new rule in the armed state
	CreateRule(ctx context.Context, rule *models.AlertRule) (*models.AlertRule, error)

	// DeleteRule removes a rule owned by the user
	DeleteRule(ctx context.Context, userID, ruleID string) error

	// ListRules returns a user's rules
	ListRules(ctx context.Context, userID string) ([]models.AlertRule, error)

	// RunPass evaluates every stored rule once and emits notifications for
	// armed rules whose condition newly holds
	RunPass(ctx context.Context) (*PassResult, error)

	// CheckPortfolioDaily notifies each user whose whole-portfolio total
	// return has crossed the configured loss or gain threshold
	CheckPortfolioDaily(ctx context.Context) error
}

// PassResult summarizes one evaluation pass
type PassResult struct {
	Evaluated   int // rules whose condition was evaluated
	Fired       int // notifications emitted and committed
	Unavailable int // rules skipped because price data was unavailable
	Errors      int // rules that hit a persistence or delivery error
}

// WatchlistService manages per-user watchlists
type WatchlistService interface {
	Add(ctx context.Context, userID, ticker, stockName string) (*models.WatchlistEntry, error)
	Remove(ctx context.Context, userID, ticker string) error
	List(ctx context.Context, userID string) ([]models.WatchlistEntry, error)

	// CheckMovers fetches quotes for all watched tickers and notifies owners
	// of significant daily moves
	CheckMovers(ctx context.Context) error
}
