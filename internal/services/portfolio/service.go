// Package portfolio manages the transaction ledger and derived positions
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/interfaces"
	"github.com/tiemoko/brvmwatch/internal/ledger"
	"github.com/tiemoko/brvmwatch/internal/models"
)

// Compile-time interface check
var _ interfaces.PortfolioService = (*Service)(nil)

// Service implements PortfolioService
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates a new portfolio service
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// RecordTransaction validates and appends a ledger row. SELLs are
// pre-checked against current holdings so interactive callers get the
// insufficient-holdings error before the row lands in the ledger; replay
// still re-checks, so bulk-imported rows are covered either way.
func (s *Service) RecordTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	tx.Ticker = models.NormalizeTicker(tx.Ticker)
	if tx.Currency == "" {
		tx.Currency = "XOF"
	}
	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}

	if tx.Side == models.SideSell {
		if err := s.checkHoldings(ctx, tx); err != nil {
			return nil, err
		}
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	if _, err := s.storage.LedgerStore().AppendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	s.logger.Info().
		Str("user", tx.UserID).
		Str("ticker", tx.Ticker).
		Str("side", string(tx.Side)).
		Str("quantity", tx.Quantity.String()).
		Str("price", tx.UnitPrice.String()).
		Msg("Transaction recorded")
	return tx, nil
}

func (s *Service) checkHoldings(ctx context.Context, tx *models.Transaction) error {
	txs, err := s.storage.LedgerStore().ListTransactionsByTicker(ctx, tx.UserID, tx.Ticker)
	if err != nil {
		return fmt.Errorf("failed to check holdings: %w", err)
	}

	positions, _ := ledger.Compute(txs)
	held := decimal.Zero
	if pos, ok := positions[tx.Ticker]; ok {
		held = pos.Quantity
	}
	if tx.Quantity.GreaterThan(held) {
		return &ledger.InsufficientHoldingsError{
			Ticker: tx.Ticker,
			Have:   held,
			Want:   tx.Quantity,
		}
	}
	return nil
}

// ListTransactions returns a user's ledger in replay order
func (s *Service) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	txs, err := s.storage.LedgerStore().ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Positions replays the user's ledger into current positions. Over-sells
// preserved in the ledger are logged and excluded from position effects.
func (s *Service) Positions(ctx context.Context, userID string) (map[string]*models.Position, error) {
	txs, err := s.storage.LedgerStore().ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	positions, issues := ledger.Compute(txs)
	for _, issue := range issues {
		s.logger.Warn().Str("user", userID).Err(issue).Msg("Ledger replay issue")
	}
	return positions, nil
}

// ImportCSV appends transactions parsed from CSV lines. Bad rows are skipped
// with a warning, matching interactive import semantics.
func (s *Service) ImportCSV(ctx context.Context, userID string, lines []string) (int, error) {
	parsed, skipped := ParseTransactionCSV(lines)
	for _, skip := range skipped {
		s.logger.Warn().Str("user", userID).Str("row", skip.Row).Err(skip.Err).Msg("Skipping CSV row")
	}

	recorded := 0
	for i := range parsed {
		tx := parsed[i]
		tx.UserID = userID
		if tx.Timestamp.IsZero() {
			tx.Timestamp = time.Now().UTC()
		}
		if _, err := s.RecordTransaction(ctx, &tx); err != nil {
			s.logger.Warn().Str("user", userID).Str("ticker", tx.Ticker).Err(err).Msg("Skipping CSV transaction")
			continue
		}
		recorded++
	}

	s.logger.Info().Str("user", userID).Int("recorded", recorded).Int("parsed", len(parsed)).Msg("CSV import complete")
	return recorded, nil
}
