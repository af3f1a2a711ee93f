// Package watchlist manages per-user watchlists and the daily-mover sweep
package watchlist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/interfaces"
	"github.com/tiemoko/brvmwatch/internal/models"
)

// Compile-time interface check
var _ interfaces.WatchlistService = (*Service)(nil)

// Service implements WatchlistService
type Service struct {
	storage  interfaces.StorageManager
	provider interfaces.PriceProvider
	notifier interfaces.Notifier
	logger   *common.Logger
	movePct  float64
}

// NewService creates a new watchlist service. movePct is the absolute daily
// change that makes a watched ticker notable.
func NewService(
	storage interfaces.StorageManager,
	provider interfaces.PriceProvider,
	notifier interfaces.Notifier,
	logger *common.Logger,
	movePct float64,
) *Service {
	return &Service{
		storage:  storage,
		provider: provider,
		notifier: notifier,
		logger:   logger,
		movePct:  movePct,
	}
}

// Add puts a ticker on the user's watchlist. Adding an already-watched
// ticker is a no-op refresh of the stock name.
func (s *Service) Add(ctx context.Context, userID, ticker, stockName string) (*models.WatchlistEntry, error) {
	ticker = models.NormalizeTicker(ticker)
	if userID == "" || ticker == "" {
		return nil, fmt.Errorf("watchlist entry needs a user and a ticker")
	}

	entry := &models.WatchlistEntry{
		Key:       models.WatchlistKey(userID, ticker),
		UserID:    userID,
		Ticker:    ticker,
		StockName: stockName,
		AddedAt:   time.Now().UTC(),
	}
	if err := s.storage.WatchlistStore().Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to add watchlist entry: %w", err)
	}

	s.logger.Info().Str("user", userID).Str("ticker", ticker).Msg("Watchlist entry added")
	return entry, nil
}

// Remove drops a ticker from the user's watchlist
func (s *Service) Remove(ctx context.Context, userID, ticker string) error {
	ticker = models.NormalizeTicker(ticker)
	if err := s.storage.WatchlistStore().Delete(ctx, userID, ticker); err != nil {
		return fmt.Errorf("failed to remove watchlist entry: %w", err)
	}
	return nil
}

// List returns the user's watchlist entries
func (s *Service) List(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	return s.storage.WatchlistStore().List(ctx, userID)
}

// CheckMovers fetches a quote per watched ticker and notifies every watcher
// of a daily move at or beyond the threshold. Movers are level-triggered:
// a big move notifies on every sweep while it lasts, since the sweep runs
// on a daily cadence and each day's move is a fresh observation.
func (s *Service) CheckMovers(ctx context.Context) error {
	entries, err := s.storage.WatchlistStore().ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load watchlists: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	watchers := make(map[string][]models.WatchlistEntry)
	for _, entry := range entries {
		watchers[entry.Ticker] = append(watchers[entry.Ticker], entry)
	}

	notified := 0
	for ticker, watching := range watchers {
		quote, err := s.provider.GetQuote(ctx, ticker)
		if err != nil {
			s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Watchlist quote unavailable")
			continue
		}
		if err := s.storage.MarketStore().SaveQuote(ctx, quote); err != nil {
			s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Quote cache write failed")
		}

		move := quote.ChangePct
		if move < s.movePct && move > -s.movePct {
			continue
		}

		for _, entry := range watching {
			event := s.buildMoverNotification(&entry, quote)
			if err := s.notifier.Notify(ctx, event); err != nil {
				s.logger.Error().Str("user", entry.UserID).Str("ticker", ticker).Err(err).Msg("Mover notification failed")
				continue
			}
			notified++
		}
	}

	s.logger.Info().Int("tickers", len(watchers)).Int("notified", notified).Msg("Watchlist sweep complete")
	return nil
}

func (s *Service) buildMoverNotification(entry *models.WatchlistEntry, quote *models.Quote) *models.Notification {
	direction := "up"
	if quote.ChangePct < 0 {
		direction = "down"
	}
	name := entry.StockName
	if name == "" {
		name = entry.Ticker
	}

	return &models.Notification{
		ID:           uuid.NewString(),
		UserID:       entry.UserID,
		Ticker:       entry.Ticker,
		CurrentPrice: quote.Price,
		Message: fmt.Sprintf("%s is %s %.2f%% today at %s XOF",
			name, direction, quote.ChangePct, quote.Price.StringFixed(0)),
		CreatedAt: time.Now().UTC(),
	}
}
