package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/models"
)

type watchlistStorage struct {
	store  *Store
	logger *common.Logger
}

// NewWatchlistStorage creates a new WatchlistStore backed by BadgerHold.
func NewWatchlistStorage(store *Store, logger *common.Logger) *watchlistStorage {
	return &watchlistStorage{store: store, logger: logger}
}

func (s *watchlistStorage) Upsert(_ context.Context, entry *models.WatchlistEntry) error {
	key := models.WatchlistKey(entry.UserID, entry.Ticker)
	entry.Key = key

	// Preserve AddedAt when the pair already exists.
	var existing models.WatchlistEntry
	if err := s.store.db.Get(key, &existing); err == nil {
		entry.AddedAt = existing.AddedAt
	} else if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}

	if err := s.store.db.Upsert(key, entry); err != nil {
		return fmt.Errorf("failed to save watchlist entry: %w", err)
	}
	s.logger.Debug().Str("user", entry.UserID).Str("ticker", entry.Ticker).Msg("Watchlist entry saved")
	return nil
}

func (s *watchlistStorage) Delete(_ context.Context, userID, ticker string) error {
	err := s.store.db.Delete(models.WatchlistKey(userID, ticker), models.WatchlistEntry{})
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to delete watchlist entry: %w", err)
	}
	return nil
}

func (s *watchlistStorage) List(_ context.Context, userID string) ([]models.WatchlistEntry, error) {
	var entries []models.WatchlistEntry
	query := badgerhold.Where("UserID").Eq(userID).Index("UserID")
	if err := s.store.db.Find(&entries, query); err != nil {
		return nil, fmt.Errorf("failed to list watchlist for user %s: %w", userID, err)
	}
	return entries, nil
}

func (s *watchlistStorage) ListAll(_ context.Context) ([]models.WatchlistEntry, error) {
	var entries []models.WatchlistEntry
	if err := s.store.db.Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to list watchlist entries: %w", err)
	}
	return entries, nil
}
