package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/models"
)

const quotePrefix = "quote/"

type marketStorage struct {
	store  *Store
	logger *common.Logger
}

// NewMarketStorage creates a new MarketStore backed by BadgerHold.
func NewMarketStorage(store *Store, logger *common.Logger) *marketStorage {
	return &marketStorage{store: store, logger: logger}
}

func (s *marketStorage) SaveQuote(_ context.Context, quote *models.Quote) error {
	if quote.FetchedAt.IsZero() {
		quote.FetchedAt = time.Now().UTC()
	}
	if err := s.store.db.Upsert(quotePrefix+quote.Ticker, quote); err != nil {
		return fmt.Errorf("failed to save quote for %s: %w", quote.Ticker, err)
	}
	return nil
}

func (s *marketStorage) GetQuote(_ context.Context, ticker string) (*models.Quote, error) {
	var quote models.Quote
	if err := s.store.db.Get(quotePrefix+ticker, &quote); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quote for %s: %w", ticker, err)
	}
	return &quote, nil
}

func (s *marketStorage) MergeSeries(_ context.Context, ticker string, points models.PriceSeries) error {
	var stored models.StoredSeries
	err := s.store.db.Get(ticker, &stored)
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to load series for %s: %w", ticker, err)
	}

	stored.Ticker = ticker
	stored.Points = stored.Points.Merge(points)
	stored.UpdatedAt = time.Now().UTC()

	if err := s.store.db.Upsert(ticker, &stored); err != nil {
		return fmt.Errorf("failed to save series for %s: %w", ticker, err)
	}
	s.logger.Debug().Str("ticker", ticker).Int("points", len(stored.Points)).Msg("Price series merged")
	return nil
}

func (s *marketStorage) GetSeries(_ context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	var stored models.StoredSeries
	if err := s.store.db.Get(ticker, &stored); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get series for %s: %w", ticker, err)
	}
	return stored.Points.Slice(from, to), nil
}
