// Package interfaces defines service contracts for brvmwatch
package interfaces

import (
	"context"
	"time"

	"github.com/tiemoko/brvmwatch/internal/models"
)

// PriceProvider supplies current and historical prices per ticker.
// Implementations return models.ErrNotFound for unknown tickers.
type PriceProvider interface {
	// GetQuote fetches the current price for a ticker
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)

	// GetHistory fetches an ascending, timestamp-unique close series
	GetHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error)
}

// Summarizer turns a structured report into a natural-language narrative.
// It is an opaque text-generation collaborator; the engine never depends on
// what produced the text.
type Summarizer interface {
	// SummarizeReport generates a short narrative for a portfolio report
	SummarizeReport(ctx context.Context, report *models.Report) (string, error)
}

// Notifier delivers notification events. The engine does not know the
// delivery channel; an error means the event must not be counted as
// delivered.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}
