// Package report builds portfolio snapshot reports from the ledger, the
// market cache, and live prices.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiemoko/brvmwatch/internal/analytics"
	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/interfaces"
	"github.com/tiemoko/brvmwatch/internal/ledger"
	"github.com/tiemoko/brvmwatch/internal/models"
)

// historyWindow is how far back BuildReport looks for analysis series
const historyWindow = 120 * 24 * time.Hour

// Compile-time interface check
var _ interfaces.ReportService = (*Service)(nil)

// Service implements ReportService
type Service struct {
	storage    interfaces.StorageManager
	provider   interfaces.PriceProvider
	summarizer interfaces.Summarizer // nil disables narratives
	logger     *common.Logger
	eps        map[string]float64 // published earnings per share by ticker
}

// NewService creates a new report service. summarizer may be nil; reports
// are then built without narratives. eps supplies published earnings per
// share by ticker for P/E annotations and may be nil.
func NewService(
	storage interfaces.StorageManager,
	provider interfaces.PriceProvider,
	summarizer interfaces.Summarizer,
	logger *common.Logger,
	eps map[string]float64,
) *Service {
	return &Service{
		storage:    storage,
		provider:   provider,
		summarizer: summarizer,
		logger:     logger,
		eps:        eps,
	}
}

// BuildReport replays the user's ledger and composes a fresh snapshot.
// Closed positions keep their realized P&L in the totals but get no line.
// A ticker whose price cannot be fetched falls back to the cached quote
// and is marked PriceMissing when there is none at all.
func (s *Service) BuildReport(ctx context.Context, userID string, options interfaces.ReportOptions) (*models.Report, error) {
	txs, err := s.storage.LedgerStore().ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	positions, issues := ledger.Compute(txs)
	for _, issue := range issues {
		s.logger.Warn().Str("user", userID).Err(issue).Msg("Ledger replay issue")
	}

	report := &models.Report{
		UserID:      userID,
		GeneratedAt: time.Now().UTC(),
		Currency:    "XOF",
	}

	for _, pos := range positions {
		report.TotalRealizedPnL = report.TotalRealizedPnL.Add(pos.RealizedPnL)
		if !pos.Quantity.IsPositive() {
			continue
		}

		line := models.ReportLine{
			Ticker:      pos.Ticker,
			StockName:   pos.StockName,
			Quantity:    pos.Quantity,
			AverageCost: pos.AverageCost,
			CostBasis:   pos.CostBasis(),
			RealizedPnL: pos.RealizedPnL,
		}

		quote := s.lookupQuote(ctx, pos.Ticker)
		if quote == nil {
			line.PriceMissing = true
		} else {
			line.CurrentPrice = quote.Price
			line.MarketValue = pos.Quantity.Mul(quote.Price)
			line.UnrealizedPnL = pos.UnrealizedPnL(quote.Price)
			if pct, ok := pos.UnrealizedPnLPct(quote.Price); ok {
				line.UnrealizedPnLPct = pct
			}

			if options.IncludeAnalysis {
				s.annotate(ctx, &line, quote.Price)
			}
		}

		report.TotalCost = report.TotalCost.Add(line.CostBasis)
		report.TotalValue = report.TotalValue.Add(line.MarketValue)
		report.TotalUnrealizedPnL = report.TotalUnrealizedPnL.Add(line.UnrealizedPnL)
		report.Lines = append(report.Lines, line)
	}

	sort.Slice(report.Lines, func(i, j int) bool {
		return report.Lines[i].Ticker < report.Lines[j].Ticker
	})

	if report.TotalValue.IsPositive() {
		for i := range report.Lines {
			weight := report.Lines[i].MarketValue.Div(report.TotalValue).Mul(decimal.NewFromInt(100))
			report.Lines[i].WeightPct = weight.InexactFloat64()
		}
	}
	if report.TotalCost.IsPositive() {
		gain := report.TotalValue.Add(report.TotalRealizedPnL).Sub(report.TotalCost)
		report.TotalReturnPct = gain.Div(report.TotalCost).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	if options.IncludeNarrative && s.summarizer != nil {
		narrative, err := s.summarizer.SummarizeReport(ctx, report)
		if err != nil {
			s.logger.Warn().Str("user", userID).Err(err).Msg("Narrative generation failed")
		} else {
			report.Narrative = narrative
		}
	}

	s.logger.Info().
		Str("user", userID).
		Int("lines", len(report.Lines)).
		Str("total_value", report.TotalValue.String()).
		Msg("Report built")
	return report, nil
}

// lookupQuote tries the live provider first and falls back to the cached
// quote so a flaky upstream degrades to stale data instead of a hole.
func (s *Service) lookupQuote(ctx context.Context, ticker string) *models.Quote {
	quote, err := s.provider.GetQuote(ctx, ticker)
	if err == nil {
		if saveErr := s.storage.MarketStore().SaveQuote(ctx, quote); saveErr != nil {
			s.logger.Warn().Str("ticker", ticker).Err(saveErr).Msg("Quote cache write failed")
		}
		return quote
	}
	s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Live quote unavailable, trying cache")

	cached, err := s.storage.MarketStore().GetQuote(ctx, ticker)
	if err != nil {
		return nil
	}
	return cached
}

// annotate attaches trend, signal, and P/E readings from the cached price
// series, pulling history from the provider when the cache is empty. The
// P/E only appears for tickers with a configured earnings figure.
func (s *Service) annotate(ctx context.Context, line *models.ReportLine, price decimal.Decimal) {
	to := time.Now().UTC()
	from := to.Add(-historyWindow)

	series, err := s.storage.MarketStore().GetSeries(ctx, line.Ticker, from, to)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Warn().Str("ticker", line.Ticker).Err(err).Msg("Series cache read failed")
		return
	}

	if len(series) == 0 {
		fetched, err := s.provider.GetHistory(ctx, line.Ticker, from, to)
		if err != nil {
			s.logger.Warn().Str("ticker", line.Ticker).Err(err).Msg("History fetch failed")
			return
		}
		if err := s.storage.MarketStore().MergeSeries(ctx, line.Ticker, fetched); err != nil {
			s.logger.Warn().Str("ticker", line.Ticker).Err(err).Msg("Series cache write failed")
		}
		series = fetched
	}

	eps := decimal.Zero
	if v, ok := s.eps[line.Ticker]; ok && v > 0 {
		eps = decimal.NewFromFloat(v)
	}

	analysis := analytics.Analyze(line.Ticker, price, series, eps)
	line.Trend = string(analysis.Trend)
	line.Signal = string(analysis.Signal)
	if analysis.PERatio != nil {
		line.PERatio = *analysis.PERatio
	}
}
