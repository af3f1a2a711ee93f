package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiemoko/brvmwatch/internal/ledger"
	"github.com/tiemoko/brvmwatch/internal/models"
)

// CheckPortfolioDaily walks every user's ledger and notifies users whose
// whole-portfolio total return sits beyond the configured loss or gain
// threshold. Unlike rule evaluation this is level-triggered: it runs on the
// daily cadence and reports the standing state, so there is no armed/fired
// bookkeeping to commit.
func (s *Service) CheckPortfolioDaily(ctx context.Context) error {
	lossPct := s.config.PortfolioLossPct
	gainPct := s.config.PortfolioGainPct
	if lossPct <= 0 && gainPct <= 0 {
		return nil
	}

	users, err := s.storage.LedgerStore().ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list portfolio users: %w", err)
	}

	prices := newPriceCache()
	checked := 0
	for _, userID := range users {
		if s.checkUserPortfolio(ctx, userID, prices, lossPct, gainPct) {
			checked++
		}
	}

	s.logger.Info().
		Int("users", len(users)).
		Int("checked", checked).
		Msg("Daily portfolio check complete")
	return nil
}

// checkUserPortfolio computes one user's total return and notifies on a
// threshold crossing. A user with any unpriceable holding is skipped for
// this run; a partial total return would misstate the portfolio.
func (s *Service) checkUserPortfolio(ctx context.Context, userID string, prices *priceCache, lossPct, gainPct float64) bool {
	txs, err := s.storage.LedgerStore().ListTransactions(ctx, userID)
	if err != nil {
		s.logger.Warn().Str("user", userID).Err(err).Msg("Ledger unavailable for portfolio check")
		return false
	}
	positions, _ := ledger.Compute(txs)

	cost := decimal.Zero
	value := decimal.Zero
	realized := decimal.Zero
	for _, pos := range positions {
		realized = realized.Add(pos.RealizedPnL)
		if !pos.Quantity.IsPositive() {
			continue
		}

		quote, err := prices.get(pos.Ticker, func() (*models.Quote, error) {
			return s.fetchPrice(ctx, pos.Ticker)
		})
		if err != nil {
			s.logger.Warn().
				Str("user", userID).
				Str("ticker", pos.Ticker).
				Err(err).
				Msg("Price unavailable, portfolio check skipped for user")
			return false
		}

		cost = cost.Add(pos.CostBasis())
		value = value.Add(pos.Quantity.Mul(quote.Price))
	}
	if !cost.IsPositive() {
		return true
	}

	totalReturn := value.Add(realized).Sub(cost).Div(cost).Mul(hundred).InexactFloat64()

	var msg string
	switch {
	case lossPct > 0 && totalReturn <= -lossPct:
		msg = fmt.Sprintf("Portfolio alert: total return %.1f%% (loss threshold %v%%)", totalReturn, lossPct)
	case gainPct > 0 && totalReturn >= gainPct:
		msg = fmt.Sprintf("Portfolio alert: total return +%.1f%% (gain threshold %v%%)", totalReturn, gainPct)
	default:
		return true
	}

	event := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Error().Str("user", userID).Err(err).Msg("Portfolio notification delivery failed")
		return false
	}
	return true
}
