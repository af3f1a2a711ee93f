package app

import (
	"context"
	"time"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/interfaces"
)

// startAlertScheduler runs the alert evaluation pass and the watchlist
// mover sweep on a fixed interval, and the whole-portfolio threshold check
// on its own slower cadence, until the context is cancelled.
func startAlertScheduler(ctx context.Context, alerts interfaces.AlertService, watchlists interfaces.WatchlistService, logger *common.Logger, interval, portfolioInterval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	portfolioTicker := time.NewTicker(portfolioInterval)
	defer portfolioTicker.Stop()

	logger.Info().
		Dur("interval", interval).
		Dur("portfolio_interval", portfolioInterval).
		Msg("Alert scheduler: started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Alert scheduler: stopped")
			return
		case <-ticker.C:
			runScheduledPass(ctx, alerts, watchlists, logger)
		case <-portfolioTicker.C:
			runPortfolioCheck(ctx, alerts, logger)
		}
	}
}

// runScheduledPass executes one tick. A panic in a pass is contained here:
// the scheduler must survive a bad tick and run again on the next one.
func runScheduledPass(ctx context.Context, alerts interfaces.AlertService, watchlists interfaces.WatchlistService, logger *common.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Scheduled pass panicked")
		}
	}()

	start := time.Now()

	result, err := alerts.RunPass(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Alert pass failed")
	} else if result.Fired > 0 {
		logger.Info().Int("fired", result.Fired).Msg("Alert pass fired notifications")
	}

	if err := watchlists.CheckMovers(ctx); err != nil {
		logger.Error().Err(err).Msg("Watchlist sweep failed")
	}

	logger.Debug().Dur("elapsed", time.Since(start)).Msg("Scheduled pass complete")
}

// runPortfolioCheck executes one whole-portfolio threshold sweep with the
// same panic containment as the rule pass.
func runPortfolioCheck(ctx context.Context, alerts interfaces.AlertService, logger *common.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Portfolio check panicked")
		}
	}()

	if err := alerts.CheckPortfolioDaily(ctx); err != nil {
		logger.Error().Err(err).Msg("Portfolio check failed")
	}
}
