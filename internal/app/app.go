// Package app wires configuration, storage, clients, and services into a
// running brvmwatch instance.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tiemoko/brvmwatch/internal/clients/brvm"
	"github.com/tiemoko/brvmwatch/internal/clients/gemini"
	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/interfaces"
	"github.com/tiemoko/brvmwatch/internal/notify"
	"github.com/tiemoko/brvmwatch/internal/services/alert"
	"github.com/tiemoko/brvmwatch/internal/services/portfolio"
	"github.com/tiemoko/brvmwatch/internal/services/report"
	"github.com/tiemoko/brvmwatch/internal/services/watchlist"
	"github.com/tiemoko/brvmwatch/internal/storage"
)

// App holds all initialized services and clients. It is the shared core
// used by cmd/brvmwatch-server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	PriceProvider    interfaces.PriceProvider
	Summarizer       interfaces.Summarizer
	Notifier         interfaces.Notifier
	PortfolioService interfaces.PortfolioService
	ReportService    interfaces.ReportService
	AlertService     interfaces.AlertService
	WatchlistService interfaces.WatchlistService
	StartupTime      time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services. configPath may be
// empty, in which case BRVMWATCH_CONFIG, the binary directory, and the
// development default are tried in that order.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("BRVMWATCH_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "brvmwatch.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/brvmwatch.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level, config.Logging.Format)

	storageManager, err := storage.NewManager(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	brvmClient := brvm.NewClient(
		brvm.WithBaseURL(config.Clients.BRVM.BaseURL),
		brvm.WithLogger(logger),
		brvm.WithRateLimit(config.Clients.BRVM.RateLimit),
		brvm.WithTimeout(config.Clients.BRVM.GetTimeout()),
	)

	var summarizer interfaces.Summarizer
	if config.Clients.Gemini.APIKey != "" {
		geminiClient, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client - narratives disabled")
		} else {
			summarizer = geminiClient
		}
	} else {
		logger.Info().Msg("Gemini API key not configured - narratives disabled")
	}

	notifier := notify.NewLogNotifier(logger)

	portfolioService := portfolio.NewService(storageManager, logger)
	reportService := report.NewService(storageManager, brvmClient, summarizer, logger, config.Analytics.EPS)
	alertService := alert.NewService(storageManager, brvmClient, notifier, logger, config.Alerts)
	watchlistService := watchlist.NewService(storageManager, brvmClient, notifier, logger, config.Alerts.WatchlistMovePct)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		PriceProvider:    brvmClient,
		Summarizer:       summarizer,
		Notifier:         notifier,
		PortfolioService: portfolioService,
		ReportService:    reportService,
		AlertService:     alertService,
		WatchlistService: watchlistService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: cancel scheduler, close storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// StartScheduler launches the background alert evaluation goroutine.
func (a *App) StartScheduler() {
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	a.schedulerCancel = schedulerCancel
	go startAlertScheduler(schedulerCtx, a.AlertService, a.WatchlistService, a.Logger, a.Config.Alerts.GetInterval(), a.Config.Alerts.GetPortfolioInterval())
}
