// Package storage wires the concrete stores behind the StorageManager
// interface.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/interfaces"
	"github.com/tiemoko/brvmwatch/internal/storage/badger"
)

// Compile-time interface check
var _ interfaces.StorageManager = (*Manager)(nil)

// Manager owns the database handle and exposes the typed stores.
type Manager struct {
	store     *badger.Store
	dataPath  string
	ledger    interfaces.LedgerStore
	rules     interfaces.AlertRuleStore
	watchlist interfaces.WatchlistStore
	market    interfaces.MarketStore
	logger    *common.Logger
}

// NewManager opens the BadgerHold database and builds the stores.
func NewManager(config *common.Config, logger *common.Logger) (*Manager, error) {
	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return &Manager{
		store:     store,
		dataPath:  config.Storage.Path,
		ledger:    badger.NewLedgerStorage(store, logger),
		rules:     badger.NewAlertRuleStorage(store, logger),
		watchlist: badger.NewWatchlistStorage(store, logger),
		market:    badger.NewMarketStorage(store, logger),
		logger:    logger,
	}, nil
}

func (m *Manager) LedgerStore() interfaces.LedgerStore       { return m.ledger }
func (m *Manager) AlertRuleStore() interfaces.AlertRuleStore { return m.rules }
func (m *Manager) WatchlistStore() interfaces.WatchlistStore { return m.watchlist }
func (m *Manager) MarketStore() interfaces.MarketStore       { return m.market }

// WriteRaw writes binary data (e.g. chart PNGs) under the data path.
// The write goes to a temp file first so readers never see a torn file.
func (m *Manager) WriteRaw(subdir, key string, data []byte) error {
	dir := filepath.Join(m.dataPath, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, sanitizeKey(key))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return nil
}

func (m *Manager) Close() error {
	return m.store.Close()
}

func sanitizeKey(key string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", "..", "-", " ", "_")
	return replacer.Replace(key)
}
