// Package badger provides BadgerHold-based storage implementations for the
// ledger, alert rules, watchlists, and the market data cache.
package badger

import (
	"errors"
	"fmt"
	"os"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/tiemoko/brvmwatch/internal/common"
)

// gcInterval is how often the value log is compacted. Quote and series
// cache keys are rewritten on every evaluation pass, so stale versions
// accumulate quickly relative to the database size.
const gcInterval = 30 * time.Minute

// Store wraps a BadgerHold database connection and owns the value-log GC
// loop for it.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
	gcStop chan struct{}
	gcDone chan struct{}
}

// NewStore creates a new BadgerHold store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger
	// Rule state and quote cache keys are upserted in place; old versions
	// are never read back.
	options.NumVersionsToKeep = 1

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("BadgerHold store opened")

	s := &Store{
		db:     db,
		logger: logger,
		gcStop: make(chan struct{}),
		gcDone: make(chan struct{}),
	}
	go s.runGC()
	return s, nil
}

// runGC compacts the value log periodically until Close. Badger returns
// ErrNoRewrite when a cycle finds nothing worth reclaiming.
func (s *Store) runGC() {
	defer close(s.gcDone)

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.gcStop:
			return
		case <-ticker.C:
			err := s.db.Badger().RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
				s.logger.Warn().Err(err).Msg("Badger value log GC failed")
			}
		}
	}
}

// Close stops the GC loop and closes the BadgerHold database. Safe to call
// more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	close(s.gcStop)
	<-s.gcDone

	err := s.db.Close()
	s.db = nil
	return err
}
