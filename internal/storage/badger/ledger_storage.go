package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/models"
)

const ledgerSeqKey = "ledger_seq"

// ledgerSeq is the persisted insertion counter for the transaction ledger.
// Seq breaks timestamp ties during replay, so it must be assigned in the
// same transaction as the row insert.
type ledgerSeq struct {
	Next uint64
}

type ledgerStorage struct {
	store  *Store
	logger *common.Logger
}

// NewLedgerStorage creates a new LedgerStore backed by BadgerHold.
func NewLedgerStorage(store *Store, logger *common.Logger) *ledgerStorage {
	return &ledgerStorage{store: store, logger: logger}
}

func (s *ledgerStorage) AppendTransaction(_ context.Context, tx *models.Transaction) (string, error) {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	err := s.store.db.Badger().Update(func(txn *badgerdb.Txn) error {
		var seq ledgerSeq
		if err := s.store.db.TxGet(txn, ledgerSeqKey, &seq); err != nil && err != badgerhold.ErrNotFound {
			return err
		}
		seq.Next++
		tx.Seq = seq.Next

		if err := s.store.db.TxUpsert(txn, ledgerSeqKey, &seq); err != nil {
			return err
		}
		return s.store.db.TxInsert(txn, tx.ID, tx)
	})
	if err != nil {
		return "", fmt.Errorf("failed to append transaction: %w", err)
	}

	s.logger.Debug().
		Str("user", tx.UserID).
		Str("ticker", tx.Ticker).
		Str("side", string(tx.Side)).
		Uint64("seq", tx.Seq).
		Msg("Transaction appended")
	return tx.ID, nil
}

func (s *ledgerStorage) ListTransactions(_ context.Context, userID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	query := badgerhold.Where("UserID").Eq(userID).Index("UserID")
	if err := s.store.db.Find(&txs, query); err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %s: %w", userID, err)
	}

	sortReplayOrder(txs)
	return txs, nil
}

func (s *ledgerStorage) ListTransactionsByTicker(_ context.Context, userID, ticker string) ([]models.Transaction, error) {
	var txs []models.Transaction
	query := badgerhold.Where("UserID").Eq(userID).Index("UserID").And("Ticker").Eq(ticker)
	if err := s.store.db.Find(&txs, query); err != nil {
		return nil, fmt.Errorf("failed to list %s transactions for user %s: %w", ticker, userID, err)
	}

	sortReplayOrder(txs)
	return txs, nil
}

func (s *ledgerStorage) ListUsers(_ context.Context) ([]string, error) {
	var txs []models.Transaction
	if err := s.store.db.Find(&txs, nil); err != nil {
		return nil, fmt.Errorf("failed to scan ledger for users: %w", err)
	}

	seen := make(map[string]struct{})
	var users []string
	for _, tx := range txs {
		if _, ok := seen[tx.UserID]; ok {
			continue
		}
		seen[tx.UserID] = struct{}{}
		users = append(users, tx.UserID)
	}
	sort.Strings(users)
	return users, nil
}

func sortReplayOrder(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].Timestamp.Before(txs[j].Timestamp)
		}
		return txs[i].Seq < txs[j].Seq
	})
}
