package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/models"
)

type alertRuleStorage struct {
	store  *Store
	logger *common.Logger
}

// NewAlertRuleStorage creates a new AlertRuleStore backed by BadgerHold.
func NewAlertRuleStorage(store *Store, logger *common.Logger) *alertRuleStorage {
	return &alertRuleStorage{store: store, logger: logger}
}

func (s *alertRuleStorage) SaveRule(_ context.Context, rule *models.AlertRule) error {
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	if err := s.store.db.Upsert(rule.ID, rule); err != nil {
		return fmt.Errorf("failed to save alert rule: %w", err)
	}
	s.logger.Debug().Str("rule", rule.ID).Str("ticker", rule.Ticker).Msg("Alert rule saved")
	return nil
}

func (s *alertRuleStorage) GetRule(_ context.Context, ruleID string) (*models.AlertRule, error) {
	var rule models.AlertRule
	if err := s.store.db.Get(ruleID, &rule); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get alert rule %s: %w", ruleID, err)
	}
	return &rule, nil
}

func (s *alertRuleStorage) DeleteRule(_ context.Context, ruleID string) error {
	err := s.store.db.Delete(ruleID, models.AlertRule{})
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to delete alert rule %s: %w", ruleID, err)
	}
	return nil
}

func (s *alertRuleStorage) ListRules(_ context.Context, userID string) ([]models.AlertRule, error) {
	var rules []models.AlertRule
	query := badgerhold.Where("UserID").Eq(userID).Index("UserID")
	if err := s.store.db.Find(&rules, query); err != nil {
		return nil, fmt.Errorf("failed to list alert rules for user %s: %w", userID, err)
	}
	return rules, nil
}

func (s *alertRuleStorage) ListAllRules(_ context.Context) ([]models.AlertRule, error) {
	var rules []models.AlertRule
	if err := s.store.db.Find(&rules, nil); err != nil {
		return nil, fmt.Errorf("failed to list alert rules: %w", err)
	}
	return rules, nil
}

// UpdateRuleState commits the edge-trigger state and failure counter for one
// rule in a single badger transaction. User-owned fields are re-read inside
// the transaction so a concurrent rule edit is not clobbered.
func (s *alertRuleStorage) UpdateRuleState(_ context.Context, ruleID string, fired bool, consecutiveFailures int) error {
	err := s.store.db.Badger().Update(func(txn *badgerdb.Txn) error {
		var rule models.AlertRule
		if err := s.store.db.TxGet(txn, ruleID, &rule); err != nil {
			return err
		}
		rule.Fired = fired
		rule.ConsecutiveFailures = consecutiveFailures
		rule.UpdatedAt = time.Now().UTC()
		return s.store.db.TxUpsert(txn, ruleID, &rule)
	})
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to update alert rule state %s: %w", ruleID, err)
	}
	return nil
}
