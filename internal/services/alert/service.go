package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/interfaces"
	"github.com/tiemoko/brvmwatch/internal/ledger"
	"github.com/tiemoko/brvmwatch/internal/models"
)

// Compile-time interface check
var _ interfaces.AlertService = (*Service)(nil)

// Service implements AlertService
type Service struct {
	storage  interfaces.StorageManager
	provider interfaces.PriceProvider
	notifier interfaces.Notifier
	logger   *common.Logger
	config   common.AlertsConfig
}

// NewService creates a new alert service
func NewService(
	storage interfaces.StorageManager,
	provider interfaces.PriceProvider,
	notifier interfaces.Notifier,
	logger *common.Logger,
	config common.AlertsConfig,
) *Service {
	return &Service{
		storage:  storage,
		provider: provider,
		notifier: notifier,
		logger:   logger,
		config:   config,
	}
}

// CreateRule validates and stores a new rule in the armed state
func (s *Service) CreateRule(ctx context.Context, rule *models.AlertRule) (*models.AlertRule, error) {
	rule.Ticker = models.NormalizeTicker(rule.Ticker)
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid alert rule: %w", err)
	}

	rule.ID = uuid.NewString()
	rule.Fired = false
	rule.ConsecutiveFailures = 0

	if err := s.storage.AlertRuleStore().SaveRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create alert rule: %w", err)
	}

	s.logger.Info().
		Str("user", rule.UserID).
		Str("ticker", rule.Ticker).
		Str("type", string(rule.Type)).
		Float64("threshold", rule.Threshold).
		Msg("Alert rule created")
	return rule, nil
}

// DeleteRule removes a rule owned by the user
func (s *Service) DeleteRule(ctx context.Context, userID, ruleID string) error {
	rule, err := s.storage.AlertRuleStore().GetRule(ctx, ruleID)
	if err != nil {
		return err
	}
	if rule.UserID != userID {
		return models.ErrNotFound
	}
	return s.storage.AlertRuleStore().DeleteRule(ctx, ruleID)
}

// ListRules returns a user's rules
func (s *Service) ListRules(ctx context.Context, userID string) ([]models.AlertRule, error) {
	return s.storage.AlertRuleStore().ListRules(ctx, userID)
}

// RunPass evaluates every stored rule once. Rules are independent, so they
// fan out to a bounded worker pool; the bound keeps the pass inside the
// price provider's rate limit. Per-rule failures degrade that rule only.
func (s *Service) RunPass(ctx context.Context) (*interfaces.PassResult, error) {
	start := time.Now()

	rules, err := s.storage.AlertRuleStore().ListAllRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert rules: %w", err)
	}
	if len(rules) == 0 {
		return &interfaces.PassResult{}, nil
	}

	positions := s.loadPositions(ctx, rules)
	prices := newPriceCache()

	var (
		mu     sync.Mutex
		result interfaces.PassResult
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, s.config.GetConcurrency())

	for i := range rules {
		rule := rules[i]

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := s.evaluateRule(ctx, &rule, positions[rule.UserID], prices)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeFired:
				result.Evaluated++
				result.Fired++
			case outcomeEvaluated:
				result.Evaluated++
			case outcomeUnavailable:
				result.Unavailable++
			case outcomeError:
				result.Errors++
			}
		}()
	}
	wg.Wait()

	s.logger.Info().
		Int("rules", len(rules)).
		Int("fired", result.Fired).
		Int("unavailable", result.Unavailable).
		Int("errors", result.Errors).
		Dur("elapsed", time.Since(start)).
		Msg("Alert pass complete")
	return &result, nil
}

type ruleOutcome int

const (
	outcomeEvaluated ruleOutcome = iota
	outcomeFired
	outcomeUnavailable
	outcomeError
)

// loadPositions computes positions once per user that owns a percentage
// rule. A failed ledger read just leaves that user's percentage rules
// evaluating false for this pass.
func (s *Service) loadPositions(ctx context.Context, rules []models.AlertRule) map[string]map[string]*models.Position {
	out := make(map[string]map[string]*models.Position)
	for _, rule := range rules {
		if rule.Type != models.RuleGainPct && rule.Type != models.RuleLossPct {
			continue
		}
		if _, done := out[rule.UserID]; done {
			continue
		}

		txs, err := s.storage.LedgerStore().ListTransactions(ctx, rule.UserID)
		if err != nil {
			s.logger.Warn().Str("user", rule.UserID).Err(err).Msg("Positions unavailable for pass")
			out[rule.UserID] = nil
			continue
		}
		positions, _ := ledger.Compute(txs)
		out[rule.UserID] = positions
	}
	return out
}

func (s *Service) evaluateRule(ctx context.Context, rule *models.AlertRule, positions map[string]*models.Position, prices *priceCache) ruleOutcome {
	quote, err := prices.get(rule.Ticker, func() (*models.Quote, error) {
		return s.fetchPrice(ctx, rule.Ticker)
	})
	if err != nil {
		return s.handleUnavailable(ctx, rule, err)
	}

	var pos *models.Position
	if positions != nil {
		pos = positions[rule.Ticker]
	}

	condition := conditionMet(rule, quote.Price, pos)
	fire, nextFired := transition(rule.Fired, condition)

	if fire {
		event := s.buildNotification(rule, quote)
		if err := s.notifier.Notify(ctx, event); err != nil {
			// Not delivered: leave the rule armed so the next pass retries.
			s.logger.Error().Str("rule", rule.ID).Err(err).Msg("Notification delivery failed")
			return outcomeError
		}
		if err := s.commitState(ctx, rule, true, 0); err != nil {
			// The event went out but the state didn't stick; the next pass
			// may emit again (at-least-once), never silently drop.
			s.logger.Error().Str("rule", rule.ID).Err(err).Msg("State commit failed after notification")
			return outcomeError
		}
		return outcomeFired
	}

	if nextFired != rule.Fired || rule.ConsecutiveFailures != 0 {
		if err := s.commitState(ctx, rule, nextFired, 0); err != nil {
			s.logger.Error().Str("rule", rule.ID).Err(err).Msg("State commit failed")
			return outcomeError
		}
	}
	return outcomeEvaluated
}

// handleUnavailable degrades a rule whose price could not be fetched. A
// fired rule is re-armed so a future crossing can notify again; an armed
// rule is left untouched apart from the failure counter.
func (s *Service) handleUnavailable(ctx context.Context, rule *models.AlertRule, cause error) ruleOutcome {
	failures := rule.ConsecutiveFailures + 1

	event := s.logger.Warn()
	if s.config.EscalateAfterFailures > 0 && failures == s.config.EscalateAfterFailures {
		event = s.logger.Error()
	}
	event.
		Str("rule", rule.ID).
		Str("ticker", rule.Ticker).
		Int("consecutive_failures", failures).
		Err(cause).
		Msg("Price data unavailable, rule skipped for pass")

	nextFired := rule.Fired
	if rule.Fired {
		nextFired = false
	}
	if err := s.commitState(ctx, rule, nextFired, failures); err != nil {
		s.logger.Error().Str("rule", rule.ID).Err(err).Msg("State commit failed")
		return outcomeError
	}
	return outcomeUnavailable
}

func (s *Service) fetchPrice(ctx context.Context, ticker string) (*models.Quote, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.GetPriceTimeout())
	defer cancel()

	quote, err := s.provider.GetQuote(fetchCtx, ticker)
	if err != nil {
		return nil, err
	}

	// Best-effort cache refresh for reporting; never fails the rule.
	if err := s.storage.MarketStore().SaveQuote(ctx, quote); err != nil {
		s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Quote cache write failed")
	}
	return quote, nil
}

func (s *Service) commitState(ctx context.Context, rule *models.AlertRule, fired bool, failures int) error {
	if err := s.storage.AlertRuleStore().UpdateRuleState(ctx, rule.ID, fired, failures); err != nil {
		return err
	}
	rule.Fired = fired
	rule.ConsecutiveFailures = failures
	return nil
}

func (s *Service) buildNotification(rule *models.AlertRule, quote *models.Quote) *models.Notification {
	var msg string
	switch rule.Type {
	case models.RulePriceAbove:
		msg = fmt.Sprintf("%s price %s XOF is above %v", rule.Ticker, quote.Price.StringFixed(0), rule.Threshold)
	case models.RulePriceBelow:
		msg = fmt.Sprintf("%s price %s XOF is below %v", rule.Ticker, quote.Price.StringFixed(0), rule.Threshold)
	case models.RuleGainPct:
		msg = fmt.Sprintf("%s gain reached +%v%% (price %s XOF)", rule.Ticker, rule.Threshold, quote.Price.StringFixed(0))
	case models.RuleLossPct:
		msg = fmt.Sprintf("%s loss reached -%v%% (price %s XOF)", rule.Ticker, rule.Threshold, quote.Price.StringFixed(0))
	}

	return &models.Notification{
		ID:           uuid.NewString(),
		UserID:       rule.UserID,
		Ticker:       rule.Ticker,
		RuleType:     rule.Type,
		Threshold:    rule.Threshold,
		CurrentPrice: quote.Price,
		Message:      msg,
		CreatedAt:    time.Now().UTC(),
	}
}
