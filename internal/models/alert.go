package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RuleType is the closed set of alert rule conditions
type RuleType string

const (
	RulePriceAbove RuleType = "price_above"
	RulePriceBelow RuleType = "price_below"
	RuleGainPct    RuleType = "gain_pct"
	RuleLossPct    RuleType = "loss_pct"
)

// ParseRuleType validates and normalizes a rule type string
func ParseRuleType(s string) (RuleType, error) {
	switch RuleType(s) {
	case RulePriceAbove, RulePriceBelow, RuleGainPct, RuleLossPct:
		return RuleType(s), nil
	default:
		return "", fmt.Errorf("invalid rule type: %q", s)
	}
}

// AlertRule is a user-defined threshold alert. Fired is the edge-trigger
// state: true while the condition holds and the owner has been notified.
// The engine mutates only Fired and ConsecutiveFailures; everything else is
// owned by the user.
type AlertRule struct {
	ID                  string    `json:"id" badgerhold:"key"`
	UserID              string    `json:"user_id" badgerholdIndex:"UserID"`
	Ticker              string    `json:"ticker"`
	Type                RuleType  `json:"rule_type"`
	Threshold           float64   `json:"threshold_value"`
	Fired               bool      `json:"fired"`
	ConsecutiveFailures int       `json:"consecutive_failures,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Validate checks rule fields at creation time
func (r *AlertRule) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("alert rule missing user id")
	}
	if r.Ticker == "" {
		return fmt.Errorf("alert rule missing ticker")
	}
	if _, err := ParseRuleType(string(r.Type)); err != nil {
		return err
	}
	if (r.Type == RulePriceAbove || r.Type == RulePriceBelow) && r.Threshold <= 0 {
		return fmt.Errorf("price threshold must be positive, got %v", r.Threshold)
	}
	if (r.Type == RuleGainPct || r.Type == RuleLossPct) && r.Threshold <= 0 {
		return fmt.Errorf("percentage threshold must be positive, got %v", r.Threshold)
	}
	return nil
}

// Notification is the event emitted when a rule transitions to fired.
// Delivery is owned by an external collaborator; the engine only hands the
// event over.
type Notification struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Ticker       string          `json:"ticker"`
	RuleType     RuleType        `json:"rule_type"`
	Threshold    float64         `json:"threshold_value"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Message      string          `json:"message"`
	CreatedAt    time.Time       `json:"created_at"`
}
