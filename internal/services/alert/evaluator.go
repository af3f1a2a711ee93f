// Package alert evaluates user-defined alert rules against live prices and
// derived positions.
//
// Firing is edge-triggered: a rule notifies once when its condition becomes
// true and stays silent until the condition has been observed false again.
// A rule that flaps across its threshold fires once per crossing, not once
// per evaluation pass.
package alert

import (
	"github.com/shopspring/decimal"

	"github.com/tiemoko/brvmwatch/internal/models"
)

var hundred = decimal.NewFromInt(100)

// conditionMet evaluates a rule's boolean condition against the current
// price and the owner's position. The switch over rule types is exhaustive;
// adding a type without extending it is a compile-visible gap in review, not
// a silent string mismatch at runtime.
func conditionMet(rule *models.AlertRule, price decimal.Decimal, pos *models.Position) bool {
	switch rule.Type {
	case models.RulePriceAbove:
		return price.GreaterThan(decimal.NewFromFloat(rule.Threshold))

	case models.RulePriceBelow:
		return price.LessThan(decimal.NewFromFloat(rule.Threshold))

	case models.RuleGainPct:
		pct, ok := positionReturnPct(price, pos)
		return ok && pct >= rule.Threshold

	case models.RuleLossPct:
		pct, ok := positionReturnPct(price, pos)
		return ok && pct <= -rule.Threshold

	default:
		return false
	}
}

// positionReturnPct computes (price - avg)/avg * 100. A missing or empty
// position makes percentage rules evaluate false.
func positionReturnPct(price decimal.Decimal, pos *models.Position) (float64, bool) {
	if pos == nil || !pos.Quantity.IsPositive() || pos.AverageCost.IsZero() {
		return 0, false
	}
	pct := price.Sub(pos.AverageCost).Div(pos.AverageCost).Mul(hundred)
	return pct.InexactFloat64(), true
}

// transition applies the edge-trigger state machine and reports whether a
// notification should be emitted and what the stored state becomes:
//
//	condition && armed -> fire, become fired
//	condition && fired -> no-op (already notified)
//	!condition && fired -> re-arm silently
//	!condition && armed -> no-op
func transition(fired, condition bool) (fire, nextFired bool) {
	return condition && !fired, condition
}
