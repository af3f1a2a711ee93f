// Package notify provides notification delivery sinks.
//
// The engine does not know the delivery channel; the bot front-end plugs its
// own Notifier in. LogNotifier is the default sink used when no channel is
// configured, and the sink service tests run against.
package notify

import (
	"context"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/interfaces"
	"github.com/tiemoko/brvmwatch/internal/models"
)

// Compile-time interface check
var _ interfaces.Notifier = (*LogNotifier)(nil)

// LogNotifier writes notification events to the application log.
type LogNotifier struct {
	logger *common.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *common.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event *models.Notification) error {
	n.logger.Info().
		Str("user", event.UserID).
		Str("ticker", event.Ticker).
		Str("rule_type", string(event.RuleType)).
		Float64("threshold", event.Threshold).
		Str("price", event.CurrentPrice.String()).
		Msg(event.Message)
	return nil
}
