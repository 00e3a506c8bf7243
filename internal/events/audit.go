// internal/events/audit.go
package events

import (
	"context"

	"go.uber.org/zap"
)

// auditTypes are the event types recorded by the audit subscriber.
var auditTypes = []EventType{
	SessionCreated,
	BuyExecuted,
	SellExecuted,
	TradeFailed,
	LookupFailed,
}

// SubscribeAudit attaches a logging subscriber for every trade and session
// event, giving an append-only audit trail in the structured log.
func SubscribeAudit(bus *Bus, logger *zap.Logger) []Subscription {
	log := logger.Named("audit")
	handler := HandlerFunc(func(ctx context.Context, event Event) error {
		log.Info("event", auditFields(event)...)
		return nil
	})

	subs := make([]Subscription, 0, len(auditTypes))
	for _, typ := range auditTypes {
		subs = append(subs, bus.Subscribe(typ, handler))
	}
	return subs
}

func auditFields(event Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_type", string(event.Type())),
		zap.Time("event_time", event.Timestamp()),
	}

	switch e := event.(type) {
	case SessionCreatedEvent:
		fields = append(fields,
			zap.Int64("user_id", e.UserID),
			zap.Float64("start_balance", e.StartBalance))
	case BuyExecutedEvent:
		fields = append(fields,
			zap.Int64("user_id", e.UserID),
			zap.String("symbol", e.Symbol),
			zap.Float64("sol_spent", e.SolSpent),
			zap.Float64("tokens_received", e.TokensReceived),
			zap.Float64("new_balance", e.NewBalance))
	case SellExecutedEvent:
		fields = append(fields,
			zap.Int64("user_id", e.UserID),
			zap.String("symbol", e.Symbol),
			zap.Int("percent", e.Percent),
			zap.Float64("tokens_sold", e.TokensSold),
			zap.Float64("sol_received", e.SolReceived),
			zap.Bool("closed", e.Closed))
	case TradeFailedEvent:
		fields = append(fields,
			zap.Int64("user_id", e.UserID),
			zap.String("side", e.Side),
			zap.String("reason", e.Reason))
	case LookupFailedEvent:
		fields = append(fields,
			zap.Int64("user_id", e.UserID),
			zap.String("source_id", e.SourceID),
			zap.Error(e.Error))
	}

	return fields
}
