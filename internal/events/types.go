// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Session events
	SessionCreated EventType = "session.created"

	// Trade events
	BuyExecuted  EventType = "trade.buy_executed"
	SellExecuted EventType = "trade.sell_executed"
	TradeFailed  EventType = "trade.failed"

	// Oracle events
	LookupFailed EventType = "oracle.lookup_failed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// SessionCreatedEvent is emitted when a user's paper wallet is funded on
// first contact.
type SessionCreatedEvent struct {
	BaseEvent
	UserID       int64
	StartBalance float64
}

// BuyExecutedEvent is emitted after a buy settles against the ledger.
type BuyExecutedEvent struct {
	BaseEvent
	UserID         int64
	Symbol         string
	SourceID       string
	SolSpent       float64
	TokensReceived float64
	NewBalance     float64
}

// SellExecutedEvent is emitted after a sell settles against the ledger.
type SellExecutedEvent struct {
	BaseEvent
	UserID      int64
	Symbol      string
	SourceID    string
	Percent     int
	TokensSold  float64
	SolReceived float64
	NewBalance  float64
	Closed      bool // position removed entirely
}

// TradeFailedEvent is emitted when a buy or sell is rejected.
type TradeFailedEvent struct {
	BaseEvent
	UserID int64
	Side   string // "buy" or "sell"
	Reason string
}

// LookupFailedEvent is emitted when a contract address could not be
// resolved to a quote.
type LookupFailedEvent struct {
	BaseEvent
	UserID   int64
	SourceID string
	Error    error
}
