// internal/session/session.go
package session

import (
	"sync"

	"github.com/rovshanmuradov/solana-paper-bot/internal/oracle"
	"github.com/rovshanmuradov/solana-paper-bot/internal/wallet"
)

// State is the conversation state of one session. Exactly one state is
// active at a time, and it is always consistent with the pending trade
// (StateAwaitingAmount implies a pending buy, StateSellConfirming a
// pending sell).
type State int

const (
	StateIdle State = iota
	StateAwaitingContract
	StateAwaitingAmount
	StateSellSelecting
	StateSellConfirming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingContract:
		return "awaiting_contract"
	case StateAwaitingAmount:
		return "awaiting_amount"
	case StateSellSelecting:
		return "sell_selecting"
	case StateSellConfirming:
		return "sell_confirming"
	default:
		return "unknown"
	}
}

// PendingTrade is the in-flight context of a multi-step trade flow. The
// variants are closed: only buy-awaiting-amount and sell-awaiting-percent
// exist, and a session holds at most one of them.
type PendingTrade interface {
	pendingTrade()
}

// BuyPendingAmount is a buy with the contract resolved, awaiting the SOL
// amount. The quote is the one observed at resolution time; the executor
// deliberately does not re-fetch it.
type BuyPendingAmount struct {
	SourceID string
	Quote    *oracle.Quote
}

func (BuyPendingAmount) pendingTrade() {}

// SellPendingPercent is a sell with the position chosen, awaiting the
// percentage selection.
type SellPendingPercent struct {
	Symbol string
}

func (SellPendingPercent) pendingTrade() {}

// Session is one user's ledger, conversation state and pending trade. All
// mutable fields are guarded by the session mutex, which callers hold for
// the whole of a state transition, oracle calls included. Locks are
// per-session, so one user's slow transition never blocks another user.
type Session struct {
	UserID int64
	Wallet *wallet.Wallet

	mu      sync.Mutex
	state   State
	pending PendingTrade
}

func newSession(userID int64, startBalance float64) *Session {
	return &Session{
		UserID: userID,
		Wallet: wallet.New(startBalance),
		state:  StateIdle,
	}
}

// Lock acquires the session's exclusive region.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's exclusive region.
func (s *Session) Unlock() { s.mu.Unlock() }

// State returns the current conversation state.
func (s *Session) State() State {
	return s.state
}

// BeginBuy starts a buy flow: any prior pending trade is discarded and the
// session waits for a contract address.
func (s *Session) BeginBuy() {
	s.pending = nil
	s.state = StateAwaitingContract
}

// ResolveBuy records the resolved contract and its quote and advances to
// amount entry.
func (s *Session) ResolveBuy(sourceID string, quote *oracle.Quote) {
	s.pending = BuyPendingAmount{SourceID: sourceID, Quote: quote}
	s.state = StateAwaitingAmount
}

// BeginSellSelect starts a sell flow at position selection.
func (s *Session) BeginSellSelect() {
	s.pending = nil
	s.state = StateSellSelecting
}

// SelectSell records the chosen position and advances to percent
// confirmation.
func (s *Session) SelectSell(symbol string) {
	s.pending = SellPendingPercent{Symbol: symbol}
	s.state = StateSellConfirming
}

// Reset clears any pending trade and forces the session back to idle. It is
// legal from any state and idempotent.
func (s *Session) Reset() {
	s.pending = nil
	s.state = StateIdle
}

// PendingBuy returns the pending buy context, if one exists.
func (s *Session) PendingBuy() (BuyPendingAmount, bool) {
	buy, ok := s.pending.(BuyPendingAmount)
	return buy, ok
}

// PendingSell returns the pending sell context, if one exists.
func (s *Session) PendingSell() (SellPendingPercent, bool) {
	sell, ok := s.pending.(SellPendingPercent)
	return sell, ok
}
