// internal/trade/executor.go
package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-paper-bot/internal/events"
	"github.com/rovshanmuradov/solana-paper-bot/internal/oracle"
	"github.com/rovshanmuradov/solana-paper-bot/internal/session"
	"github.com/rovshanmuradov/solana-paper-bot/internal/wallet"
)

// QuoteSource resolves a token mint to a live quote.
type QuoteSource interface {
	FetchQuote(ctx context.Context, sourceID string) (*oracle.Quote, error)
}

// BuyResult describes a settled buy.
type BuyResult struct {
	Symbol         string
	SourceID       string
	SolSpent       float64
	TokensReceived float64
	NewBalance     float64
}

// SellResult describes a settled sell.
type SellResult struct {
	Symbol      string
	SourceID    string
	Percent     int
	TokensSold  float64
	SolReceived float64
	NewBalance  float64
	Closed      bool
}

// Executor applies buys and sells against a session's ledger. Callers must
// hold the session lock for the whole call, so each update is a single
// atomic step on that session.
type Executor struct {
	quotes QuoteSource
	bus    *events.Bus
	logger *zap.Logger
}

// NewExecutor creates a trade executor.
func NewExecutor(quotes QuoteSource, bus *events.Bus, logger *zap.Logger) *Executor {
	return &Executor{
		quotes: quotes,
		bus:    bus,
		logger: logger.Named("executor"),
	}
}

// ExecuteBuy spends amount SOL on the pending buy's token. The price is the
// quote captured when the contract was resolved; it is deliberately not
// re-fetched, so the fill may be stale relative to the live market. Sell is
// the path that re-prices.
func (e *Executor) ExecuteBuy(ctx context.Context, sess *session.Session, amount float64) (*BuyResult, error) {
	pending, ok := sess.PendingBuy()
	if !ok {
		return nil, ErrNoPendingTrade
	}

	if amount <= 0 {
		return nil, e.reject(sess, "buy", ErrInvalidAmount)
	}
	if pending.Quote == nil || pending.Quote.PriceSOL <= 0 {
		return nil, e.reject(sess, "buy", ErrQuoteUnavailable)
	}

	if err := sess.Wallet.Debit(amount); err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			return nil, e.reject(sess, "buy", ErrInsufficientBalance)
		}
		return nil, err
	}

	tokensReceived := amount / pending.Quote.PriceSOL
	sess.Wallet.AddTokens(pending.Quote.Symbol, pending.SourceID, tokensReceived)

	result := &BuyResult{
		Symbol:         pending.Quote.Symbol,
		SourceID:       pending.SourceID,
		SolSpent:       amount,
		TokensReceived: tokensReceived,
		NewBalance:     sess.Wallet.Balance(),
	}

	e.logger.Info("🟢 Buy executed",
		zap.Int64("user_id", sess.UserID),
		zap.String("symbol", result.Symbol),
		zap.Float64("sol_spent", result.SolSpent),
		zap.Float64("tokens_received", result.TokensReceived),
		zap.Float64("new_balance", result.NewBalance))

	e.publish(events.BuyExecutedEvent{
		BaseEvent:      events.BaseEvent{EventType: events.BuyExecuted, EventTime: time.Now()},
		UserID:         sess.UserID,
		Symbol:         result.Symbol,
		SourceID:       result.SourceID,
		SolSpent:       result.SolSpent,
		TokensReceived: result.TokensReceived,
		NewBalance:     result.NewBalance,
	})

	return result, nil
}

// ExecuteSell sells percent of the pending sell's position at a freshly
// fetched price. A failed fetch rejects with ErrQuoteUnavailable and leaves
// the ledger untouched. A 100% sell always closes the position entirely.
func (e *Executor) ExecuteSell(ctx context.Context, sess *session.Session, percent int) (*SellResult, error) {
	pending, ok := sess.PendingSell()
	if !ok {
		return nil, ErrNoPendingTrade
	}

	if percent != 50 && percent != 100 {
		return nil, e.reject(sess, "sell", ErrInvalidPercent)
	}

	pos, held := sess.Wallet.Position(pending.Symbol)
	if !held {
		return nil, e.reject(sess, "sell", ErrNoSuchPosition)
	}

	quote, err := e.quotes.FetchQuote(ctx, pos.SourceID)
	if err != nil {
		e.logger.Warn("Sell re-pricing failed",
			zap.Int64("user_id", sess.UserID),
			zap.String("symbol", pos.Symbol),
			zap.Error(err))
		return nil, e.reject(sess, "sell", fmt.Errorf("%w: %w", ErrQuoteUnavailable, err))
	}

	tokensSold := pos.Quantity * float64(percent) / 100
	solReceived := tokensSold * quote.PriceSOL

	sess.Wallet.Credit(solReceived)
	sess.Wallet.ReduceTokens(pos.Symbol, tokensSold, percent == 100)

	_, stillHeld := sess.Wallet.Position(pos.Symbol)
	result := &SellResult{
		Symbol:      pos.Symbol,
		SourceID:    pos.SourceID,
		Percent:     percent,
		TokensSold:  tokensSold,
		SolReceived: solReceived,
		NewBalance:  sess.Wallet.Balance(),
		Closed:      !stillHeld,
	}

	e.logger.Info("🔴 Sell executed",
		zap.Int64("user_id", sess.UserID),
		zap.String("symbol", result.Symbol),
		zap.Int("percent", percent),
		zap.Float64("tokens_sold", result.TokensSold),
		zap.Float64("sol_received", result.SolReceived),
		zap.Bool("closed", result.Closed))

	e.publish(events.SellExecutedEvent{
		BaseEvent:   events.BaseEvent{EventType: events.SellExecuted, EventTime: time.Now()},
		UserID:      sess.UserID,
		Symbol:      result.Symbol,
		SourceID:    result.SourceID,
		Percent:     percent,
		TokensSold:  result.TokensSold,
		SolReceived: result.SolReceived,
		NewBalance:  result.NewBalance,
		Closed:      result.Closed,
	})

	return result, nil
}

// reject publishes a trade-failed event and passes the rejection through.
func (e *Executor) reject(sess *session.Session, side string, err error) error {
	e.publish(events.TradeFailedEvent{
		BaseEvent: events.BaseEvent{EventType: events.TradeFailed, EventTime: time.Now()},
		UserID:    sess.UserID,
		Side:      side,
		Reason:    err.Error(),
	})
	return err
}

func (e *Executor) publish(event events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(event); err != nil {
		e.logger.Debug("Event publish failed", zap.Error(err))
	}
}
