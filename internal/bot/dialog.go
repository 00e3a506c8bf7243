// internal/bot/dialog.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-paper-bot/internal/events"
	"github.com/rovshanmuradov/solana-paper-bot/internal/oracle"
	"github.com/rovshanmuradov/solana-paper-bot/internal/session"
	"github.com/rovshanmuradov/solana-paper-bot/internal/trade"
)

// Menu selection identifiers carried in button callback data.
const (
	SelectMainMenu  = "main_menu"
	SelectPortfolio = "portfolio"
	SelectBuy       = "buy_step1"
	SelectSellMenu  = "sell_menu"
	SelectLimitMenu = "limit_menu"
	SelectDCAMenu   = "dca_menu"
	SelectCopyMenu  = "copy_menu"

	sellSelectPrefix = "sell_select_"
	sellExecPrefix   = "sell_exec_"
)

// PriceSource is the slice of the oracle the dialog needs.
type PriceSource interface {
	FetchQuote(ctx context.Context, sourceID string) (*oracle.Quote, error)
	FetchSolPriceUSD(ctx context.Context) float64
}

// Dialog routes inbound user events through each session's conversation
// state machine. Every entry point locks the target session for the whole
// transition, oracle calls included, so same-user events never interleave
// destructively while different users proceed in parallel.
type Dialog struct {
	registry *session.Registry
	prices   PriceSource
	executor *trade.Executor
	bus      *events.Bus
	logger   *zap.Logger
}

// DialogConfig configuration for Dialog.
type DialogConfig struct {
	Registry *session.Registry
	Prices   PriceSource
	Executor *trade.Executor
	Bus      *events.Bus
	Logger   *zap.Logger
}

// NewDialog creates the conversation router.
func NewDialog(cfg *DialogConfig) *Dialog {
	return &Dialog{
		registry: cfg.Registry,
		prices:   cfg.Prices,
		executor: cfg.Executor,
		bus:      cfg.Bus,
		logger:   cfg.Logger.Named("dialog"),
	}
}

// OnStart handles the /start command: the session is created on first
// contact, any in-flight flow is cancelled and the main menu is shown.
func (d *Dialog) OnStart(ctx context.Context, userID int64) Reply {
	sess := d.acquire(userID)
	defer sess.Unlock()

	sess.Reset()
	return d.mainMenuReply(ctx, sess)
}

// OnMenuSelection handles a button selection.
func (d *Dialog) OnMenuSelection(ctx context.Context, userID int64, selection string) Reply {
	sess := d.acquire(userID)
	defer sess.Unlock()

	switch {
	case selection == SelectMainMenu:
		// Home doubles as cancel: unconditional, from any state.
		sess.Reset()
		return d.mainMenuReply(ctx, sess)

	case selection == SelectPortfolio:
		return d.portfolioReply(ctx, sess)

	case selection == SelectBuy:
		sess.BeginBuy()
		return Reply{
			Text:    "🟢 *Buy Token*\n\nPaste the *Contract Address (CA)* below:",
			Buttons: [][]Button{row(btn("🔙 Cancel", SelectMainMenu))},
		}

	case selection == SelectSellMenu:
		return d.sellMenuReply(sess)

	case selection == SelectLimitMenu, selection == SelectDCAMenu, selection == SelectCopyMenu:
		// Inert placeholders, no state.
		return Reply{
			Text:    "🚧 *Feature coming soon!*",
			Buttons: [][]Button{row(btn("🔙 Back", SelectMainMenu))},
		}

	case strings.HasPrefix(selection, sellSelectPrefix):
		return d.handleSellSelect(sess, strings.TrimPrefix(selection, sellSelectPrefix))

	case strings.HasPrefix(selection, sellExecPrefix):
		return d.handleSellExec(ctx, sess, strings.TrimPrefix(selection, sellExecPrefix))
	}

	d.logger.Debug("Ignoring unknown selection",
		zap.Int64("user_id", userID),
		zap.String("selection", selection))
	return Reply{}
}

// OnText handles free-text input. Text is only meaningful while a buy flow
// is waiting for a contract address or an amount; in every other state it
// is ignored without a state change.
func (d *Dialog) OnText(ctx context.Context, userID int64, text string) Reply {
	sess := d.acquire(userID)
	defer sess.Unlock()

	text = strings.TrimSpace(text)

	switch sess.State() {
	case session.StateAwaitingContract:
		return d.handleContractAddress(ctx, sess, text)
	case session.StateAwaitingAmount:
		return d.handleBuyAmount(ctx, sess, text)
	default:
		return Reply{}
	}
}

// acquire returns the user's locked session, funding it on first contact.
func (d *Dialog) acquire(userID int64) *session.Session {
	sess, created := d.registry.GetOrCreate(userID)
	if created && d.bus != nil {
		_ = d.bus.Publish(events.SessionCreatedEvent{
			BaseEvent:    events.BaseEvent{EventType: events.SessionCreated, EventTime: time.Now()},
			UserID:       userID,
			StartBalance: sess.Wallet.Balance(),
		})
	}
	sess.Lock()
	return sess
}

func (d *Dialog) handleContractAddress(ctx context.Context, sess *session.Session, text string) Reply {
	notFound := Reply{Text: "❌ *Token not found.*"}

	// A contract address must be a valid mint before we bother the feed.
	if _, err := solana.PublicKeyFromBase58(text); err != nil {
		d.logger.Debug("Rejected malformed contract address",
			zap.Int64("user_id", sess.UserID),
			zap.String("input", text))
		return notFound
	}

	quote, err := d.prices.FetchQuote(ctx, text)
	if err != nil {
		// Network failure and genuine absence read the same to the user.
		d.logger.Warn("Token lookup failed",
			zap.Int64("user_id", sess.UserID),
			zap.String("source_id", text),
			zap.Error(err))
		if d.bus != nil {
			_ = d.bus.Publish(events.LookupFailedEvent{
				BaseEvent: events.BaseEvent{EventType: events.LookupFailed, EventTime: time.Now()},
				UserID:    sess.UserID,
				SourceID:  text,
				Error:     err,
			})
		}
		return notFound
	}

	sess.ResolveBuy(text, quote)
	return Reply{
		Text: fmt.Sprintf("✅ *Found:* %s\n💲 Price: `$%.6f`\n\nEnter SOL Amount:",
			quote.Symbol, quote.PriceUSD),
		Buttons: [][]Button{row(btn("🔙 Cancel", SelectMainMenu))},
	}
}

func (d *Dialog) handleBuyAmount(ctx context.Context, sess *session.Session, text string) Reply {
	amount, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Reply{Text: "❌ Invalid number."}
	}

	result, err := d.executor.ExecuteBuy(ctx, sess, amount)
	switch {
	case errors.Is(err, trade.ErrInsufficientBalance):
		// Pending context is preserved; the user may enter a smaller amount.
		return Reply{Text: "❌ *Insufficient SOL.*"}
	case errors.Is(err, trade.ErrInvalidAmount):
		return Reply{Text: "❌ Invalid number."}
	case err != nil:
		d.logger.Error("Buy failed",
			zap.Int64("user_id", sess.UserID),
			zap.Error(err))
		sess.Reset()
		return Reply{Text: "❌ *Trade failed.*"}
	}

	sess.Reset()
	return Reply{
		Text:    fmt.Sprintf("✅ *BOUGHT!*\n🔫 `%.2f %s`", result.TokensReceived, result.Symbol),
		Buttons: [][]Button{row(btn("💼 View Positions", SelectPortfolio))},
	}
}

func (d *Dialog) sellMenuReply(sess *session.Session) Reply {
	positions := sess.Wallet.Positions()
	if len(positions) == 0 {
		sess.Reset()
		return Reply{
			Text:    "🤷‍♂️ *No positions.*",
			Buttons: [][]Button{row(btn("🔙 Back", SelectMainMenu))},
		}
	}

	sess.BeginSellSelect()

	var buttons [][]Button
	var current []Button
	for _, pos := range positions {
		current = append(current, btn("Sell "+pos.Symbol, sellSelectPrefix+pos.Symbol))
		if len(current) == 2 {
			buttons = append(buttons, current)
			current = nil
		}
	}
	if len(current) > 0 {
		buttons = append(buttons, current)
	}
	buttons = append(buttons, row(btn("🔙 Back", SelectMainMenu)))

	return Reply{
		Text:    "🔴 *Select Position to Sell:*",
		Buttons: buttons,
	}
}

func (d *Dialog) handleSellSelect(sess *session.Session, symbol string) Reply {
	if sess.State() != session.StateSellSelecting {
		// Stale button tap; no transition from here.
		return Reply{}
	}
	if _, held := sess.Wallet.Position(symbol); !held {
		sess.Reset()
		return Reply{
			Text:    "🤷‍♂️ *No positions.*",
			Buttons: [][]Button{row(btn("🔙 Back", SelectMainMenu))},
		}
	}

	sess.SelectSell(symbol)
	return Reply{
		Text: fmt.Sprintf("🔴 *Selling %s*", symbol),
		Buttons: [][]Button{
			row(btn("50%", sellExecPrefix+"50"), btn("100%", sellExecPrefix+"100")),
			row(btn("🔙 Cancel", SelectSellMenu)),
		},
	}
}

func (d *Dialog) handleSellExec(ctx context.Context, sess *session.Session, percentText string) Reply {
	if sess.State() != session.StateSellConfirming {
		return Reply{}
	}

	percent, err := strconv.Atoi(percentText)
	if err != nil {
		return Reply{}
	}

	// Whatever the outcome, the flow ends here.
	defer sess.Reset()

	result, err := d.executor.ExecuteSell(ctx, sess, percent)
	switch {
	case errors.Is(err, trade.ErrNoSuchPosition):
		return Reply{
			Text:    "🤷‍♂️ *No positions.*",
			Buttons: [][]Button{row(btn("🔙 Back to Menu", SelectMainMenu))},
		}
	case errors.Is(err, trade.ErrQuoteUnavailable):
		return Reply{
			Text:    "❌ *Token not found.*",
			Buttons: [][]Button{row(btn("🔙 Back to Menu", SelectMainMenu))},
		}
	case err != nil:
		d.logger.Error("Sell failed",
			zap.Int64("user_id", sess.UserID),
			zap.Error(err))
		return Reply{
			Text:    "❌ *Trade failed.*",
			Buttons: [][]Button{row(btn("🔙 Back to Menu", SelectMainMenu))},
		}
	}

	return Reply{
		Text:    fmt.Sprintf("✅ *SOLD!*\n\n🔻 Sold: `%.2f %s`", result.TokensSold, result.Symbol),
		Buttons: [][]Button{row(btn("🔙 Back to Menu", SelectMainMenu))},
	}
}

// mainMenuReply renders the terminal home screen with the wallet balance
// and its USD valuation. A zero SOL price means the valuation is
// unavailable and the USD figure is omitted.
func (d *Dialog) mainMenuReply(ctx context.Context, sess *session.Session) Reply {
	balance := sess.Wallet.Balance()

	text := fmt.Sprintf("⚡ *Solana Paper Terminal*\n💳 *Wallet:* `%d`\n💰 *Balance:* %.4f SOL",
		sess.UserID, balance)
	if solPrice := d.prices.FetchSolPriceUSD(ctx); solPrice > 0 {
		text += fmt.Sprintf(" (`$%.2f`)", balance*solPrice)
	}

	return Reply{
		Text: text,
		Buttons: [][]Button{
			row(btn("🟢 Buy", SelectBuy), btn("🔴 Sell", SelectSellMenu)),
			row(btn("💼 Positions", SelectPortfolio), btn("⏱ Limit Orders", SelectLimitMenu)),
			row(btn("📅 DCA Orders", SelectDCAMenu), btn("👥 Copy Trade", SelectCopyMenu)),
			row(btn("🔄 Refresh / Start", SelectMainMenu)),
		},
	}
}

// portfolioReply renders every position re-priced through the live feed.
// Positions whose lookup fails are listed without a valuation.
func (d *Dialog) portfolioReply(ctx context.Context, sess *session.Session) Reply {
	solPrice := d.prices.FetchSolPriceUSD(ctx)
	balance := sess.Wallet.Balance()
	totalUSD := balance * solPrice

	var b strings.Builder
	b.WriteString("💼 *Your Positions*\n")
	if solPrice > 0 {
		fmt.Fprintf(&b, "🪙 *SOL:* %.4f (`$%.2f`)\n", balance, balance*solPrice)
	} else {
		fmt.Fprintf(&b, "🪙 *SOL:* %.4f\n", balance)
	}

	positions := sess.Wallet.Positions()
	if len(positions) > 0 {
		b.WriteString("\n──────────────\n")
		for _, pos := range positions {
			quote, err := d.prices.FetchQuote(ctx, pos.SourceID)
			if err != nil {
				fmt.Fprintf(&b, "*%s*\nqty: %.2f • val: `n/a`\n", pos.Symbol, pos.Quantity)
				continue
			}
			value := pos.Quantity * quote.PriceUSD
			totalUSD += value
			fmt.Fprintf(&b, "*%s*\nqty: %.2f • val: `$%.2f`\n", pos.Symbol, pos.Quantity, value)
		}
	}
	b.WriteString("\n──────────────\n")
	fmt.Fprintf(&b, "🚀 *Total Net Worth:* `$%.2f`", totalUSD)

	return Reply{
		Text:    b.String(),
		Buttons: [][]Button{row(btn("🔙 Back to Home", SelectMainMenu))},
	}
}
