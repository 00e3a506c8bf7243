// internal/telegram/transport.go
package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-paper-bot/internal/bot"
)

// Handler is the conversational core the transport delivers events into.
type Handler interface {
	OnStart(ctx context.Context, userID int64) bot.Reply
	OnMenuSelection(ctx context.Context, userID int64, selection string) bot.Reply
	OnText(ctx context.Context, userID int64, text string) bot.Reply
}

// Transport adapts Telegram long polling onto the handler entry points.
// Each update is dispatched on its own goroutine; the per-session lock
// inside the core serializes same-user updates.
type Transport struct {
	api     *tgbotapi.BotAPI
	handler Handler
	logger  *zap.Logger
}

// NewTransport connects to the Telegram API. The initial connection is
// retried with exponential backoff since the hosting platform may start us
// before networking settles.
func NewTransport(ctx context.Context, token string, handler Handler, logger *zap.Logger) (*Transport, error) {
	log := logger.Named("telegram")

	backoffPolicy := backoff.NewExponentialBackOff()
	backoffPolicy.InitialInterval = time.Second
	backoffPolicy.MaxInterval = 30 * time.Second

	notify := func(err error, duration time.Duration) {
		log.Info("Retrying Telegram connection", zap.Error(err), zap.Duration("backoff", duration))
	}

	operation := func() (*tgbotapi.BotAPI, error) {
		return tgbotapi.NewBotAPI(token)
	}

	api, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoffPolicy),
		backoff.WithMaxTries(5),
		backoff.WithNotify(notify))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	log.Info("🤖 Bot authorized", zap.String("username", api.Self.UserName))

	return &Transport{
		api:     api,
		handler: handler,
		logger:  log,
	}, nil
}

// Run polls for updates until the context is cancelled.
func (t *Transport) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := t.api.GetUpdatesChan(u)
	t.logger.Info("📡 Long polling started")

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go t.handleUpdate(ctx, update)
		}
	}
}

func (t *Transport) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		t.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		t.handleMessage(ctx, update.Message)
	}
}

func (t *Transport) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID

	var reply bot.Reply
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		reply = t.handler.OnStart(ctx, userID)
	case msg.IsCommand():
		return
	default:
		reply = t.handler.OnText(ctx, userID, msg.Text)
	}

	if reply.Empty() {
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply.Text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if markup, ok := keyboard(reply); ok {
		out.ReplyMarkup = markup
	}
	if _, err := t.api.Send(out); err != nil {
		t.logger.Warn("Failed to send message",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}

func (t *Transport) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Stop the client-side spinner even when the selection is ignored.
	if _, err := t.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		t.logger.Debug("Callback ack failed", zap.Error(err))
	}

	reply := t.handler.OnMenuSelection(ctx, cq.From.ID, cq.Data)
	if reply.Empty() || cq.Message == nil {
		return
	}

	chatID := cq.Message.Chat.ID
	messageID := cq.Message.MessageID

	var err error
	if markup, ok := keyboard(reply); ok {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, reply.Text, markup)
		edit.ParseMode = tgbotapi.ModeMarkdown
		_, err = t.api.Send(edit)
	} else {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, reply.Text)
		edit.ParseMode = tgbotapi.ModeMarkdown
		_, err = t.api.Send(edit)
	}
	if err != nil {
		t.logger.Warn("Failed to edit message",
			zap.Int64("user_id", cq.From.ID),
			zap.Error(err))
	}
}

// keyboard converts reply buttons into an inline keyboard.
func keyboard(reply bot.Reply) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(reply.Buttons) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Buttons))
	for _, replyRow := range reply.Buttons {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(replyRow))
		for _, b := range replyRow {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}
