// ====================================
// File: cmd/bot/main.go
// ====================================
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-paper-bot/internal/bot"
	"github.com/rovshanmuradov/solana-paper-bot/internal/config"
	"github.com/rovshanmuradov/solana-paper-bot/internal/events"
	"github.com/rovshanmuradov/solana-paper-bot/internal/health"
	"github.com/rovshanmuradov/solana-paper-bot/internal/logger"
	"github.com/rovshanmuradov/solana-paper-bot/internal/oracle"
	"github.com/rovshanmuradov/solana-paper-bot/internal/session"
	"github.com/rovshanmuradov/solana-paper-bot/internal/telegram"
	"github.com/rovshanmuradov/solana-paper-bot/internal/trade"
)

func main() {
	cfg, err := config.LoadConfig("configs/config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("⚡ Starting Solana paper terminal")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus(log.Logger, 64)
	events.SubscribeAudit(bus, log.Logger)

	oracleClient := oracle.NewClient(
		cfg.FeedURL,
		time.Duration(cfg.RequestTimeoutMs)*time.Millisecond,
		log.Logger,
	)
	registry := session.NewRegistry(cfg.StartBalance, log.Logger)
	executor := trade.NewExecutor(oracleClient, bus, log.Logger)

	dialog := bot.NewDialog(&bot.DialogConfig{
		Registry: registry,
		Prices:   oracleClient,
		Executor: executor,
		Bus:      bus,
		Logger:   log.Logger,
	})

	transport, err := telegram.NewTransport(ctx, cfg.BotToken, dialog, log.Logger)
	if err != nil {
		log.Fatal("💥 Failed to connect to Telegram", zap.Error(err))
	}

	healthServer := health.NewServer(cfg.Port, log.Logger)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return transport.Run(gCtx)
	})
	g.Go(func() error {
		return healthServer.Run(gCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Bot execution error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bus.Shutdown(shutdownCtx); err != nil {
		log.Warn("Event bus shutdown error", zap.Error(err))
	}

	log.Info("👋 Bot shut down gracefully", zap.Int("sessions", registry.Len()))
}
