package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mymmrac/telego"

	"github.com/jdelaire/skybot/adapters/telegram_notifier"
	"github.com/jdelaire/skybot/adapters/telegram_receiver"
	"github.com/jdelaire/skybot/core"
	"github.com/jdelaire/skybot/core/citylist"
	"github.com/jdelaire/skybot/core/journal"
	"github.com/jdelaire/skybot/core/policy"
	"github.com/jdelaire/skybot/internal/config"
	"github.com/jdelaire/skybot/internal/keychain"
	"github.com/jdelaire/skybot/internal/polls"
	"github.com/jdelaire/skybot/internal/weather"
)

const (
	cityReloadInterval = 30 * time.Second
	drainTimeout       = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "skybot:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.Path(), func() (string, error) {
		return keychain.Get(keychain.BotTokenAccount)
	})
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := telego.NewBot(cfg.BotToken, telego.WithDefaultLogger(false, true))
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	me, err := bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get bot identity: %w", err)
	}
	notifier := telegram_notifier.New(bot)

	sink, err := journal.OpenFile(cfg.CommandLogFile)
	if err != nil {
		return fmt.Errorf("open interaction log: %w", err)
	}
	defer sink.Close()

	wx, err := weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, logger)
	if err != nil {
		return err
	}
	defer wx.Close()
	if cfg.WeatherAPIKey == "" {
		logger.Warn("WEATHER_API_KEY is not set, weather lookups will fail")
	}

	cities := citylist.New(cfg.CitiesFile, cityReloadInterval, logger)
	go cities.Run(ctx)

	store := polls.Open(cfg.PollsFile, logger)
	if n := store.Len(); n > 0 {
		logger.Info("restored open deletion votes", "count", n)
	}

	router, _ := buildRouter(deps{
		cfg:      cfg,
		botName:  me.Username,
		notifier: notifier,
		auth:     policy.NewFileAllowlist(cfg.AuthFile),
		weather:  wx,
		cities:   cities,
		store:    store,
		workflow: polls.NewWorkflow(store, notifier, cfg.PollOpenPeriod, logger),
		logger:   logger,
	})

	dispatcher := core.NewDispatcher(router, notifier, logger, cfg.MaxConcurrentEvents,
		core.InteractionLogging(sink, cfg.Version, logger),
	)

	// Events already accepted finish after a shutdown signal.
	handleCtx := context.WithoutCancel(ctx)
	var recv core.Receiver = telegram_receiver.New(bot, func(ev core.Event) {
		dispatcher.Submit(handleCtx, ev)
	}, logger)

	logger.Info("skybot started", "bot", me.Username, "version", cfg.Version)
	if err := recv.Start(ctx); err != nil {
		return err
	}

	drained := make(chan struct{})
	go func() {
		dispatcher.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(drainTimeout):
		logger.Warn("shutdown with events still in flight")
	}
	logger.Info("skybot stopped")
	return nil
}
