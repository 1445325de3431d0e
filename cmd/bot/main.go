package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ai-photo-studio/internal/app"
	"ai-photo-studio/internal/config"
	"ai-photo-studio/internal/handlers"
	"ai-photo-studio/internal/httpclient"
	"ai-photo-studio/internal/mediagroup"
	"ai-photo-studio/internal/session"
	"ai-photo-studio/internal/telegram"
)

const (
	updateWorkers = 8
	sessionIdle   = 6 * time.Hour
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		panic(err)
	}

	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := app.NewStudio(ctx, cfg, logger)
	if err != nil {
		logger.Error("studio init failed", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	tg, err := telegram.New(telegram.Options{
		Token: cfg.TelegramToken,
		HTTPClient: httpclient.New(httpclient.Options{
			PreferIPv4: cfg.PreferIPv4,
			Timeout:    cfg.HTTPTimeout,
		}),
		Logger: logger,
		Debug:  cfg.Debug,
	})
	if err != nil {
		logger.Error("telegram init failed", "err", err)
		os.Exit(1)
	}

	sessions := session.NewStore(session.Options{})

	handler := handlers.New(handlers.Options{
		Telegram: tg,
		Studio:   st,
		Sessions: sessions,
		Logger:   logger,
	})

	// Generations wait on the shared limiter, so updates get their own
	// worker slots and no deadline beyond the per-call task timeout.
	sem := make(chan struct{}, updateWorkers)
	onGroupFlush := func(group mediagroup.Group) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func() {
			defer func() { <-sem }()
			handler.HandleMediaGroup(ctx, group)
		}()
	}

	aggregator := mediagroup.New(mediagroup.Options{
		Debounce: cfg.MediaGroupDebounce,
		Limit:    2,
		OnFlush:  onGroupFlush,
	})
	handler.SetMediaGroupAggregator(aggregator)

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Prune(sessionIdle); n > 0 {
					logger.Info("sessions pruned", "count", n)
				}
			}
		}
	}()

	logger.Info("bot started", "username", tg.Username(), "max_concurrent", cfg.MaxConcurrent)

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info("updates channel closed")
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			go func(update telegram.Update) {
				defer func() { <-sem }()

				if err := handler.HandleUpdate(ctx, update); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("handle update failed", "err", err)
				}
			}(update)
		}
	}
}
