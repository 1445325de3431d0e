// Package app wires the pieces both front-ends share: logging, the image
// edit client, the shared limiter and the result board.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"ai-photo-studio/internal/board"
	"ai-photo-studio/internal/config"
	"ai-photo-studio/internal/gemini"
	"ai-photo-studio/internal/httpclient"
	"ai-photo-studio/internal/limiter"
	"ai-photo-studio/internal/studio"
)

func NewLogger(cfg config.Config) *slog.Logger {
	return newLogger(os.Stdout, cfg.LogLevel)
}

func newLogger(w io.Writer, levelName string) *slog.Logger {
	level := slog.LevelInfo
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Studio is the orchestrator plus whatever it holds open.
type Studio struct {
	*studio.Studio
	closers []func() error
}

func (s *Studio) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewStudio builds the orchestrator from cfg. Boards live in Redis when
// REDIS_ADDR is set and in memory otherwise.
func NewStudio(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Studio, error) {
	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	gem, err := gemini.New(ctx, gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		Model:      cfg.GeminiModel,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}

	out := &Studio{}
	store, err := newBoard(ctx, cfg, logger, out)
	if err != nil {
		return nil, err
	}

	st, err := studio.New(studio.Options{
		Editor:      gem,
		Board:       store,
		Limiter:     limiter.New(cfg.MaxConcurrent),
		Logger:      logger,
		TaskTimeout: cfg.TaskTimeout,
	})
	if err != nil {
		_ = out.Close()
		return nil, err
	}
	out.Studio = st
	return out, nil
}

func newBoard(ctx context.Context, cfg config.Config, logger *slog.Logger, out *Studio) (board.Store, error) {
	if cfg.RedisAddr == "" {
		logger.Info("result board in memory")
		return board.NewMemory(), nil
	}

	rdb, err := board.Connect(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	out.closers = append(out.closers, rdb.Close)

	store, err := board.NewRedis(board.RedisOptions{
		Client: rdb,
		TTL:    cfg.BoardTTL,
		Logger: logger,
	})
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	logger.Info("result board in redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return store, nil
}
