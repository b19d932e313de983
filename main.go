package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ibt_connect/internal/chat"
	"ibt_connect/internal/config"
	"ibt_connect/internal/dispatch"
	"ibt_connect/internal/identity"
	"ibt_connect/internal/lead"
	"ibt_connect/internal/logger"
	"ibt_connect/internal/server"
	"ibt_connect/internal/session"
	"ibt_connect/internal/speech"
)

func main() {
	// .env is optional; environment wins either way.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		// Run on defaults when no config file is present.
		cfg = config.Default()
	}

	if err := logger.Init(logger.Config{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		Output:   cfg.Log.Output,
		FilePath: cfg.Log.FilePath,
	}); err != nil {
		os.Exit(1)
	}

	ctx := context.Background()

	store := session.NewStore(time.Duration(cfg.Session.TTLSeconds) * time.Second)

	sink, err := buildSink(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize lead sink")
	}

	responder, err := chat.NewModelResponder(ctx, chat.Config{
		Provider:    cfg.Chat.Provider,
		Model:       cfg.Chat.Model,
		APIKey:      os.Getenv("OPENAI_API_KEY"),
		BaseURL:     cfg.Chat.BaseURL,
		MaxTokens:   cfg.Chat.MaxTokens,
		Temperature: float32(cfg.Chat.Temperature),
		Timeout:     time.Duration(cfg.Chat.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize chat responder")
	}

	var renderer speech.Renderer
	if cfg.Speech.Enabled {
		opts := []speech.Option{
			speech.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
			speech.WithModel(cfg.Speech.Model),
			speech.WithVoice(cfg.Speech.Voice),
		}
		if cfg.Speech.BaseURL != "" {
			opts = append(opts, speech.WithBaseURL(cfg.Speech.BaseURL))
		}
		renderer = speech.New(cfg.Speech.Dir, opts...)
	}

	dispatcher := dispatch.New(store, lead.NewMachine(sink), responder, renderer, cfg.Session.Threshold)

	srv := server.New(cfg.Server.Addr, dispatcher, identity.TokenFirstResolver{}, sink, cfg.Speech.Dir)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Int("threshold", cfg.Session.Threshold).
			Int("ttl_seconds", cfg.Session.TTLSeconds).
			Msg("relay listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown incomplete")
	}
	logger.Info().Msg("relay stopped")
}

func buildSink(ctx context.Context, cfg *config.Config) (lead.Sink, error) {
	switch cfg.Lead.Sink {
	case "redis":
		return lead.NewRedisSink(ctx, cfg.Lead.RedisKey)
	default:
		return lead.NewFileSink(cfg.Lead.FilePath)
	}
}
