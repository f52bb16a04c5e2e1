package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/askdesk/askdesk/internal/api"
	"github.com/askdesk/askdesk/internal/config"
	"github.com/askdesk/askdesk/internal/conversation"
	"github.com/askdesk/askdesk/internal/dbexec"
	"github.com/askdesk/askdesk/internal/llm"
	"github.com/askdesk/askdesk/internal/nl2sql"
	"github.com/askdesk/askdesk/internal/observability"
	"github.com/askdesk/askdesk/internal/orchestrator"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("no .env file loaded", slog.Any("error", err))
	}

	cfg, err := config.LoadFromEnv("askdesk-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	// A missing API key is a fatal startup error.
	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize llm client", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := dbexec.Open(context.Background(), dbexec.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open employee database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	executor := dbexec.NewExecutor(db)

	var store conversation.Store
	switch cfg.Conversation.Backend {
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.Conversation.RedisURL)
		if err != nil {
			logger.Error("invalid redis url", slog.Any("error", err))
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = rdb.Close() }()
		store = conversation.NewRedisStore(rdb, cfg.Conversation.TTL)
	default:
		store = conversation.NewMemoryStore()
	}

	orch := orchestrator.New(orchestrator.Dependencies{
		Store:      store,
		Interp:     nl2sql.NewInterpreter(client, logger),
		Classifier: nl2sql.NewFollowUpClassifier(client),
		Adapter:    nl2sql.NewFollowUpAdapter(client, logger),
		Beautifier: nl2sql.NewBeautifier(client),
		Executor:   executor,
		Logger:     logger,
	})

	handler := api.NewHandler(cfg, api.Dependencies{
		Logger:            logger,
		Orchestrator:      orch,
		Readiness:         executor.HealthCheck,
		DependencyTimeout: time.Second,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting askdesk api", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down askdesk api")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
