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

	"github.com/askdb/askdb/internal/api"
	"github.com/askdb/askdb/internal/api/uistatic"
	"github.com/askdb/askdb/internal/auth"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/database"
	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/nlsql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/schema"
	duckdbschema "github.com/askdb/askdb/internal/schema/duckdb"
	postgresschema "github.com/askdb/askdb/internal/schema/postgres"
	"github.com/askdb/askdb/internal/sqlpolicy"
)

func main() {
	cfg, err := config.LoadFromEnv("askdb-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	db, err := database.Open(context.Background(), cfg.Database)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var provider schema.Provider
	switch cfg.Database.Dialect {
	case config.DialectDuckDB:
		provider = duckdbschema.NewProvider(db, cfg.Database.Schema)
	default:
		provider = postgresschema.NewProvider(db, cfg.Database.Schema)
	}

	aiClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize ai client", slog.Any("error", err))
		os.Exit(1)
	}

	queryPipeline := &pipeline.Pipeline{
		Schema: provider,
		Generator: &nlsql.Generator{
			Client:      aiClient,
			Dialect:     database.DisplayName(cfg.Database.Dialect),
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxSQLTokens,
		},
		Validator: sqlpolicy.Validator{TableCheck: cfg.Validator.TableCheck},
		Executor:  executor.NewSQLExecutor(db),
		Summarizer: &nlsql.Summarizer{
			Client:      aiClient,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxSummaryTokens,
			Logger:      logger,
		},
		Logger: logger,
	}

	deps := api.Dependencies{
		Logger:            logger,
		Pipeline:          queryPipeline,
		SchemaProvider:    provider,
		UI:                uistatic.Handler(),
		Readiness:         api.CheckDatabase(db.PingContext),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
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
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("dialect", string(cfg.Database.Dialect)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
