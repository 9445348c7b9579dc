package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/nikhilbhutani/docsearch/internal/app"
	"github.com/nikhilbhutani/docsearch/internal/config"
	"github.com/nikhilbhutani/docsearch/internal/queue"
	"github.com/nikhilbhutani/docsearch/internal/queue/workers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if cfg.Store.Backend == "memory" {
		slog.Warn("worker is using the in-memory store; documents will not be visible to the API server")
	}

	a, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		slog.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Logger:      newAsynqLogger(logger),
		},
	)

	registry := queue.NewHandlersRegistry(logger)
	documentWorker := workers.NewDocumentWorker(a.Ingestor, logger)
	registry.Register(queue.TypeDocumentIngest, asynq.HandlerFunc(documentWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", cfg.Queue.Concurrency, "store", cfg.Store.Backend)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
