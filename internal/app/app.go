// Package app wires configuration into the long-lived collaborators shared by
// the API server, the worker and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/docsearch/internal/api"
	"github.com/nikhilbhutani/docsearch/internal/api/handlers"
	"github.com/nikhilbhutani/docsearch/internal/cache"
	"github.com/nikhilbhutani/docsearch/internal/config"
	"github.com/nikhilbhutani/docsearch/internal/database"
	"github.com/nikhilbhutani/docsearch/internal/document"
	"github.com/nikhilbhutani/docsearch/internal/embedding"
	"github.com/nikhilbhutani/docsearch/internal/metrics"
	"github.com/nikhilbhutani/docsearch/internal/queue"
	"github.com/nikhilbhutani/docsearch/internal/rag"
	"github.com/nikhilbhutani/docsearch/internal/vectorstore"
	"github.com/nikhilbhutani/docsearch/migrations"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Embedder embedding.Provider
	Store    vectorstore.Store
	Ingestor *rag.Ingestor
	Searcher *rag.Searcher
	Queue    *queue.Client // nil unless QUEUE_ENABLED
	Checks   map[string]handlers.Checker

	closers []func() error
}

// Build constructs every collaborator once. Call Close when done.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	metrics.Register()

	a := &App{
		Config: cfg,
		Logger: logger,
		Checks: map[string]handlers.Checker{},
	}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	var rdb *redis.Client
	if cfg.Embedding.CacheEnabled || cfg.Queue.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			a.Logger.Warn("redis unavailable", "addr", cfg.Redis.Addr, "error", err)
		}
		a.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	embedder, err := embedding.NewProvider(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}
	if cfg.Embedding.CacheEnabled {
		vc := cache.NewCache(rdb, "docsearch:")
		embedder = embedding.NewCachedProvider(embedder, vc, embedding.ModelName(cfg.Embedding), cfg.Embedding.CacheTTL, a.Logger)
	}
	a.Embedder = embedder
	a.Checks["embedding"] = func(ctx context.Context) error { return embedding.HealthCheck(ctx, embedder) }

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.Store = store

	opts := []rag.Option{
		rag.WithObserver(rag.Observers{rag.NewLogObserver(a.Logger), metrics.PipelineObserver{}}),
	}
	extractor := document.NewTextExtractor(cfg.Extract.CaseInsensitive)
	a.Ingestor = rag.NewIngestor(extractor, embedder, store, opts...)
	a.Searcher = rag.NewSearcher(embedder, store, opts...)

	if cfg.Queue.Enabled {
		a.Queue = queue.NewClient(cfg.Redis)
		a.closers = append(a.closers, a.Queue.Close)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (vectorstore.Store, error) {
	cfg := a.Config
	switch cfg.Store.Backend {
	case "memory":
		return vectorstore.NewMemoryStore(cfg.Embedding.Dimensions), nil

	case "sqlite":
		s, err := vectorstore.NewSQLiteStore(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		if want := cfg.Embedding.Dimensions; want > 0 && s.Dimension() > 0 && s.Dimension() != want {
			return nil, fmt.Errorf("sqlite store holds %d-dimensional vectors, EMBEDDING_DIMENSIONS is %d", s.Dimension(), want)
		}
		return s, nil

	case "pgvector":
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		a.Checks["database"] = pool.Ping

		var schema fs.FS = migrations.FS
		if cfg.Database.MigrationsPath != "" {
			schema = os.DirFS(cfg.Database.MigrationsPath)
		}
		if err := database.RunMigrations(ctx, pool, schema, a.Logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return vectorstore.NewPgVectorStore(pool, cfg.Embedding.Dimensions), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// Router returns the HTTP handler for the API server.
func (a *App) Router() http.Handler {
	deps := api.Deps{
		Ingestor: a.Ingestor,
		Searcher: a.Searcher,
		Store:    a.Store,
		Checks:   a.Checks,
	}
	if a.Queue != nil {
		deps.Queue = a.Queue
	}
	return api.NewRouter(a.Config, deps).Setup()
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
