package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/docsearch/internal/app"
	"github.com/nikhilbhutani/docsearch/internal/config"
	"github.com/nikhilbhutani/docsearch/internal/models"
)

type ingester interface {
	Ingest(ctx context.Context, filename string, data []byte) (string, error)
}

type searcher interface {
	Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error)
}

type lister interface {
	GetAll(ctx context.Context) (*models.Listing, error)
}

// Services used by the subcommands. They are built from configuration on
// first use unless already set.
var (
	ingestService ingester
	searchService searcher
	listService   lister
	closeServices func() error
)

// skipServices marks commands that only need configuration.
const skipServices = "skip-services"

var rootCmd = &cobra.Command{
	Use:          "docsearchctl",
	Short:        "Ingest and search documents",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipServices] != "" || ingestService != nil {
			return nil
		}
		return buildServices(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeServices == nil {
			return nil
		}
		err := closeServices()
		closeServices = nil
		return err
	},
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildServices(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Backend == "memory" {
		fmt.Fprintln(os.Stderr, "warning: STORE_BACKEND=memory does not persist between runs")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}

	ingestService = a.Ingestor
	searchService = a.Searcher
	listService = a.Store
	closeServices = a.Close
	return nil
}
