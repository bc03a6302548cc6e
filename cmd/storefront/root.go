package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/internal/config"
	"Storefront/pkg/kit"
)

type rootFlags struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Product catalog, cart and wishlist storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(newServeCmd(f), newCatalogCmd(f))
	return cmd
}

func (f *rootFlags) load() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := kit.NewLogger(cfg.Service, cfg.Log.Level, cfg.DevMode)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}

// openContent returns the configured product source and a func releasing it.
func openContent(ctx context.Context, cfg config.ContentConfig) (catalog.ContentStore, func(), error) {
	switch cfg.Source {
	case "http":
		return catalog.NewHTTPContentStore(catalog.HTTPConfig{
			BaseURL:    cfg.BaseURL,
			Dataset:    cfg.Dataset,
			APIVersion: cfg.APIVersion,
			Token:      cfg.Token,
			Timeout:    cfg.Timeout.Duration,
		}), func() {}, nil
	case "postgres":
		db, err := catalog.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return catalog.NewPostgresContentStore(db), func() { closeDB(db) }, nil
	default:
		return catalog.NewMemContentStore(catalog.SeedProducts()...), func() {}, nil
	}
}

func closeDB(db *sql.DB) { _ = db.Close() }
